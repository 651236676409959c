package models

// CreateDocumentRequest is the single-shot "universal" flow: one brief in,
// one complete long-form document out.
type CreateDocumentRequest struct {
	Overview string `json:"overview" binding:"required" example:"A practical guide to home composting."`
}

// CreateDocumentResponse reports where the generated document was stored
type CreateDocumentResponse struct {
	Slug string `json:"slug" example:"a-practical-guide-to-home-composting"`
}
