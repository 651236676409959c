package models

// ChapterMeta is a single outline entry produced by the outline stage.
// Order is significant: chapter numbering follows array position.
type ChapterMeta struct {
	Title    string `json:"title" example:"The Hidden Kingdom"`
	Synopsis string `json:"synopsis" example:"How mycelium networks knit the forest floor together."`
}

// GenerateOverviewRequest asks for back-cover-style prose from keywords
type GenerateOverviewRequest struct {
	Keywords string `json:"keywords" binding:"required" example:"fungi, sustainability"`
}

// GenerateOverviewResponse carries the generated overview text
type GenerateOverviewResponse struct {
	Overview string `json:"overview"`
}

// GenerateOutlineRequest asks for a chapter outline from an overview
type GenerateOutlineRequest struct {
	Overview string `json:"overview" binding:"required"`
	Chapters int    `json:"chapters" binding:"required" example:"5"`
}

// GenerateOutlineResponse carries the structured outline
type GenerateOutlineResponse struct {
	Outline []ChapterMeta `json:"outline"`
}

// GenerateChapterRequest asks for one chapter's prose
type GenerateChapterRequest struct {
	Overview string `json:"overview" binding:"required"`
	Title    string `json:"title" binding:"required" example:"The Hidden Kingdom"`
	Synopsis string `json:"synopsis" example:"How mycelium networks knit the forest floor together."`
	Index    int    `json:"index" binding:"required" example:"1"`
	Total    int    `json:"total" binding:"required" example:"5"`
}

// GenerateChapterResponse carries one chapter's prose
type GenerateChapterResponse struct {
	Content string `json:"content"`
}

// CreateBookRequest runs the full pipeline. Either keywords or an overview
// must be provided; when both are present the overview wins and the keyword
// stage is skipped.
type CreateBookRequest struct {
	Keywords string `json:"keywords,omitempty" example:"fungi, sustainability"`
	Overview string `json:"overview,omitempty"`
	Chapters int    `json:"chapters" binding:"required" example:"5"`
}

// CreateBookResponse reports where the finished book was stored
type CreateBookResponse struct {
	Slug  string `json:"slug" example:"the-hidden-kingdom"`
	Title string `json:"title" example:"The Hidden Kingdom"`
}

// AssembleBookRequest persists a book from already-generated stage outputs
type AssembleBookRequest struct {
	Keywords string        `json:"keywords,omitempty" example:"fungi, sustainability"`
	Overview string        `json:"overview" binding:"required"`
	Outline  []ChapterMeta `json:"outline" binding:"required"`
	Chapters []string      `json:"chapters" binding:"required"`
}
