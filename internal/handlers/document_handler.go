package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services"
)

type DocumentHandler struct {
	documentService *services.DocumentService
}

func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// CreateDocument godoc
// @Summary Generate a complete document from a brief
// @Description Single-shot flow: one overview in, one long-form document out, persisted for download
// @Tags documents
// @Accept json
// @Produce json
// @Param request body models.CreateDocumentRequest true "Document brief"
// @Success 201 {object} models.CreateDocumentResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	slug, err := h.documentService.CreateDocument(c.Request.Context(), req.Overview)
	if err != nil {
		respondStageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateDocumentResponse{Slug: slug})
}
