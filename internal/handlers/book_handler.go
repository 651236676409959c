package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/llm"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/services"
)

type BookHandler struct {
	generationService *services.GenerationService
	bookService       *services.BookService
	bookJobService    *services.BookJobService
}

func NewBookHandler(generationService *services.GenerationService, bookService *services.BookService, bookJobService *services.BookJobService) *BookHandler {
	return &BookHandler{
		generationService: generationService,
		bookService:       bookService,
		bookJobService:    bookJobService,
	}
}

// GenerateOverview godoc
// @Summary Generate a book overview from keywords
// @Description Produce back-cover style prose from comma-separated keywords
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.GenerateOverviewRequest true "Keywords"
// @Success 200 {object} models.GenerateOverviewResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/books/overview [post]
func (h *BookHandler) GenerateOverview(c *gin.Context) {
	var req models.GenerateOverviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	overview, err := h.generationService.GenerateOverview(c.Request.Context(), req.Keywords)
	if err != nil {
		respondStageError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateOverviewResponse{Overview: overview})
}

// GenerateOutline godoc
// @Summary Generate a chapter outline from an overview
// @Description Produce a structured outline with the requested chapter count
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.GenerateOutlineRequest true "Overview and chapter count"
// @Success 200 {object} models.GenerateOutlineResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/books/outline [post]
func (h *BookHandler) GenerateOutline(c *gin.Context) {
	var req models.GenerateOutlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	if err := services.ValidateChapterCount(req.Chapters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outline, err := h.generationService.GenerateOutline(c.Request.Context(), req.Overview, req.Chapters)
	if err != nil {
		respondStageError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateOutlineResponse{Outline: outline})
}

// GenerateChapter godoc
// @Summary Generate a single chapter
// @Description Produce long-form prose for one outline entry
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.GenerateChapterRequest true "Overview and outline entry"
// @Success 200 {object} models.GenerateChapterResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/books/chapter [post]
func (h *BookHandler) GenerateChapter(c *gin.Context) {
	var req models.GenerateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	if req.Index < 1 || req.Total < 1 || req.Index > req.Total {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chapter index must be within 1..total"})
		return
	}

	entry := models.ChapterMeta{Title: req.Title, Synopsis: req.Synopsis}
	content, err := h.generationService.GenerateChapter(c.Request.Context(), req.Overview, entry, req.Index, req.Total)
	if err != nil {
		respondStageError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateChapterResponse{Content: content})
}

// CreateBook godoc
// @Summary Build a complete book
// @Description Run the full pipeline (overview, outline, chapters, assembly) and persist the result
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.CreateBookRequest true "Keywords or overview, plus chapter count"
// @Success 201 {object} models.CreateBookResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result, err := h.bookService.BuildBook(c.Request.Context(), &req)
	if err != nil {
		respondStageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateBookResponse{Slug: result.Slug, Title: result.Title})
}

// AssembleBook godoc
// @Summary Assemble and persist a book from stage outputs
// @Description Concatenate already-generated stages into the final document and store it
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.AssembleBookRequest true "Stage outputs"
// @Success 201 {object} models.CreateBookResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/books/assemble [post]
func (h *BookHandler) AssembleBook(c *gin.Context) {
	var req models.AssembleBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result, err := h.bookService.AssemblePersist(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to assemble book", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, models.CreateBookResponse{Slug: result.Slug, Title: result.Title})
}

// CreateBookJob godoc
// @Summary Enqueue an asynchronous book build
// @Description Record a generation job and publish it to the book_builder queue
// @Tags books
// @Accept json
// @Produce json
// @Param request body models.CreateBookRequest true "Keywords or overview, plus chapter count"
// @Success 202 {object} models.CreateBookJobResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/books/jobs [post]
func (h *BookHandler) CreateBookJob(c *gin.Context) {
	if h.bookJobService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Asynchronous builds are not available"})
		return
	}

	var req models.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	job, err := h.bookJobService.EnqueueBook(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidChapterCount) || errors.Is(err, services.ErrMissingInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logrus.Errorf("Failed to enqueue book job: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, models.CreateBookJobResponse{JobID: job.ID, Status: job.Status})
}

// respondStageError maps pipeline failures to user-visible statuses.
// Validation problems are the client's, everything else signals that the
// generation backend let us down.
func respondStageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidChapterCount), errors.Is(err, services.ErrMissingInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrMalformedOutline):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Outline could not be parsed from the generation reply", "details": err.Error()})
	case errors.Is(err, llm.ErrExhausted):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation endpoint unavailable", "details": err.Error()})
	default:
		logrus.Errorf("Pipeline failure: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed", "details": err.Error()})
	}
}
