package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/database/repository"
)

type JobHandler struct {
	jobRepo *repository.JobRepository
}

func NewJobHandler(jobRepo *repository.JobRepository) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

// GetJob godoc
// @Summary Get the status of a generation job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.GenerationJob
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.jobRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobs godoc
// @Summary List recent generation jobs
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.GenerationJob
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobRepo.GetRecent(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jobs)
}
