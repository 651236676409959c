package repository

import (
	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new generation job record
func (r *JobRepository) Create(job *models.GenerationJob) error {
	return r.db.Create(job).Error
}

// GetByID retrieves a generation job by ID
func (r *JobRepository) GetByID(id string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Update persists changes to a generation job
func (r *JobRepository) Update(job *models.GenerationJob) error {
	return r.db.Save(job).Error
}

// GetRecent retrieves the most recent jobs, newest first
func (r *JobRepository) GetRecent(limit int) ([]*models.GenerationJob, error) {
	var jobs []*models.GenerationJob
	err := r.db.Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}
