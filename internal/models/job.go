package models

import (
	"time"
)

// Generation job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// GenerationJob tracks an asynchronous book build processed off the
// book_builder queue. The row is the job's record of truth: the worker never
// requeues a failed build, it writes the failure here instead.
type GenerationJob struct {
	ID      string `json:"id" gorm:"primaryKey;type:uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Kind    string `json:"kind" gorm:"type:varchar(50);not null;default:'book'" example:"book"`
	Payload string `json:"-" gorm:"type:text;not null"`

	Status string `json:"status" gorm:"type:varchar(50);not null;default:'pending';index" example:"completed"`
	Slug   string `json:"slug,omitempty" gorm:"type:varchar(255)" example:"the-hidden-kingdom"`
	Error  string `json:"error,omitempty" gorm:"type:text" example:"outline stage failed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the GenerationJob model
func (GenerationJob) TableName() string {
	return "generation_jobs"
}

// CreateBookJobResponse acknowledges an enqueued book build
type CreateBookJobResponse struct {
	JobID  string `json:"job_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status string `json:"status" example:"pending"`
}
