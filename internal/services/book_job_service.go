package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/database/repository"
	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
)

// bookJobMessage is the queue payload; the job row carries the request.
type bookJobMessage struct {
	JobID string `json:"job_id"`
}

// BookJobService runs book builds asynchronously: requests are recorded as
// GenerationJob rows and travel through the book_builder queue; the worker
// runs the pipeline and writes the outcome back to the row. Failed builds
// are never requeued, the row is the record.
type BookJobService struct {
	jobRepo     *repository.JobRepository
	bookService *BookService
	rabbitMQ    *RabbitMQService
	stopChan    chan struct{}
}

func NewBookJobService(jobRepo *repository.JobRepository, bookService *BookService, rabbitMQ *RabbitMQService) *BookJobService {
	return &BookJobService{
		jobRepo:     jobRepo,
		bookService: bookService,
		rabbitMQ:    rabbitMQ,
		stopChan:    make(chan struct{}),
	}
}

// EnqueueBook validates the request, records a pending job and publishes it
// to the book_builder queue.
func (s *BookJobService) EnqueueBook(req *models.CreateBookRequest) (*models.GenerationJob, error) {
	if err := ValidateChapterCount(req.Chapters); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Overview) == "" && strings.TrimSpace(req.Keywords) == "" {
		return nil, ErrMissingInput
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := &models.GenerationJob{
		ID:      uuid.New().String(),
		Kind:    "book",
		Payload: string(payload),
		Status:  models.JobStatusPending,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create job record: %w", err)
	}

	if err := s.rabbitMQ.PublishJSON(BookQueueName, bookJobMessage{JobID: job.ID}); err != nil {
		job.Status = models.JobStatusFailed
		job.Error = "failed to enqueue: " + err.Error()
		if updateErr := s.jobRepo.Update(job); updateErr != nil {
			logrus.Errorf("Failed to mark unenqueued job %s as failed: %v", job.ID, updateErr)
		}
		return nil, fmt.Errorf("failed to publish job: %w", err)
	}

	logrus.Infof("Book job enqueued: id=%s chapters=%d", job.ID, req.Chapters)
	return job, nil
}

// StartWorker begins consuming book jobs from the queue.
func (s *BookJobService) StartWorker() error {
	msgs, err := s.rabbitMQ.Consume(BookQueueName)
	if err != nil {
		return err
	}

	logrus.Infof("[BookWorker] Started, consuming from queue: %s", BookQueueName)

	go func() {
		for {
			select {
			case <-s.stopChan:
				logrus.Info("[BookWorker] Stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("[BookWorker] RabbitMQ channel closed")
					return
				}
				s.handleMessage(msg)
			}
		}
	}()

	return nil
}

// StopWorker stops the book worker
func (s *BookJobService) StopWorker() {
	close(s.stopChan)
}

func (s *BookJobService) handleMessage(msg amqp.Delivery) {
	var payload bookJobMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		logrus.Errorf("[BookWorker] Malformed message, dropping: %v", err)
		msg.Nack(false, false)
		return
	}

	if err := s.runJob(payload.JobID); err != nil {
		logrus.Errorf("[BookWorker] Job %s failed: %v", payload.JobID, err)
		sentry.CaptureException(err)
	}

	// Always ack: the job row holds the outcome, a redelivery would only
	// rebuild a book that already has a terminal status.
	msg.Ack(false)
}

func (s *BookJobService) runJob(jobID string) error {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.Status != models.JobStatusPending {
		logrus.Warnf("[BookWorker] Job %s already %s, skipping", job.ID, job.Status)
		return nil
	}

	var req models.CreateBookRequest
	if err := json.Unmarshal([]byte(job.Payload), &req); err != nil {
		job.Status = models.JobStatusFailed
		job.Error = "malformed payload: " + err.Error()
		if updateErr := s.jobRepo.Update(job); updateErr != nil {
			logrus.Errorf("Failed to record failure for job %s: %v", job.ID, updateErr)
		}
		return fmt.Errorf("malformed payload for job %s: %w", job.ID, err)
	}

	job.Status = models.JobStatusRunning
	if err := s.jobRepo.Update(job); err != nil {
		return fmt.Errorf("failed to mark job %s running: %w", job.ID, err)
	}

	result, buildErr := s.bookService.BuildBook(context.Background(), &req)
	if buildErr != nil {
		job.Status = models.JobStatusFailed
		job.Error = buildErr.Error()
		if err := s.jobRepo.Update(job); err != nil {
			logrus.Errorf("Failed to record failure for job %s: %v", job.ID, err)
		}
		return buildErr
	}

	job.Status = models.JobStatusCompleted
	job.Slug = result.Slug
	if err := s.jobRepo.Update(job); err != nil {
		return fmt.Errorf("failed to record completion for job %s: %w", job.ID, err)
	}

	logrus.Infof("[BookWorker] Job %s completed: slug=%s", job.ID, result.Slug)
	return nil
}
