package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// ErrQueueFull is returned by EnqueueJob when no slot is free
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned by EnqueueJob after Stop
var ErrStopped = errors.New("worker pool stopped")

const archiveAttempts = 3

// Transcriber runs one request through the transcription pipeline
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.TranscribeRequest) (*types.Transcript, error)
}

// JobStore persists job state and finished transcripts
type JobStore interface {
	CreateJob(jobID, filename, sourceType, model string) error
	MarkProcessing(jobID string) error
	CompleteJob(jobID string, t *types.Transcript) error
	FailJob(jobID, code, message string) error
	SetDriveURL(jobID, driveURL string) error
}

// Archiver copies finished transcripts somewhere durable (e.g. Google Drive)
type Archiver interface {
	Upload(ctx context.Context, requestName string, t *types.Transcript) (string, error)
}

// WorkerPool manages a pool of workers processing transcription jobs
type WorkerPool struct {
	jobQueue     chan *Job
	workerCount  int
	transcriber  Transcriber
	store        JobStore
	archiver     Archiver
	archiveDelay time.Duration
	logger       *slog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewWorkerPool creates a new worker pool. archiver may be nil.
func NewWorkerPool(
	workerCount, queueSize int,
	transcriber Transcriber,
	store JobStore,
	archiver Archiver,
	logger *slog.Logger,
) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		jobQueue:     make(chan *Job, queueSize),
		workerCount:  workerCount,
		transcriber:  transcriber,
		store:        store,
		archiver:     archiver,
		archiveDelay: time.Second,
		logger:       logger,
	}
}

// Start launches the workers. Jobs run under ctx.
func (wp *WorkerPool) Start(ctx context.Context) {
	ctx, wp.cancel = context.WithCancel(ctx)
	wp.logger.Info("starting worker pool", "workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop rejects new jobs, lets queued jobs drain and waits for the workers
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	if wp.cancel != nil {
		wp.cancel()
	}
	wp.logger.Info("worker pool stopped")
}

// EnqueueJob records the job and adds it to the queue
func (wp *WorkerPool) EnqueueJob(job *Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return ErrStopped
	}

	job.Status = types.StatusQueued
	job.CreatedAt = time.Now()
	if err := wp.store.CreateJob(job.ID, job.Request.Filename, job.SourceType, job.Request.Model); err != nil {
		return err
	}

	select {
	case wp.jobQueue <- job:
	default:
		if err := wp.store.FailJob(job.ID, "ERR_QUEUE_FULL", ErrQueueFull.Error()); err != nil {
			wp.logger.Warn("failed to record rejected job", "job_id", job.ID, "error", err)
		}
		return ErrQueueFull
	}
	wp.logger.Info("job enqueued", "job_id", job.ID, "source", job.SourceType, "name", job.RequestName)
	return nil
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	logger := wp.logger.With("worker", id)
	logger.Debug("worker started")

	for job := range wp.jobQueue {
		// Panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic processing job", "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
					job.Status = types.StatusFailed
					job.Error = fmt.Errorf("worker panic: %v", r)
					if err := wp.store.FailJob(job.ID, "ERR_INTERNAL", "internal error"); err != nil {
						logger.Warn("failed to record job failure", "job_id", job.ID, "error", err)
					}
				}
			}()

			wp.processJob(ctx, logger, job)
		}()
	}
}

// processJob runs the pipeline and records the outcome
func (wp *WorkerPool) processJob(ctx context.Context, logger *slog.Logger, job *Job) {
	logger = logger.With("job_id", job.ID)
	logger.Info("processing job")
	job.Status = types.StatusProcessing
	if err := wp.store.MarkProcessing(job.ID); err != nil {
		logger.Warn("failed to mark job processing", "error", err)
	}

	result, err := wp.transcriber.Transcribe(ctx, job.Request)
	// The upload is no longer needed once the pipeline has run.
	job.Request.Data = nil
	if err != nil {
		job.Status = types.StatusFailed
		job.Error = err
		_, code, message := transcription.Classify(err)
		if err := wp.store.FailJob(job.ID, code, message); err != nil {
			logger.Warn("failed to record job failure", "error", err)
		}
		logger.Warn("job failed", "code", code, "error", err)
		return
	}

	job.Result = result
	if err := wp.store.CompleteJob(job.ID, result); err != nil {
		logger.Error("failed to save transcript", "error", err)
		job.Status = types.StatusFailed
		job.Error = err
		return
	}
	job.Status = types.StatusCompleted

	if wp.archiver != nil {
		if driveURL, err := wp.archive(ctx, logger, job); err == nil {
			if err := wp.store.SetDriveURL(job.ID, driveURL); err != nil {
				logger.Warn("failed to record drive url", "error", err)
			}
		}
	}

	logger.Info("job completed", "segments", len(result.Segments), "words", result.WordCount())
}

// archive uploads the transcript, retrying with quadratic backoff
func (wp *WorkerPool) archive(ctx context.Context, logger *slog.Logger, job *Job) (string, error) {
	var err error
	for attempt := 1; attempt <= archiveAttempts; attempt++ {
		var driveURL string
		driveURL, err = wp.archiver.Upload(ctx, job.RequestName, job.Result)
		if err == nil {
			return driveURL, nil
		}
		logger.Warn("archive attempt failed", "attempt", attempt, "max", archiveAttempts, "error", err)
		if attempt < archiveAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt*attempt) * wp.archiveDelay):
			}
		}
	}
	logger.Warn("archive failed, transcript kept in the local index only")
	return "", err
}
