package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/queue"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// Enqueuer accepts asynchronous transcription jobs
type Enqueuer interface {
	EnqueueJob(job *queue.Job) error
}

// TranscribeHandler runs uploads through the transcription pipeline
type TranscribeHandler struct {
	pipeline  queue.Transcriber
	jobs      queue.JobStore
	pool      Enqueuer
	maxSizeMB int
	logger    *slog.Logger
}

// NewTranscribeHandler creates a new transcribe handler
func NewTranscribeHandler(pipeline queue.Transcriber, jobs queue.JobStore, pool Enqueuer, maxSizeMB int, logger *slog.Logger) *TranscribeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscribeHandler{
		pipeline:  pipeline,
		jobs:      jobs,
		pool:      pool,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}
}

// parseRequest reads the upload and options shared by both endpoints.
// When ok is false the error response has already been written.
func (h *TranscribeHandler) parseRequest(c *fiber.Ctx) (req transcription.TranscribeRequest, ok bool, err error) {
	filename, data, err := readUpload(c, int64(h.maxSizeMB)*1024*1024)
	if err != nil {
		return req, false, uploadError(c, err, h.maxSizeMB)
	}

	sampleRate, err := optionalInt(c, "sample_rate_hz")
	if err != nil {
		return req, false, errorJSON(c, fiber.StatusBadRequest, err.Error(), "ERR_INVALID_OPTION")
	}
	channels, err := optionalInt(c, "channel_count")
	if err != nil {
		return req, false, errorJSON(c, fiber.StatusBadRequest, err.Error(), "ERR_INVALID_OPTION")
	}

	// Rejected here, before anything is stored or queued.
	model, err := transcription.ParseModel(c.FormValue("model"))
	if err != nil {
		return req, false, pipelineError(c, err)
	}

	req = transcription.TranscribeRequest{
		ID:           uuid.New().String(),
		Filename:     filename,
		Data:         data,
		Model:        string(model),
		LanguageCode: c.FormValue("language"),
		SampleRateHz: sampleRate,
		ChannelCount: channels,
	}
	return req, true, nil
}

// Handle transcribes synchronously and returns the transcript
func (h *TranscribeHandler) Handle(c *fiber.Ctx) error {
	req, ok, err := h.parseRequest(c)
	if !ok {
		return err
	}

	h.record(func() error { return h.jobs.CreateJob(req.ID, req.Filename, types.SourceUpload, req.Model) })

	transcript, err := h.pipeline.Transcribe(c.UserContext(), req)
	if err != nil {
		_, code, message := transcription.Classify(err)
		h.record(func() error { return h.jobs.FailJob(req.ID, code, message) })
		return pipelineError(c, err)
	}

	h.record(func() error { return h.jobs.CompleteJob(req.ID, transcript) })
	return c.JSON(transcript)
}

// Enqueue queues the upload and returns the job ID immediately
func (h *TranscribeHandler) Enqueue(c *fiber.Ctx) error {
	req, ok, err := h.parseRequest(c)
	if !ok {
		return err
	}

	name := c.FormValue("name")
	if name == "" {
		name = req.Filename
	}

	job := queue.NewJob(req.ID, name, types.SourceUpload, req)
	if err := h.pool.EnqueueJob(job); err != nil {
		return enqueueError(c, h.logger, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":  job.ID,
		"status":  "queued",
		"message": "File uploaded successfully, processing started",
	})
}

func (h *TranscribeHandler) record(fn func() error) {
	if h.jobs == nil {
		return
	}
	if err := fn(); err != nil {
		h.logger.Warn("failed to record transcript", "error", err)
	}
}

func enqueueError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrStopped) {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Transcription queue is busy, try again later", "ERR_QUEUE_FULL")
	}
	logger.Error("failed to enqueue job", "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to queue job", "ERR_ENQUEUE_FAILED")
}
