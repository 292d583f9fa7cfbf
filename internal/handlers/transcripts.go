package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/storage"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// TranscriptIndex reads the stored transcript records
type TranscriptIndex interface {
	GetTranscript(jobID string) (*storage.TranscriptRecord, error)
	ListTranscripts(limit int) ([]*storage.TranscriptRecord, error)
}

// TranscriptsHandler serves stored transcripts and job status
type TranscriptsHandler struct {
	index  TranscriptIndex
	logger *slog.Logger
}

// NewTranscriptsHandler creates a new transcripts handler
func NewTranscriptsHandler(index TranscriptIndex, logger *slog.Logger) *TranscriptsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptsHandler{index: index, logger: logger}
}

// List returns the newest records
func (h *TranscriptsHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	records, err := h.index.ListTranscripts(limit)
	if err != nil {
		h.logger.Error("failed to list transcripts", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to list transcripts", "ERR_LIST_FAILED")
	}
	return c.JSON(records)
}

// Get returns one record with its transcript, also used to poll async jobs
func (h *TranscriptsHandler) Get(c *fiber.Ctx) error {
	rec, ok, err := h.lookup(c)
	if !ok {
		return err
	}
	return c.JSON(rec)
}

// Text returns the full transcript as plain text
func (h *TranscriptsHandler) Text(c *fiber.Ctx) error {
	rec, ok, err := h.lookup(c)
	if !ok {
		return err
	}
	if rec.Status != types.StatusCompleted || rec.Transcript == nil {
		return errorJSON(c, fiber.StatusConflict, "Transcript not ready (status "+rec.Status+")", "ERR_NOT_READY")
	}
	return c.SendString(rec.Transcript.FullText)
}

func (h *TranscriptsHandler) lookup(c *fiber.Ctx) (*storage.TranscriptRecord, bool, error) {
	jobID := c.Params("id")
	rec, err := h.index.GetTranscript(jobID)
	if errors.Is(err, storage.ErrTranscriptNotFound) {
		return nil, false, errorJSON(c, fiber.StatusNotFound, "Transcript not found", "ERR_NOT_FOUND")
	}
	if err != nil {
		h.logger.Error("failed to get transcript", "job_id", jobID, "error", err)
		return nil, false, errorJSON(c, fiber.StatusInternalServerError, "Failed to read transcript", "ERR_READ_FAILED")
	}
	return rec, true, nil
}
