package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/queue"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

var (
	driveFilePattern = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
	driveOpenPattern = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
	driveIDPattern   = regexp.MustCompile(`^([a-zA-Z0-9_-]{25,40})$`)
)

// GDriveHandler imports a shared Google Drive file and queues it for transcription
type GDriveHandler struct {
	pool        Enqueuer
	client      *http.Client
	downloadURL string
	maxSizeMB   int
	logger      *slog.Logger
}

// NewGDriveHandler creates a new Google Drive handler
func NewGDriveHandler(pool Enqueuer, maxSizeMB int, logger *slog.Logger) *GDriveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GDriveHandler{
		pool:        pool,
		client:      &http.Client{Timeout: 5 * time.Minute},
		downloadURL: "https://drive.google.com/uc?export=download&id=%s",
		maxSizeMB:   maxSizeMB,
		logger:      logger,
	}
}

// GDriveRequest represents the request body
type GDriveRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Model    string `json:"model"`
	Language string `json:"language"`
}

// Handle processes Google Drive link requests
func (h *GDriveHandler) Handle(c *fiber.Ctx) error {
	var req GDriveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body", "ERR_INVALID_BODY")
	}

	if req.URL == "" {
		return errorJSON(c, fiber.StatusBadRequest, "URL is required", "ERR_NO_URL")
	}

	fileID := extractGDriveFileID(req.URL)
	if fileID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid Google Drive URL", "ERR_INVALID_URL")
	}

	model, err := transcription.ParseModel(req.Model)
	if err != nil {
		return pipelineError(c, err)
	}

	if req.Name == "" {
		req.Name = "gdrive_file"
	}

	h.logger.Info("downloading from Google Drive", "file_id", fileID)
	data, err := h.download(c, fileID)
	if err != nil {
		var de *downloadError
		if errors.As(err, &de) {
			return errorJSON(c, de.status, de.message, de.code)
		}
		h.logger.Error("failed to download from Google Drive", "file_id", fileID, "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Failed to download file from Google Drive", "ERR_DOWNLOAD_FAILED")
	}

	jobID := uuid.New().String()
	job := queue.NewJob(jobID, req.Name, types.SourceGDrive, transcription.TranscribeRequest{
		Filename:     req.Name + ".wav",
		Data:         data,
		Model:        string(model),
		LanguageCode: req.Language,
	})
	if err := h.pool.EnqueueJob(job); err != nil {
		return enqueueError(c, h.logger, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Google Drive file downloaded, processing started",
	})
}

type downloadError struct {
	status  int
	code    string
	message string
}

func (e *downloadError) Error() string {
	return e.message
}

// download fetches the shared file into memory, bounded by the upload limit
func (h *GDriveHandler) download(c *fiber.Ctx, fileID string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, fmt.Sprintf(h.downloadURL, fileID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &downloadError{
			status:  fiber.StatusBadRequest,
			code:    "ERR_FILE_NOT_ACCESSIBLE",
			message: "File not accessible (may be private or doesn't exist)",
		}
	}

	maxBytes := int64(h.maxSizeMB) * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, &downloadError{
			status:  fiber.StatusRequestEntityTooLarge,
			code:    "ERR_FILE_TOO_LARGE",
			message: fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
		}
	}
	return data, nil
}

// extractGDriveFileID extracts the file ID from various Google Drive URL formats
func extractGDriveFileID(url string) string {
	// https://drive.google.com/file/d/{ID}/view
	if matches := driveFilePattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// https://drive.google.com/open?id={ID}
	if matches := driveOpenPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	// Bare ID (25-40 characters)
	if matches := driveIDPattern.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
