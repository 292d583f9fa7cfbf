package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/storage"
)

// UploadHandler stores files in the blob store and lists them
type UploadHandler struct {
	store     storage.BlobStore
	maxSizeMB int
	logger    *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store storage.BlobStore, maxSizeMB int, logger *slog.Logger) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		store:     store,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}
}

// Handle stores the uploaded file under its own name and returns the blob
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	filename, data, err := readUpload(c, int64(h.maxSizeMB)*1024*1024)
	if err != nil {
		return uploadError(c, err, h.maxSizeMB)
	}

	ref, err := h.store.Put(c.UserContext(), filename, data)
	if err != nil {
		h.logger.Error("failed to store upload", "filename", filename, "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Failed to save file", "ERR_SAVE_FAILED")
	}

	h.logger.Info("file uploaded", "name", ref.Name, "bytes", ref.Size)
	return c.JSON(ref)
}

// List returns every stored blob
func (h *UploadHandler) List(c *fiber.Ctx) error {
	refs, err := h.store.List(c.UserContext())
	if err != nil {
		h.logger.Error("failed to list blobs", "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Failed to list files", "ERR_LIST_FAILED")
	}
	return c.JSON(refs)
}
