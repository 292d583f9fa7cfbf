package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
)

var errFileTooLarge = errors.New("file too large")

// errorJSON writes the standard error body
func errorJSON(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// pipelineError maps a pipeline error to its client-facing status and message.
// Internal causes are never written to the response.
func pipelineError(c *fiber.Ctx, err error) error {
	status, code, message := transcription.Classify(err)
	return errorJSON(c, status, message, code)
}

// readUpload reads the multipart "file" field fully into memory
func readUpload(c *fiber.Ctx, maxBytes int64) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return "", nil, errFileTooLarge
	}

	f, err := file.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return file.Filename, data, nil
}

// uploadError writes the response for a readUpload failure
func uploadError(c *fiber.Ctx, err error, maxSizeMB int) error {
	if errors.Is(err, errFileTooLarge) {
		return errorJSON(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large (max %dMB)", maxSizeMB), "ERR_FILE_TOO_LARGE")
	}
	return errorJSON(c, fiber.StatusBadRequest, "No file uploaded", "ERR_NO_FILE")
}

// optionalInt parses an optional integer form value; empty means zero
func optionalInt(c *fiber.Ctx, key string) (int, error) {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
