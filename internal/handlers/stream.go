package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/queue"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// StreamHandler accepts a WAV file sent over a WebSocket in binary frames.
// The whole file is buffered and transcribed as a batch job after END;
// nothing is recognized while frames are still arriving.
type StreamHandler struct {
	pool      Enqueuer
	maxSizeMB int
	logger    *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(pool Enqueuer, maxSizeMB int, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		pool:      pool,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}
}

// Handle processes WebSocket connections.
//
// Text frames are control messages: "END" finishes the upload,
// "model:<name>" and "language:<code>" set options, anything else names the
// recording. Binary frames are appended to the audio buffer.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var (
		buffer      bytes.Buffer
		requestName string
		model       string
		language    string
		jobID       = uuid.New().String()
		maxBytes    = h.maxSizeMB * 1024 * 1024
		logger      = h.logger.With("job_id", jobID)
	)

	logger.Info("websocket connection established")

read:
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Warn("websocket read error", "error", err)
			return
		}

		if messageType == websocket.TextMessage {
			msg := strings.TrimSpace(string(message))
			switch {
			case msg == "END":
				logger.Info("received END signal, processing stream")
				break read
			case strings.HasPrefix(msg, "model:"):
				model = strings.TrimPrefix(msg, "model:")
			case strings.HasPrefix(msg, "language:"):
				language = strings.TrimPrefix(msg, "language:")
			default:
				if len(msg) > 0 && len(msg) < 200 {
					requestName = msg
				}
			}
			continue
		}

		if messageType == websocket.BinaryMessage {
			if maxBytes > 0 && buffer.Len()+len(message) > maxBytes {
				h.reply(c, map[string]string{"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB), "code": "ERR_FILE_TOO_LARGE"})
				return
			}
			buffer.Write(message)
		}
	}

	if buffer.Len() == 0 {
		logger.Warn("no audio data received")
		h.reply(c, map[string]string{"error": "No audio data received", "code": "ERR_NO_FILE"})
		return
	}

	parsed, err := transcription.ParseModel(model)
	if err != nil {
		_, code, msg := transcription.Classify(err)
		h.reply(c, map[string]string{"error": msg, "code": code})
		return
	}

	if requestName == "" {
		requestName = "stream_recording"
	}

	job := queue.NewJob(jobID, requestName, types.SourceStream, transcription.TranscribeRequest{
		Filename:     requestName + ".wav",
		Data:         buffer.Bytes(),
		Model:        string(parsed),
		LanguageCode: language,
	})
	if err := h.pool.EnqueueJob(job); err != nil {
		logger.Warn("failed to enqueue stream", "error", err)
		h.reply(c, map[string]string{"error": "Transcription queue is busy, try again later", "code": "ERR_QUEUE_FULL"})
		return
	}

	logger.Info("stream queued", "bytes", buffer.Len())
	h.reply(c, map[string]string{"job_id": jobID, "status": "queued"})
}

func (h *StreamHandler) reply(c *websocket.Conn, body map[string]string) {
	if err := c.WriteJSON(body); err != nil {
		h.logger.Warn("websocket write error", "error", err)
	}
}
