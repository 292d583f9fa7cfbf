package queue

import (
	"time"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// Job represents an asynchronous transcription job
type Job struct {
	ID          string
	RequestName string
	SourceType  string
	Request     transcription.TranscribeRequest
	Status      string
	Error       error
	Result      *types.Transcript
	CreatedAt   time.Time
}

// NewJob creates a new job with default values. The job ID doubles as the
// pipeline request ID so logs and stored blobs line up.
func NewJob(id, requestName, sourceType string, req transcription.TranscribeRequest) *Job {
	req.ID = id
	if req.Filename == "" {
		req.Filename = requestName
	}
	return &Job{
		ID:          id,
		RequestName: requestName,
		SourceType:  sourceType,
		Request:     req,
		Status:      types.StatusQueued,
		CreatedAt:   time.Now(),
	}
}
