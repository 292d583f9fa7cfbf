package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/queue"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	requests []transcription.TranscribeRequest
	result   *types.Transcript
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcription.TranscribeRequest) (*types.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeJobs struct {
	mu     sync.Mutex
	events []string
	codes  map[string]string
}

func (f *fakeJobs) add(event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeJobs) CreateJob(jobID, filename, sourceType, model string) error {
	return f.add("create:" + sourceType + ":" + model)
}

func (f *fakeJobs) MarkProcessing(jobID string) error { return f.add("processing") }

func (f *fakeJobs) CompleteJob(jobID string, t *types.Transcript) error { return f.add("complete") }

func (f *fakeJobs) FailJob(jobID, code, message string) error {
	f.mu.Lock()
	if f.codes == nil {
		f.codes = make(map[string]string)
	}
	f.codes[jobID] = code
	f.mu.Unlock()
	return f.add("fail:" + code)
}

func (f *fakeJobs) SetDriveURL(jobID, driveURL string) error { return f.add("drive") }

type fakePool struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (f *fakePool) EnqueueJob(job *queue.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakePool) last() *queue.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil
	}
	return f.jobs[len(f.jobs)-1]
}

// multipartRequest builds a POST with form fields and an optional "file" part
func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// do runs req against app and decodes a JSON object body when present
func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body, string(raw)
}

func sampleTranscript(id string) *types.Transcript {
	return &types.Transcript{
		AssetID:  id,
		Filename: "clip.wav",
		Vendor:   types.VendorGoogle,
		Model:    types.ModelDefault,
		Language: "en-US",
		FullText: "hello world",
		Segments: []types.TranscriptSegment{{Index: 0, Text: "hello world", Confidence: 0.9}},
	}
}
