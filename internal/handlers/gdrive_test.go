package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/logging"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

const testDriveID = "1AbCdEfGhIjKlMnOpQrStUvWxYz"

func newGDriveApp(t *testing.T, pool *fakePool, maxMB int, payload []byte) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+testDriveID {
			http.NotFound(w, r)
			return
		}
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	h := NewGDriveHandler(pool, maxMB, logging.Discard())
	h.client = srv.Client()
	h.downloadURL = srv.URL + "/%s"

	app := fiber.New()
	Register(app, Routes{GDrive: h})
	return app
}

func gdriveRequest(t *testing.T, body GDriveRequest) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/gdrive", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGDriveQueuesDownload(t *testing.T) {
	pool := &fakePool{}
	app := newGDriveApp(t, pool, 10, []byte("RIFF....WAVE"))

	status, body, raw := do(t, app, gdriveRequest(t, GDriveRequest{
		URL:      "https://drive.google.com/file/d/" + testDriveID + "/view?usp=sharing",
		Name:     "interview",
		Model:    "latest_long",
		Language: "en-GB",
	}))
	if status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", status, raw)
	}

	job := pool.last()
	if job == nil || body["job_id"] != job.ID {
		t.Fatalf("job not enqueued: %s", raw)
	}
	if job.SourceType != types.SourceGDrive || job.RequestName != "interview" {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Request.Filename != "interview.wav" || string(job.Request.Data) != "RIFF....WAVE" {
		t.Fatalf("unexpected request %+v", job.Request)
	}
	if job.Request.Model != "latest_long" || job.Request.LanguageCode != "en-GB" {
		t.Fatalf("unexpected options %+v", job.Request)
	}
}

func TestGDriveErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   GDriveRequest
		maxMB  int
		status int
		code   string
	}{
		{"missing url", GDriveRequest{}, 10, http.StatusBadRequest, "ERR_NO_URL"},
		{"not a drive url", GDriveRequest{URL: "https://example.com/a.wav"}, 10, http.StatusBadRequest, "ERR_INVALID_URL"},
		{"bad model", GDriveRequest{URL: testDriveID, Model: "turbo"}, 10, http.StatusBadRequest, "ERR_INVALID_MODEL"},
		{"private file", GDriveRequest{URL: "https://drive.google.com/open?id=someOtherFileId_1234567890"}, 10, http.StatusBadRequest, "ERR_FILE_NOT_ACCESSIBLE"},
		{"too large", GDriveRequest{URL: testDriveID}, 1, http.StatusRequestEntityTooLarge, "ERR_FILE_TOO_LARGE"},
	}

	big := make([]byte, 1024*1024+10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &fakePool{}
			app := newGDriveApp(t, pool, tt.maxMB, big)

			status, body, raw := do(t, app, gdriveRequest(t, tt.body))
			if status != tt.status || body["code"] != tt.code {
				t.Fatalf("expected %d %s, got %d: %s", tt.status, tt.code, status, raw)
			}
			if pool.last() != nil {
				t.Fatal("failed request should not enqueue")
			}
		})
	}
}

func TestGDriveInvalidBody(t *testing.T) {
	app := newGDriveApp(t, &fakePool{}, 10, nil)
	req := httptest.NewRequest(http.MethodPost, "/gdrive", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")

	status, body, raw := do(t, app, req)
	if status != http.StatusBadRequest || body["code"] != "ERR_INVALID_BODY" {
		t.Fatalf("expected 400 ERR_INVALID_BODY, got %d: %s", status, raw)
	}
}

func TestExtractGDriveFileID(t *testing.T) {
	tests := map[string]string{
		"https://drive.google.com/file/d/abc_DEF-123/view":        "abc_DEF-123",
		"https://drive.google.com/file/d/abc_DEF-123/view?usp=x": "abc_DEF-123",
		"https://drive.google.com/open?id=xyz789":                 "xyz789",
		"https://drive.google.com/uc?export=download&id=xyz789":   "xyz789",
		testDriveID:               testDriveID,
		"short":                   "",
		"https://example.com/a.b": "",
	}
	for in, want := range tests {
		if got := extractGDriveFileID(in); got != want {
			t.Errorf("extractGDriveFileID(%q): expected %q, got %q", in, want, got)
		}
	}
}
