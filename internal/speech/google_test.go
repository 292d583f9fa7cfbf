package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/logging"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

type fakeSpeechAPI struct {
	mu        sync.Mutex
	requests  []speechapi.LongRunningRecognizeRequest
	operation string
	submitErr int
}

func (f *fakeSpeechAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "speech:longrunningrecognize"):
		if f.submitErr != 0 {
			w.WriteHeader(f.submitErr)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"sample rate mismatch","status":"INVALID_ARGUMENT"}}`))
			return
		}
		var req speechapi.LongRunningRecognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"name":"7781"}`))

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/operations/"):
		f.mu.Lock()
		body := f.operation
		f.mu.Unlock()
		_, _ = w.Write([]byte(body))

	default:
		http.NotFound(w, r)
	}
}

func newTestRecognizer(t *testing.T, api *fakeSpeechAPI) *GoogleRecognizer {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	rec, err := NewGoogleRecognizer(context.Background(), logging.Discard(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewGoogleRecognizer: %v", err)
	}
	return rec
}

func TestSubmitSendsMeasuredConfig(t *testing.T) {
	api := &fakeSpeechAPI{}
	rec := newTestRecognizer(t, api)

	op, err := rec.Submit(context.Background(), types.RecognitionConfig{
		Encoding:        types.EncodingLinear16,
		SampleRateHz:    16000,
		ChannelCount:    2,
		LanguageCode:    "en-US",
		ProfanityFilter: true,
		WordTimeOffsets: true,
		Model:           types.ModelPhoneCall,
	}, "gs://bucket/req_clip.wav")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if op.Name != "7781" || op.State != types.OperationSubmitted {
		t.Fatalf("unexpected operation %+v", op)
	}

	if len(api.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(api.requests))
	}
	got := api.requests[0]
	if got.Audio == nil || got.Audio.Uri != "gs://bucket/req_clip.wav" {
		t.Fatalf("unexpected audio %+v", got.Audio)
	}
	cfg := got.Config
	if cfg.SampleRateHertz != 16000 || cfg.AudioChannelCount != 2 {
		t.Errorf("expected 16000Hz x2, got %dHz x%d", cfg.SampleRateHertz, cfg.AudioChannelCount)
	}
	if cfg.Encoding != "LINEAR16" || cfg.Model != "phone_call" || cfg.LanguageCode != "en-US" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.ProfanityFilter || !cfg.EnableWordTimeOffsets {
		t.Errorf("expected profanity filter and word offsets, got %+v", cfg)
	}
}

func TestSubmitRejectsNonGCSLocator(t *testing.T) {
	api := &fakeSpeechAPI{}
	rec := newTestRecognizer(t, api)

	_, err := rec.Submit(context.Background(), types.RecognitionConfig{}, "file:///tmp/clip.wav")
	if err == nil {
		t.Fatal("expected error for file locator")
	}
	if len(api.requests) != 0 {
		t.Fatal("file locator should not reach the API")
	}
}

func TestSubmitBackendRejection(t *testing.T) {
	api := &fakeSpeechAPI{submitErr: http.StatusBadRequest}
	rec := newTestRecognizer(t, api)

	_, err := rec.Submit(context.Background(), types.RecognitionConfig{}, "gs://bucket/o.wav")
	if err == nil {
		t.Fatal("expected error from rejected submission")
	}
}

func TestPollStates(t *testing.T) {
	api := &fakeSpeechAPI{}
	rec := newTestRecognizer(t, api)
	op := types.Operation{Name: "7781"}

	api.operation = `{"name":"7781","done":false}`
	res, err := rec.Poll(context.Background(), op)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if res.Done {
		t.Fatal("expected operation still running")
	}

	api.operation = `{"name":"7781","done":true,"error":{"code":3,"message":"audio could not be decoded"}}`
	res, err = rec.Poll(context.Background(), op)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !res.Done || res.ErrorMessage != "audio could not be decoded" {
		t.Fatalf("unexpected failure result %+v", res)
	}

	api.operation = `{"name":"7781","done":true,"response":{
		"@type":"type.googleapis.com/google.cloud.speech.v1.LongRunningRecognizeResponse",
		"results":[
			{"alternatives":[
				{"transcript":"hello there","confidence":0.91,"words":[
					{"word":"hello","startTime":"0.100s","endTime":"0.500s"},
					{"word":"there","startTime":"0.500s","endTime":"1.200s"}
				]},
				{"transcript":"yellow there","confidence":0.4}
			]},
			{"alternatives":[]}
		]}}`
	res, err = rec.Poll(context.Background(), op)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !res.Done || len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", res)
	}
	first := res.Segments[0]
	if len(first.Alternatives) != 2 || first.Alternatives[0].Transcript != "hello there" {
		t.Fatalf("unexpected alternatives %+v", first.Alternatives)
	}
	words := first.Alternatives[0].Words
	if len(words) != 2 || words[1].Word != "there" || words[1].StartSeconds != 0.5 || words[1].EndSeconds != 1.2 {
		t.Fatalf("unexpected words %+v", words)
	}
	if len(res.Segments[1].Alternatives) != 0 {
		t.Fatalf("expected empty second segment, got %+v", res.Segments[1])
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"0s", 0, false},
		{"1.300s", 1.3, false},
		{"12s", 12, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseOffset(tt.in)
		if tt.wantErr != (err != nil) {
			t.Errorf("parseOffset(%q): unexpected error state %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOffset(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestName(t *testing.T) {
	rec := &GoogleRecognizer{}
	if rec.Name() != types.VendorGoogle {
		t.Fatalf("expected %q, got %q", types.VendorGoogle, rec.Name())
	}
}
