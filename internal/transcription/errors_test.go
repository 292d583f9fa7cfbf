package transcription

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"malformed", malformed("bad header"), http.StatusBadRequest, "ERR_MALFORMED_AUDIO"},
		{"model", newError(KindInvalidModel, StageConfigured, "unknown model", nil), http.StatusBadRequest, "ERR_INVALID_MODEL"},
		{"storage", newError(KindStorage, StageStored, "failed", errors.New("disk")), http.StatusBadGateway, "ERR_STORAGE"},
		{"submission", newError(KindSubmission, StageSubmitted, "rejected", nil), http.StatusBadGateway, "ERR_SUBMISSION"},
		{"timeout", newError(KindRecognitionTimeout, StageAwaiting, "slow", nil), http.StatusGatewayTimeout, "ERR_RECOGNITION_TIMEOUT"},
		{"backend", newError(KindRecognitionBackend, StageAwaiting, "boom", nil), http.StatusBadGateway, "ERR_RECOGNITION_BACKEND"},
		{"canceled", newError(KindCanceled, StageAwaiting, "gone", nil), 499, "ERR_CANCELED"},
		{"wrapped", fmt.Errorf("job 7: %w", malformed("x")), http.StatusBadRequest, "ERR_MALFORMED_AUDIO"},
		{"untyped", errors.New("secret path /etc/creds"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := Classify(tt.err)
			if status != tt.status || code != tt.code {
				t.Fatalf("expected %d %s, got %d %s", tt.status, tt.code, status, code)
			}
			if msg == "" {
				t.Fatalf("expected a client message")
			}
		})
	}
}

func TestClassifyHidesCause(t *testing.T) {
	err := newError(KindStorage, StageStored, "failed to store audio", errors.New("token file /home/x/key.json"))
	_, _, msg := Classify(err)
	if strings.Contains(msg, "key.json") {
		t.Fatalf("internal cause leaked into client message %q", msg)
	}
	if !strings.Contains(err.Error(), "key.json") {
		t.Fatalf("expected cause in Error(), got %q", err.Error())
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := newError(KindSubmission, StageSubmitted, "rejected", nil)
	if !errors.Is(err, ErrSubmission) {
		t.Fatalf("expected ErrSubmission match")
	}
	if errors.Is(err, ErrStorage) {
		t.Fatalf("unexpected ErrStorage match")
	}
}
