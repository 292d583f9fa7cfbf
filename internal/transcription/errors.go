package transcription

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure
type Kind string

const (
	KindMalformedAudio     Kind = "malformed_audio"
	KindInvalidModel       Kind = "invalid_model"
	KindStorage            Kind = "storage"
	KindSubmission         Kind = "submission"
	KindRecognitionTimeout Kind = "recognition_timeout"
	KindRecognitionBackend Kind = "recognition_backend"
	KindCanceled           Kind = "canceled"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrMalformedAudio     = &Error{Kind: KindMalformedAudio}
	ErrInvalidModel       = &Error{Kind: KindInvalidModel}
	ErrStorage            = &Error{Kind: KindStorage}
	ErrSubmission         = &Error{Kind: KindSubmission}
	ErrRecognitionTimeout = &Error{Kind: KindRecognitionTimeout}
	ErrRecognitionBackend = &Error{Kind: KindRecognitionBackend}
	ErrCanceled           = &Error{Kind: KindCanceled}
)

// Error is a typed pipeline failure. Message is safe to show to clients;
// Err carries the internal cause and is never surfaced at the boundary.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stage)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Stage == ""
}

func newError(kind Kind, stage Stage, message string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Message: message, Err: err}
}

// Classify maps an error to the status, code and message returned to clients
func Classify(err error) (int, string, string) {
	var pe *Error
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError, "ERR_INTERNAL", "internal error"
	}

	msg := pe.Message
	if msg == "" {
		msg = string(pe.Kind)
	}

	switch pe.Kind {
	case KindMalformedAudio:
		return http.StatusBadRequest, "ERR_MALFORMED_AUDIO", msg
	case KindInvalidModel:
		return http.StatusBadRequest, "ERR_INVALID_MODEL", msg
	case KindStorage:
		return http.StatusBadGateway, "ERR_STORAGE", msg
	case KindSubmission:
		return http.StatusBadGateway, "ERR_SUBMISSION", msg
	case KindRecognitionTimeout:
		return http.StatusGatewayTimeout, "ERR_RECOGNITION_TIMEOUT", msg
	case KindRecognitionBackend:
		return http.StatusBadGateway, "ERR_RECOGNITION_BACKEND", msg
	case KindCanceled:
		return 499, "ERR_CANCELED", msg
	default:
		return http.StatusInternalServerError, "ERR_INTERNAL", "internal error"
	}
}
