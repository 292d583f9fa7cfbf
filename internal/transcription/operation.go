package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

const (
	DefaultTimeout      = 90 * time.Second
	DefaultPollInterval = 2 * time.Second
)

// Recognizer is an asynchronous speech recognition backend
type Recognizer interface {
	// Name returns the vendor name recorded on transcripts
	Name() string

	// Submit starts a long-running recognition of the audio at locator.
	// An error means the backend rejected the request synchronously.
	Submit(ctx context.Context, cfg types.RecognitionConfig, locator string) (types.Operation, error)

	// Poll fetches the current state of a submitted operation
	Poll(ctx context.Context, op types.Operation) (types.PollResult, error)
}

// OperationManager submits recognition jobs and waits for them under a deadline
type OperationManager struct {
	recognizer   Recognizer
	timeout      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewOperationManager creates a manager. Zero durations fall back to the defaults.
func NewOperationManager(recognizer Recognizer, timeout, pollInterval time.Duration, logger *slog.Logger) *OperationManager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationManager{
		recognizer:   recognizer,
		timeout:      timeout,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Vendor returns the backend name
func (m *OperationManager) Vendor() string {
	return m.recognizer.Name()
}

// Timeout returns the per-request wait budget
func (m *OperationManager) Timeout() time.Duration {
	return m.timeout
}

// Submit hands the config to the recognizer
func (m *OperationManager) Submit(ctx context.Context, cfg types.RecognitionConfig, locator string) (*types.Operation, error) {
	op, err := m.recognizer.Submit(ctx, cfg, locator)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(KindCanceled, StageSubmitted, "request canceled", err)
		}
		return nil, newError(KindSubmission, StageSubmitted, "recognizer rejected the request", err)
	}
	if op.State == "" {
		op.State = types.OperationSubmitted
	}
	if op.SubmittedAt.IsZero() {
		op.SubmittedAt = time.Now()
	}
	m.logger.Info("recognition submitted", "operation", op.Name, "locator", locator)
	return &op, nil
}

type awaitOutcome struct {
	result types.PollResult
	err    error
}

// Await blocks until the operation is terminal or the deadline elapses.
// On timeout the operation is abandoned, not cancelled upstream, and any
// later result is discarded.
func (m *OperationManager) Await(ctx context.Context, op *types.Operation) ([]types.RecognizedSegment, error) {
	deadline := time.NewTimer(m.timeout)
	defer deadline.Stop()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the watcher never blocks once nobody is listening.
	done := make(chan awaitOutcome, 1)
	running := make(chan struct{}, 1)
	go m.watch(watchCtx, *op, running, done)

	for {
		select {
		case <-running:
			if op.State == types.OperationSubmitted {
				op.State = types.OperationRunning
				m.logger.Debug("recognition running", "operation", op.Name)
			}
		case out := <-done:
			return m.finish(ctx, op, out)
		case <-deadline.C:
			op.State = types.OperationTimedOut
			m.logger.Warn("recognition timed out, abandoning operation", "operation", op.Name, "timeout", m.timeout)
			return nil, newError(KindRecognitionTimeout, StageAwaiting,
				fmt.Sprintf("recognition did not complete within %s", m.timeout), nil)
		case <-ctx.Done():
			return nil, newError(KindCanceled, StageAwaiting, "request canceled", ctx.Err())
		}
	}
}

// finish applies the watcher's outcome to the handle
func (m *OperationManager) finish(ctx context.Context, op *types.Operation, out awaitOutcome) ([]types.RecognizedSegment, error) {
	if out.err != nil {
		if ctx.Err() != nil {
			return nil, newError(KindCanceled, StageAwaiting, "request canceled", ctx.Err())
		}
		op.State = types.OperationFailed
		return nil, newError(KindRecognitionBackend, StageAwaiting, "failed to poll recognition operation", out.err)
	}
	if out.result.ErrorMessage != "" {
		op.State = types.OperationFailed
		m.logger.Warn("recognition failed", "operation", op.Name, "message", out.result.ErrorMessage)
		return nil, newError(KindRecognitionBackend, StageAwaiting, out.result.ErrorMessage, nil)
	}
	op.State = types.OperationSucceeded
	m.logger.Info("recognition completed",
		"operation", op.Name,
		"segments", len(out.result.Segments),
		"elapsed", time.Since(op.SubmittedAt).Round(time.Millisecond))
	return out.result.Segments, nil
}

// watch polls until the operation is done, the context ends or a poll fails,
// and signals running once the backend reports work in progress.
func (m *OperationManager) watch(ctx context.Context, op types.Operation, running chan<- struct{}, done chan<- awaitOutcome) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	signaled := false

	for {
		result, err := m.recognizer.Poll(ctx, op)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
			done <- awaitOutcome{err: err}
			return
		}
		if result.Done {
			done <- awaitOutcome{result: result}
			return
		}
		if !signaled {
			signaled = true
			running <- struct{}{}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
