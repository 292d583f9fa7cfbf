package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	speechapi "google.golang.org/api/speech/v1"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// GoogleRecognizer runs long-running recognition on Google Cloud Speech-to-Text v1
type GoogleRecognizer struct {
	service *speechapi.Service
	logger  *slog.Logger
}

// NewGoogleRecognizer creates a recognizer. With no options, Application
// Default Credentials are used.
func NewGoogleRecognizer(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*GoogleRecognizer, error) {
	srv, err := speechapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Speech service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleRecognizer{service: srv, logger: logger}, nil
}

// Name returns the vendor name
func (g *GoogleRecognizer) Name() string {
	return types.VendorGoogle
}

// Submit starts a LongRunningRecognize call reading audio from Cloud Storage
func (g *GoogleRecognizer) Submit(ctx context.Context, cfg types.RecognitionConfig, locator string) (types.Operation, error) {
	if !strings.HasPrefix(locator, "gs://") {
		return types.Operation{}, fmt.Errorf("recognizer can only read gs:// locators, got %q", locator)
	}

	req := &speechapi.LongRunningRecognizeRequest{
		Config: &speechapi.RecognitionConfig{
			Encoding:              cfg.Encoding,
			SampleRateHertz:       int64(cfg.SampleRateHz),
			AudioChannelCount:     int64(cfg.ChannelCount),
			LanguageCode:          cfg.LanguageCode,
			ProfanityFilter:       cfg.ProfanityFilter,
			EnableWordTimeOffsets: cfg.WordTimeOffsets,
			Model:                 string(cfg.Model),
		},
		Audio: &speechapi.RecognitionAudio{
			Uri: locator,
		},
	}

	op, err := g.service.Speech.Longrunningrecognize(req).Context(ctx).Do()
	if err != nil {
		return types.Operation{}, fmt.Errorf("longrunningrecognize: %w", err)
	}

	g.logger.Debug("google operation created", "operation", op.Name, "model", cfg.Model)
	return types.Operation{
		Name:        op.Name,
		State:       types.OperationSubmitted,
		SubmittedAt: time.Now(),
	}, nil
}

// Poll fetches the operation and decodes its response once done
func (g *GoogleRecognizer) Poll(ctx context.Context, op types.Operation) (types.PollResult, error) {
	remote, err := g.service.Operations.Get(op.Name).Context(ctx).Do()
	if err != nil {
		return types.PollResult{}, fmt.Errorf("get operation %s: %w", op.Name, err)
	}
	if !remote.Done {
		return types.PollResult{}, nil
	}

	if remote.Error != nil {
		msg := remote.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("recognition failed with code %d", remote.Error.Code)
		}
		return types.PollResult{Done: true, ErrorMessage: msg}, nil
	}

	var resp speechapi.LongRunningRecognizeResponse
	if len(remote.Response) > 0 {
		if err := json.Unmarshal(remote.Response, &resp); err != nil {
			return types.PollResult{}, fmt.Errorf("decode recognize response: %w", err)
		}
	}

	segments, err := convertResults(resp.Results)
	if err != nil {
		return types.PollResult{}, err
	}
	return types.PollResult{Done: true, Segments: segments}, nil
}

func convertResults(results []*speechapi.SpeechRecognitionResult) ([]types.RecognizedSegment, error) {
	segments := make([]types.RecognizedSegment, 0, len(results))
	for _, result := range results {
		if result == nil {
			segments = append(segments, types.RecognizedSegment{})
			continue
		}

		alternatives := make([]types.Alternative, 0, len(result.Alternatives))
		for _, alt := range result.Alternatives {
			if alt == nil {
				continue
			}
			words := make([]types.WordTiming, 0, len(alt.Words))
			for _, w := range alt.Words {
				if w == nil {
					continue
				}
				start, err := parseOffset(w.StartTime)
				if err != nil {
					return nil, err
				}
				end, err := parseOffset(w.EndTime)
				if err != nil {
					return nil, err
				}
				words = append(words, types.WordTiming{
					Word:         w.Word,
					StartSeconds: start,
					EndSeconds:   end,
				})
			}
			alternatives = append(alternatives, types.Alternative{
				Transcript: alt.Transcript,
				Confidence: alt.Confidence,
				Words:      words,
			})
		}
		segments = append(segments, types.RecognizedSegment{Alternatives: alternatives})
	}
	return segments, nil
}

// parseOffset converts a protobuf JSON duration such as "1.300s" to seconds
func parseOffset(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid word offset %q: %w", s, err)
	}
	return d.Seconds(), nil
}
