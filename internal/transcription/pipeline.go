package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// Stage is a step of one transcription request
type Stage string

const (
	StageReceived   Stage = "RECEIVED"
	StageStored     Stage = "STORED"
	StageInspected  Stage = "INSPECTED"
	StageConfigured Stage = "CONFIGURED"
	StageSubmitted  Stage = "SUBMITTED"
	StageAwaiting   Stage = "AWAITING"
	StageAggregated Stage = "AGGREGATED"
	StageFailed     Stage = "FAILED"
)

// BlobWriter persists uploaded audio where the recognizer can read it
type BlobWriter interface {
	Put(ctx context.Context, name string, data []byte) (types.BlobRef, error)
}

// TranscribeRequest is one uploaded file plus caller options
type TranscribeRequest struct {
	ID           string
	Filename     string
	Data         []byte
	Model        string
	LanguageCode string
	SampleRateHz int
	ChannelCount int
}

// Pipeline sequences store, inspect, configure, recognize and aggregate.
// It holds only long-lived handles and is safe for concurrent use.
type Pipeline struct {
	store           BlobWriter
	operations      *OperationManager
	defaultLanguage string
	logger          *slog.Logger
}

// NewPipeline wires the process-wide store and operation manager
func NewPipeline(store BlobWriter, operations *OperationManager, defaultLanguage string, logger *slog.Logger) *Pipeline {
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:           store,
		operations:      operations,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// run tracks the state of one request
type run struct {
	id     string
	stage  Stage
	logger *slog.Logger
}

func (r *run) advance(stage Stage) {
	r.logger.Debug("pipeline stage", "from", r.stage, "to", stage)
	r.stage = stage
}

func (r *run) fail(err error) error {
	r.logger.Warn("pipeline failed", "stage", r.stage, "error", err)
	r.stage = StageFailed
	return err
}

// Transcribe runs one upload through the pipeline. Each stage runs at most
// once and the first error ends the request.
func (p *Pipeline) Transcribe(ctx context.Context, req TranscribeRequest) (*types.Transcript, error) {
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	r := &run{id: id, stage: StageReceived, logger: p.logger.With("request_id", id)}
	r.logger.Info("transcription received", "filename", req.Filename, "bytes", len(req.Data))

	// Validated before anything is written.
	model, err := ParseModel(req.Model)
	if err != nil {
		return nil, r.fail(err)
	}

	ref, err := p.store.Put(ctx, blobName(id, req.Filename), req.Data)
	if err != nil {
		return nil, r.fail(newError(KindStorage, StageStored, "failed to store audio", err))
	}
	r.advance(StageStored)

	params, err := InspectAudio(req.Data)
	if err != nil {
		return nil, r.fail(err)
	}
	asset := types.AudioAsset{
		ID:        id,
		Filename:  req.Filename,
		Size:      int64(len(req.Data)),
		Locator:   ref.Locator,
		PublicURL: ref.PublicURL,
		Params:    params,
	}
	r.advance(StageInspected)
	r.logger.Info("audio inspected",
		"channels", params.ChannelCount,
		"sample_rate_hz", params.SampleRateHz,
		"duration_seconds", params.DurationSeconds)

	language := req.LanguageCode
	if strings.TrimSpace(language) == "" {
		language = p.defaultLanguage
	}
	cfg, locator, err := BuildConfig(asset, Options{
		Model:        model,
		LanguageCode: language,
		SampleRateHz: req.SampleRateHz,
		ChannelCount: req.ChannelCount,
	}, r.logger)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StageConfigured)

	op, err := p.operations.Submit(ctx, cfg, locator)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StageSubmitted)

	r.advance(StageAwaiting)
	results, err := p.operations.Await(ctx, op)
	if err != nil {
		return nil, r.fail(err)
	}

	segments, full := Aggregate(results, r.logger)
	r.advance(StageAggregated)

	transcript := &types.Transcript{
		AssetID:   asset.ID,
		Filename:  asset.Filename,
		PublicURL: asset.PublicURL,
		Locator:   asset.Locator,
		Audio:     asset.Params,
		Vendor:    p.operations.Vendor(),
		Model:     cfg.Model,
		Language:  cfg.LanguageCode,
		FullText:  full,
		Segments:  segments,
		CreatedAt: time.Now().UTC(),
	}
	r.logger.Info("transcription completed", "segments", len(segments), "words", transcript.WordCount())
	return transcript, nil
}

func blobName(id, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "audio.wav"
	}
	return fmt.Sprintf("%s_%s", id, base)
}
