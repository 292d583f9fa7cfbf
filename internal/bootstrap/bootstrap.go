// Package bootstrap builds the process-wide service handles shared by the
// server and the CLI. Each handle is constructed once at startup and shared
// read-only across requests.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/config"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/speech"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/storage"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
)

// ClientOptions returns the Google client options for cfg
func ClientOptions(cfg *config.Config) []option.ClientOption {
	if cfg.Google.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.Google.CredentialsFile)}
}

// NewBlobStore creates the configured blob store
func NewBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
	case "gcs":
		return storage.NewGCSStore(ctx, cfg.Storage.Bucket, ClientOptions(cfg)...)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// NewPipeline creates the recognizer, operation manager and orchestrator
func NewPipeline(ctx context.Context, cfg *config.Config, store storage.BlobStore, logger *slog.Logger) (*transcription.Pipeline, error) {
	recognizer, err := speech.NewGoogleRecognizer(ctx, logger, ClientOptions(cfg)...)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == "local" {
		logger.Warn("local blob store locators are not readable by Google Speech; submissions will be rejected")
	}

	manager := transcription.NewOperationManager(recognizer, cfg.RecognitionTimeout(), cfg.PollInterval(), logger)
	return transcription.NewPipeline(store, manager, cfg.Recognition.Language, logger), nil
}
