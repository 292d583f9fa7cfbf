package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/bootstrap"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/cleanup"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/config"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/handlers"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/logging"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/queue"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/storage"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logBuffer := logging.NewLogBuffer(logging.DefaultBufferLines)
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Extra:  []io.Writer{logBuffer},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	slog.SetDefault(logger)

	if err := run(cfg, logger, logBuffer); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, logBuffer *logging.LogBuffer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("initializing components", "storage", cfg.Storage.Backend, "bucket", cfg.Storage.Bucket)

	store, err := bootstrap.NewBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	pipeline, err := bootstrap.NewPipeline(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Database), 0755); err != nil {
		return err
	}
	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Google Drive archive is optional
	var archiver queue.Archiver
	if cfg.GoogleDrive.Enabled {
		driveClient, err := storage.NewDriveClient(ctx,
			cfg.GoogleDrive.CredentialsFile,
			cfg.GoogleDrive.TokenFile,
			cfg.GoogleDrive.FolderName,
			false,
		)
		if err != nil {
			logger.Warn("Google Drive not available, transcripts will only be indexed locally", "error", err)
		} else {
			archiver = driveClient
			logger.Info("Google Drive archive enabled", "folder", cfg.GoogleDrive.FolderName)
		}
	}

	workerPool := queue.NewWorkerPool(cfg.Workers.Count, cfg.Workers.QueueSize, pipeline, db, archiver, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	if local, ok := store.(*storage.LocalStore); ok {
		cleanupScheduler := cleanup.NewScheduler(local.Dir(), cfg.Cleanup.IntervalMinutes, cfg.Cleanup.MaxAgeHours, logger)
		cleanupScheduler.Start()
		defer cleanupScheduler.Stop()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.MaxFileSize() + 1024*1024,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	maxMB := cfg.Limits.MaxFileSizeMB
	handlers.Register(app, handlers.Routes{
		Upload:      handlers.NewUploadHandler(store, maxMB, logger),
		Transcribe:  handlers.NewTranscribeHandler(pipeline, db, workerPool, maxMB, logger),
		Transcripts: handlers.NewTranscriptsHandler(db, logger),
		Stream:      handlers.NewStreamHandler(workerPool, maxMB, logger),
		GDrive:      handlers.NewGDriveHandler(workerPool, maxMB, logger),
		Logs:        logBuffer.GetLogs,
		Version:     version,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down gracefully")
		if err := app.Shutdown(); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Addr(), "recognition_timeout", cfg.RecognitionTimeout())
	return app.Listen(cfg.Addr())
}
