package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/bootstrap"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/config"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/logging"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/storage"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/transcription"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Inspect, upload and transcribe LINEAR16 WAV recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInspectCommand(opts),
		newTranscribeCommand(opts),
		newListCommand(opts),
		newTranscriptsCommand(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Options{Level: o.logLevel, Format: "text"})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newInspectCommand(root *rootOptions) *cobra.Command {
	var stored bool
	cmd := &cobra.Command{
		Use:   "inspect <file.wav | blob name>",
		Short: "Print the measured audio parameters of a WAV file or stored blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if stored {
				data, err = readStoredBlob(cmd, root, args[0])
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			params, err := transcription.InspectAudio(data)
			if err != nil {
				return err
			}
			renderParams(cmd.OutOrStdout(), filepath.Base(args[0]), int64(len(data)), params)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stored, "stored", false, "read the named blob from the configured store instead of a local file")
	return cmd
}

func readStoredBlob(cmd *cobra.Command, root *rootOptions, name string) ([]byte, error) {
	cfg, _, err := root.load()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := bootstrap.NewBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, name)
}

func newTranscribeCommand(root *rootOptions) *cobra.Command {
	var (
		model     string
		language  string
		normalize bool
		timeout   time.Duration
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Upload a recording and run long-running recognition on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.Recognition.TimeoutSeconds = max(1, int(timeout.Round(time.Second)/time.Second))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			path := args[0]
			if !normalize && !transcription.ValidateAudioFormat(path) {
				logger.Warn("file does not look like WAV; consider --normalize", "file", path)
			}
			if normalize {
				tmpDir, err := os.MkdirTemp("", "scribe-")
				if err != nil {
					return err
				}
				defer os.RemoveAll(tmpDir)
				path, err = transcription.NormalizeAudio(ctx, path, tmpDir)
				if err != nil {
					return err
				}
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			store, err := bootstrap.NewBlobStore(ctx, cfg)
			if err != nil {
				return err
			}
			pipeline, err := bootstrap.NewPipeline(ctx, cfg, store, logger)
			if err != nil {
				return err
			}

			transcript, err := pipeline.Transcribe(ctx, transcription.TranscribeRequest{
				Filename:     filepath.Base(args[0]),
				Data:         data,
				Model:        model,
				LanguageCode: language,
			})
			if err != nil {
				_, code, message := transcription.Classify(err)
				return fmt.Errorf("%s: %s", code, message)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(transcript)
			}
			renderTranscript(out, transcript)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "default", "recognition model")
	cmd.Flags().StringVar(&language, "language", "", "BCP-47 language code (defaults to config)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "convert to 16kHz mono LINEAR16 with ffmpeg first")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "recognition wait budget (defaults to config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the transcript as JSON")
	return cmd
}

func newListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := bootstrap.NewBlobStore(ctx, cfg)
			if err != nil {
				return err
			}
			refs, err := store.List(ctx)
			if err != nil {
				return err
			}
			renderBlobs(cmd.OutOrStdout(), refs)
			return nil
		},
	}
}

func newTranscriptsCommand(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List indexed transcripts and job status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			db, err := storage.NewMetadataDB(cfg.Storage.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			records, err := db.ListTranscripts(limit)
			if err != nil {
				return err
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderParams(out io.Writer, name string, size int64, p types.AudioParams) {
	t := newTable(out)
	t.SetTitle(name)
	t.AppendRows([]table.Row{
		{"Bytes", size},
		{"Channels", p.ChannelCount},
		{"Sample rate (Hz)", p.SampleRateHz},
		{"Bits per sample", p.BitsPerSample},
		{"Frames", p.FrameCount},
		{"Duration (s)", fmt.Sprintf("%.3f", p.DurationSeconds)},
	})
	t.Render()
}

func renderTranscript(out io.Writer, tr *types.Transcript) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s (%s/%s, %.2fs)", tr.Filename, tr.Vendor, tr.Model, tr.Audio.DurationSeconds))
	t.AppendHeader(table.Row{"#", "Start", "End", "Confidence", "Text"})
	for _, seg := range tr.Segments {
		start, end := "", ""
		if n := len(seg.Words); n > 0 {
			start = fmt.Sprintf("%.2f", seg.Words[0].StartSeconds)
			end = fmt.Sprintf("%.2f", seg.Words[n-1].EndSeconds)
		}
		t.AppendRow(table.Row{seg.Index, start, end, fmt.Sprintf("%.2f", seg.Confidence), seg.Text})
	}
	t.AppendFooter(table.Row{"", "", "", "Words", tr.WordCount()})
	t.Render()
	fmt.Fprintln(out, tr.FullText)
}

func renderBlobs(out io.Writer, refs []types.BlobRef) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "Size", "Updated", "Locator"})
	for _, ref := range refs {
		t.AppendRow(table.Row{ref.Name, ref.Size, ref.UpdatedAt.Format(time.RFC3339), ref.Locator})
	}
	t.Render()
}

func renderRecords(out io.Writer, records []*storage.TranscriptRecord) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Job", "File", "Source", "Model", "Status", "Duration", "Words", "Error"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.JobID, rec.Filename, rec.SourceType, rec.Model, rec.Status,
			fmt.Sprintf("%.2f", rec.Duration), rec.WordCount, rec.ErrorCode,
		})
	}
	t.Render()
}
