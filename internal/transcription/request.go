package transcription

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// DefaultLanguage is used when neither the caller nor config names one
const DefaultLanguage = "en-US"

// Options are the caller-selected recognition options.
// SampleRateHz and ChannelCount are accepted from callers but never used:
// the recognizer is always configured with the measured values.
type Options struct {
	Model        types.Model
	LanguageCode string
	SampleRateHz int
	ChannelCount int
}

// ParseModel validates a model selector. An empty selector means the default model.
func ParseModel(s string) (types.Model, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return types.ModelDefault, nil
	}
	for _, m := range types.Models {
		if string(m) == s {
			return m, nil
		}
	}
	return "", newError(KindInvalidModel, StageConfigured, fmt.Sprintf("unknown model %q", s), nil)
}

// BuildConfig turns a measured asset and caller options into a recognition
// request and the locator the recognizer should read the audio from
func BuildConfig(asset types.AudioAsset, opts Options, logger *slog.Logger) (types.RecognitionConfig, string, error) {
	model, err := ParseModel(string(opts.Model))
	if err != nil {
		return types.RecognitionConfig{}, "", err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if opts.SampleRateHz != 0 && opts.SampleRateHz != asset.Params.SampleRateHz {
		logger.Debug("ignoring sample rate override",
			"asset_id", asset.ID, "override", opts.SampleRateHz, "measured", asset.Params.SampleRateHz)
	}
	if opts.ChannelCount != 0 && opts.ChannelCount != asset.Params.ChannelCount {
		logger.Debug("ignoring channel count override",
			"asset_id", asset.ID, "override", opts.ChannelCount, "measured", asset.Params.ChannelCount)
	}

	language := strings.TrimSpace(opts.LanguageCode)
	if language == "" {
		language = DefaultLanguage
	}

	cfg := types.RecognitionConfig{
		Encoding:        types.EncodingLinear16,
		SampleRateHz:    asset.Params.SampleRateHz,
		ChannelCount:    asset.Params.ChannelCount,
		LanguageCode:    language,
		ProfanityFilter: true,
		WordTimeOffsets: true,
		Model:           model,
	}
	return cfg, asset.Locator, nil
}
