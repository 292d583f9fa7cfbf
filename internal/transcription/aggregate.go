package transcription

import (
	"log/slog"
	"strings"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// Aggregate assembles recognizer result chunks into ordered transcript
// segments and the full transcript text.
//
// Only the first (best) alternative of each chunk is kept. A chunk with no
// alternatives is treated as silence and skipped.
func Aggregate(results []types.RecognizedSegment, logger *slog.Logger) ([]types.TranscriptSegment, string) {
	if logger == nil {
		logger = slog.Default()
	}

	segments := make([]types.TranscriptSegment, 0, len(results))
	var full strings.Builder

	for i, result := range results {
		if len(result.Alternatives) == 0 {
			logger.Debug("skipping segment without alternatives", "segment", i)
			continue
		}
		best := result.Alternatives[0]

		words := make([]types.WordTiming, len(best.Words))
		copy(words, best.Words)
		checkWordOrder(i, words, logger)

		segments = append(segments, types.TranscriptSegment{
			Index:      len(segments),
			Text:       best.Transcript,
			Confidence: best.Confidence,
			Words:      words,
		})
		full.WriteString(best.Transcript)
	}

	return segments, full.String()
}

// checkWordOrder reports timing violations. Offsets are never rewritten.
func checkWordOrder(segment int, words []types.WordTiming, logger *slog.Logger) {
	for j, w := range words {
		if w.StartSeconds > w.EndSeconds {
			logger.Warn("word ends before it starts",
				"segment", segment, "word", j, "start", w.StartSeconds, "end", w.EndSeconds)
		}
		if j > 0 && w.StartSeconds < words[j-1].StartSeconds {
			logger.Warn("word starts before previous word",
				"segment", segment, "word", j, "start", w.StartSeconds, "previous", words[j-1].StartSeconds)
		}
	}
}
