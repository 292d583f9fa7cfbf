package transcription

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE
)

// KSDATAFORMAT_SUBTYPE_PCM, little-endian GUID layout
var pcmSubFormat = []byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// InspectAudio parses a RIFF/WAVE linear PCM header and measures the audio.
// Duration is derived from the data chunk size, never read from metadata.
func InspectAudio(data []byte) (types.AudioParams, error) {
	if len(data) < 12 {
		return types.AudioParams{}, malformed("file too short for a RIFF header")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return types.AudioParams{}, malformed("not a RIFF/WAVE container")
	}

	var (
		fmtFound      bool
		channels      int
		sampleRate    int
		blockAlign    int
		bitsPerSample int
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int64(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || int64(body)+size > int64(len(data)) {
				return types.AudioParams{}, malformed("truncated fmt chunk")
			}
			chunk := data[body : body+int(size)]
			format := binary.LittleEndian.Uint16(chunk[0:2])
			channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			blockAlign = int(binary.LittleEndian.Uint16(chunk[12:14]))
			bitsPerSample = int(binary.LittleEndian.Uint16(chunk[14:16]))

			if format == wavFormatExtensible {
				if size < 40 || !bytes.Equal(chunk[24:40], pcmSubFormat) {
					return types.AudioParams{}, malformed("unsupported extensible sub-format")
				}
			} else if format != wavFormatPCM {
				return types.AudioParams{}, malformed(fmt.Sprintf("unsupported encoding 0x%04x", format))
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return types.AudioParams{}, malformed("data chunk before fmt chunk")
			}
			if err := validateFormat(channels, sampleRate, blockAlign, bitsPerSample); err != nil {
				return types.AudioParams{}, err
			}
			// Streamed WAVs may declare more data than was written.
			available := int64(len(data) - body)
			if size > available {
				size = available
			}
			// Samples across all channels; a trailing partial block is dropped.
			frames := (size / int64(blockAlign)) * int64(channels)

			return types.AudioParams{
				ChannelCount:    channels,
				SampleRateHz:    sampleRate,
				FrameCount:      frames,
				BitsPerSample:   bitsPerSample,
				DurationSeconds: float64(frames) / float64(sampleRate*channels),
			}, nil
		}

		next := int64(body) + size + size%2
		if next > int64(len(data)) {
			break
		}
		pos = int(next)
	}

	if !fmtFound {
		return types.AudioParams{}, malformed("missing fmt chunk")
	}
	return types.AudioParams{}, malformed("missing data chunk")
}

func validateFormat(channels, sampleRate, blockAlign, bitsPerSample int) error {
	if channels < 1 {
		return malformed("channel count must be at least 1")
	}
	if sampleRate <= 0 {
		return malformed("sample rate must be positive")
	}
	// The recognizer is always configured for LINEAR16.
	if bitsPerSample != 16 {
		return malformed(fmt.Sprintf("unsupported bits per sample %d, expected 16-bit PCM", bitsPerSample))
	}
	if blockAlign != channels*bitsPerSample/8 {
		return malformed(fmt.Sprintf("block align %d does not match %d channels of %d bits",
			blockAlign, channels, bitsPerSample))
	}
	return nil
}

func malformed(message string) error {
	return newError(KindMalformedAudio, StageInspected, message, nil)
}

// ValidateAudioFormat checks if the upload's extension is a container the
// recognizer is configured for
func ValidateAudioFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	supportedFormats := []string{".wav", ".wave"}

	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// NormalizeAudio converts any audio file to 16kHz mono LINEAR16 WAV
func NormalizeAudio(ctx context.Context, inputPath, outputDir string) (string, error) {
	outputPath := filepath.Join(outputDir, fmt.Sprintf("normalized_%s.wav", uuid.New().String()))

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // Mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(output))
	}

	return outputPath, nil
}
