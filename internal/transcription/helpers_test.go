package transcription

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// riff wraps chunks in a RIFF/WAVE container
func riff(chunks ...[]byte) []byte {
	var body []byte
	body = append(body, "WAVE"...)
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := append([]byte("RIFF"), le32(uint32(len(body)))...)
	return append(out, body...)
}

// chunk encodes a chunk with its true size, padded to an even length
func chunk(id string, body []byte) []byte {
	return rawChunk(id, uint32(len(body)), body)
}

// rawChunk encodes a chunk whose header may lie about its size
func rawChunk(id string, declared uint32, body []byte) []byte {
	out := append([]byte(id), le32(declared)...)
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func fmtBody(format uint16, channels, rate, bits int) []byte {
	blockAlign := channels * bits / 8
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b[0:2], format)
	binary.LittleEndian.PutUint16(b[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(b[4:8], uint32(rate))
	binary.LittleEndian.PutUint32(b[8:12], uint32(rate*blockAlign))
	binary.LittleEndian.PutUint16(b[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(b[14:16], uint16(bits))
	return b
}

func extensibleFmtBody(channels, rate, bits int, subFormat []byte) []byte {
	b := fmtBody(wavFormatExtensible, channels, rate, bits)
	ext := make([]byte, 24)
	binary.LittleEndian.PutUint16(ext[0:2], 22)
	binary.LittleEndian.PutUint16(ext[2:4], uint16(bits))
	binary.LittleEndian.PutUint32(ext[4:8], 0x4)
	copy(ext[8:24], subFormat)
	return append(b, ext...)
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// pcmWAV builds a linear PCM WAV holding seconds of silence
func pcmWAV(channels, rate, bits int, seconds float64) []byte {
	size := int(float64(rate*channels*bits/8) * seconds)
	return riff(
		chunk("fmt ", fmtBody(wavFormatPCM, channels, rate, bits)),
		chunk("data", make([]byte, size)),
	)
}

// fakeRecognizer scripts Submit and Poll responses
type fakeRecognizer struct {
	mu        sync.Mutex
	submitErr error
	poll      func(n int) (types.PollResult, error)
	polls     int
	submitted []types.RecognitionConfig
	locators  []string
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Submit(ctx context.Context, cfg types.RecognitionConfig, locator string) (types.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return types.Operation{}, f.submitErr
	}
	f.submitted = append(f.submitted, cfg)
	f.locators = append(f.locators, locator)
	return types.Operation{Name: "operations/fake-1"}, nil
}

func (f *fakeRecognizer) Poll(ctx context.Context, op types.Operation) (types.PollResult, error) {
	if err := ctx.Err(); err != nil {
		return types.PollResult{}, err
	}
	f.mu.Lock()
	f.polls++
	n := f.polls
	poll := f.poll
	f.mu.Unlock()
	if poll == nil {
		return types.PollResult{Done: true}, nil
	}
	return poll(n)
}

func (f *fakeRecognizer) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *fakeRecognizer) lastConfig() (types.RecognitionConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.submitted) == 0 {
		return types.RecognitionConfig{}, false
	}
	return f.submitted[len(f.submitted)-1], true
}

func neverDone(int) (types.PollResult, error) {
	return types.PollResult{}, nil
}

func segment(text string, confidence float64, words ...types.WordTiming) types.RecognizedSegment {
	return types.RecognizedSegment{Alternatives: []types.Alternative{{
		Transcript: text,
		Confidence: confidence,
		Words:      words,
	}}}
}
