package transcription

import (
	"strings"
	"testing"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/logging"
	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

func TestAggregateConcatenatesSegments(t *testing.T) {
	results := []types.RecognizedSegment{
		segment("hello world", 0.92, types.WordTiming{Word: "hello", StartSeconds: 0, EndSeconds: 0.4}),
		segment(" how are you", 0.81),
		segment(" today", 0.77),
	}

	segments, full := Aggregate(results, logging.Discard())

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	var joined strings.Builder
	for i, seg := range segments {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
		joined.WriteString(seg.Text)
	}
	if full != joined.String() {
		t.Fatalf("full text %q is not the concatenation %q", full, joined.String())
	}
	if full != "hello world how are you today" {
		t.Fatalf("unexpected full text %q", full)
	}
}

func TestAggregateSkipsEmptyAndKeepsFirstAlternative(t *testing.T) {
	results := []types.RecognizedSegment{
		{Alternatives: []types.Alternative{
			{Transcript: "first", Confidence: 0.9},
			{Transcript: "worst", Confidence: 0.4},
		}},
		{},
		segment(" third", 0.7),
	}

	segments, full := Aggregate(results, logging.Discard())

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "first" || segments[1].Text != " third" {
		t.Fatalf("unexpected order %+v", segments)
	}
	if segments[1].Index != 1 {
		t.Fatalf("expected dense indices, got %d", segments[1].Index)
	}
	if full != "first third" {
		t.Fatalf("unexpected full text %q", full)
	}
}

func TestAggregateCopiesWords(t *testing.T) {
	words := []types.WordTiming{{Word: "hi", StartSeconds: 0.1, EndSeconds: 0.3}}
	segments, _ := Aggregate([]types.RecognizedSegment{segment("hi", 1, words...)}, nil)

	words[0].Word = "changed"
	if segments[0].Words[0].Word != "hi" {
		t.Fatalf("aggregate shares word storage with its input")
	}
}

func TestAggregateKeepsOutOfOrderOffsets(t *testing.T) {
	words := []types.WordTiming{
		{Word: "b", StartSeconds: 1.0, EndSeconds: 0.5},
		{Word: "a", StartSeconds: 0.2, EndSeconds: 0.4},
	}
	segments, _ := Aggregate([]types.RecognizedSegment{segment("b a", 1, words...)}, logging.Discard())

	got := segments[0].Words
	if got[0].StartSeconds != 1.0 || got[0].EndSeconds != 0.5 || got[1].StartSeconds != 0.2 {
		t.Fatalf("offsets were rewritten: %+v", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	segments, full := Aggregate(nil, logging.Discard())
	if len(segments) != 0 || full != "" {
		t.Fatalf("expected empty transcript, got %d segments and %q", len(segments), full)
	}
}
