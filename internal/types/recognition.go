package types

import "time"

// Model selects the recognizer model variant
type Model string

const (
	ModelDefault          Model = "default"
	ModelVideo            Model = "video"
	ModelPhoneCall        Model = "phone_call"
	ModelCommandAndSearch Model = "command_and_search"
	ModelLatestLong       Model = "latest_long"
	ModelLatestShort      Model = "latest_short"
)

// Models lists every supported model selector
var Models = []Model{
	ModelDefault,
	ModelVideo,
	ModelPhoneCall,
	ModelCommandAndSearch,
	ModelLatestLong,
	ModelLatestShort,
}

// EncodingLinear16 is the only encoding the pipeline submits
const EncodingLinear16 = "LINEAR16"

// RecognitionConfig is the request sent to the recognizer for one asset
type RecognitionConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHz    int    `json:"sample_rate_hz"`
	ChannelCount    int    `json:"channel_count"`
	LanguageCode    string `json:"language_code"`
	ProfanityFilter bool   `json:"profanity_filter"`
	WordTimeOffsets bool   `json:"word_time_offsets"`
	Model           Model  `json:"model"`
}

// OperationState is the lifecycle state of a recognition operation
type OperationState string

const (
	OperationSubmitted OperationState = "SUBMITTED"
	OperationRunning   OperationState = "RUNNING"
	OperationSucceeded OperationState = "SUCCEEDED"
	OperationFailed    OperationState = "FAILED"
	OperationTimedOut  OperationState = "TIMED_OUT"
)

// Terminal reports whether no further transitions are possible
func (s OperationState) Terminal() bool {
	switch s {
	case OperationSucceeded, OperationFailed, OperationTimedOut:
		return true
	}
	return false
}

// Operation is a handle on a submitted recognition job
type Operation struct {
	Name        string
	State       OperationState
	SubmittedAt time.Time
}

// Alternative is one ranked hypothesis for a recognized segment
type Alternative struct {
	Transcript string
	Confidence float64
	Words      []WordTiming
}

// RecognizedSegment is one result chunk as returned by the recognizer
type RecognizedSegment struct {
	Alternatives []Alternative
}

// PollResult is a snapshot of a recognition operation
type PollResult struct {
	Done         bool
	Segments     []RecognizedSegment
	ErrorMessage string
}
