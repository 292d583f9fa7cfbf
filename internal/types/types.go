package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceUpload = "upload"
	SourceStream = "stream"
	SourceGDrive = "gdrive"
)

// VendorGoogle names the recognition backend recorded on transcripts
const VendorGoogle = "google"

// BlobRef describes one object held by a blob store
type BlobRef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Locator     string    `json:"locator"`
	SelfLink    string    `json:"self_link,omitempty"`
	MediaLink   string    `json:"media_link,omitempty"`
	PublicURL   string    `json:"public_url"`
	UpdatedAt   time.Time `json:"updated_time"`
}

// AudioParams holds the physical parameters measured from a PCM container.
// FrameCount counts samples across all channels.
type AudioParams struct {
	ChannelCount    int     `json:"channel_count"`
	SampleRateHz    int     `json:"sample_rate_hz"`
	FrameCount      int64   `json:"frame_count"`
	BitsPerSample   int     `json:"bits_per_sample"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// AudioAsset is one stored upload together with its measured parameters
type AudioAsset struct {
	ID        string      `json:"id"`
	Filename  string      `json:"filename"`
	Size      int64       `json:"size"`
	Locator   string      `json:"locator"`
	PublicURL string      `json:"public_url"`
	Params    AudioParams `json:"params"`
}

// WordTiming is the offset of one recognized word, in seconds
type WordTiming struct {
	Word         string  `json:"word"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// TranscriptSegment is the best alternative of one recognizer result chunk
type TranscriptSegment struct {
	Index      int          `json:"index"`
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Words      []WordTiming `json:"words"`
}

// Transcript is the assembled result of one transcription request
type Transcript struct {
	AssetID   string              `json:"asset_id"`
	Filename  string              `json:"filename"`
	PublicURL string              `json:"public_url"`
	Locator   string              `json:"locator"`
	Audio     AudioParams         `json:"audio"`
	Vendor    string              `json:"vendor"`
	Model     Model               `json:"model"`
	Language  string              `json:"language"`
	FullText  string              `json:"full_transcript"`
	Segments  []TranscriptSegment `json:"segments"`
	CreatedAt time.Time           `json:"created_at"`
}

// WordCount returns the number of timed words across all segments
func (t *Transcript) WordCount() int {
	n := 0
	for _, seg := range t.Segments {
		n += len(seg.Words)
	}
	return n
}
