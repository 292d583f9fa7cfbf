package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// ErrTranscriptNotFound is returned when no record has the given job ID
var ErrTranscriptNotFound = errors.New("transcript not found")

// TranscriptRecord is one row of the transcript index
type TranscriptRecord struct {
	JobID        string            `json:"job_id"`
	Filename     string            `json:"filename"`
	SourceType   string            `json:"source_type"`
	Model        string            `json:"model"`
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	ErrorCode    string            `json:"error_code,omitempty"`
	Duration     float64           `json:"duration_seconds"`
	WordCount    int               `json:"word_count"`
	SegmentCount int               `json:"segment_count"`
	Locator      string            `json:"locator,omitempty"`
	PublicURL    string            `json:"public_url,omitempty"`
	GDriveURL    string            `json:"gdrive_url,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Transcript   *types.Transcript `json:"transcript,omitempty"`
}

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and migrates) the transcript index at dbPath.
// Use ":memory:" for an ephemeral index.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL,
		source_type TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		error_code TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		segment_count INTEGER NOT NULL DEFAULT 0,
		locator TEXT NOT NULL DEFAULT '',
		public_url TEXT NOT NULL DEFAULT '',
		gdrive_url TEXT NOT NULL DEFAULT '',
		transcript_json TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON transcripts(created_at);
	CREATE INDEX IF NOT EXISTS idx_status ON transcripts(status);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// CreateJob records a queued transcription
func (mdb *MetadataDB) CreateJob(jobID, filename, sourceType, model string) error {
	now := time.Now().UTC()
	query := `
	INSERT INTO transcripts (job_id, filename, source_type, model, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := mdb.db.Exec(query, jobID, filename, sourceType, model, types.StatusQueued, now, now); err != nil {
		return fmt.Errorf("failed to create job %s: %w", jobID, err)
	}
	return nil
}

// MarkProcessing moves a job to PROCESSING
func (mdb *MetadataDB) MarkProcessing(jobID string) error {
	return mdb.update(jobID, `UPDATE transcripts SET status = ?, updated_at = ? WHERE job_id = ?`,
		types.StatusProcessing, time.Now().UTC(), jobID)
}

// CompleteJob stores the finished transcript
func (mdb *MetadataDB) CompleteJob(jobID string, t *types.Transcript) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	query := `
	UPDATE transcripts
	SET status = ?, model = ?, duration = ?, word_count = ?, segment_count = ?,
		locator = ?, public_url = ?, transcript_json = ?, error = '', error_code = '', updated_at = ?
	WHERE job_id = ?
	`
	return mdb.update(jobID, query,
		types.StatusCompleted, string(t.Model), t.Audio.DurationSeconds, t.WordCount(), len(t.Segments),
		t.Locator, t.PublicURL, string(payload), time.Now().UTC(), jobID)
}

// FailJob records a classified failure
func (mdb *MetadataDB) FailJob(jobID, code, message string) error {
	return mdb.update(jobID, `UPDATE transcripts SET status = ?, error = ?, error_code = ?, updated_at = ? WHERE job_id = ?`,
		types.StatusFailed, message, code, time.Now().UTC(), jobID)
}

// SetDriveURL records where the transcript was archived
func (mdb *MetadataDB) SetDriveURL(jobID, driveURL string) error {
	return mdb.update(jobID, `UPDATE transcripts SET gdrive_url = ?, updated_at = ? WHERE job_id = ?`,
		driveURL, time.Now().UTC(), jobID)
}

func (mdb *MetadataDB) update(jobID, query string, args ...any) error {
	res, err := mdb.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrTranscriptNotFound, jobID)
	}
	return nil
}

const selectColumns = `job_id, filename, source_type, model, status, error, error_code, duration,
	word_count, segment_count, locator, public_url, gdrive_url, transcript_json, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, withTranscript bool) (*TranscriptRecord, error) {
	var (
		rec     TranscriptRecord
		payload string
	)
	err := row.Scan(&rec.JobID, &rec.Filename, &rec.SourceType, &rec.Model, &rec.Status, &rec.Error,
		&rec.ErrorCode, &rec.Duration, &rec.WordCount, &rec.SegmentCount, &rec.Locator, &rec.PublicURL,
		&rec.GDriveURL, &payload, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if withTranscript && payload != "" {
		var t types.Transcript
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("failed to decode transcript %s: %w", rec.JobID, err)
		}
		rec.Transcript = &t
	}
	return &rec, nil
}

// GetTranscript retrieves a record, including the transcript, by job ID
func (mdb *MetadataDB) GetTranscript(jobID string) (*TranscriptRecord, error) {
	row := mdb.db.QueryRow(`SELECT `+selectColumns+` FROM transcripts WHERE job_id = ?`, jobID)
	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return rec, nil
}

// ListTranscripts returns the newest records first, without transcript bodies
func (mdb *MetadataDB) ListTranscripts(limit int) ([]*TranscriptRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := mdb.db.Query(`SELECT `+selectColumns+` FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	records := make([]*TranscriptRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
