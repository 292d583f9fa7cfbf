package cleanup

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Scheduler prunes stale uploads from the local blob directory
type Scheduler struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
	now      func() time.Time
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(dir string, intervalMinutes, maxAgeHours int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}
	return &Scheduler{
		dir:      dir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		logger:   logger,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start runs one pass immediately and then every interval
func (s *Scheduler) Start() {
	s.logger.Info("running initial blob cleanup", "dir", s.dir)
	s.CleanOnce()

	ticker := time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.CleanOnce()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.logger.Info("cleanup scheduler started", "interval", s.interval, "max_age", s.maxAge)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.logger.Info("cleanup scheduler stopped")
}

// CleanOnce removes files older than the max age and reports what it freed
func (s *Scheduler) CleanOnce() (int, int64) {
	now := s.now()

	var deletedCount int
	var deletedSize int64

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			return nil
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to delete old blob", "path", path, "error", err)
			return nil
		}
		deletedCount++
		deletedSize += info.Size()
		s.logger.Debug("deleted old blob", "file", filepath.Base(path), "age", age.Round(time.Minute), "bytes", info.Size())
		return nil
	})

	if err != nil {
		s.logger.Warn("error during cleanup", "error", err)
	}

	if deletedCount > 0 {
		s.logger.Info("cleanup complete", "deleted", deletedCount, "freed_mb", float64(deletedSize)/(1024*1024))
	}
	return deletedCount, deletedSize
}
