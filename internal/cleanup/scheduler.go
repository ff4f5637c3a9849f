package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler periodically removes stale files from the scratch
// directory. Per-job release handles normal teardown; this sweep
// recovers artifacts orphaned by crashes or kills.
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	log      zerolog.Logger
	stopChan chan struct{}
}

// NewScheduler creates a cleanup scheduler for the scratch directory.
func NewScheduler(tempDir string, interval, maxAge time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		tempDir:  tempDir,
		interval: interval,
		maxAge:   maxAge,
		log:      log,
		stopChan: make(chan struct{}),
	}
}

// Start runs an initial sweep and begins periodic cleanup.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.log.Info().Dur("interval", s.interval).Dur("max_age", s.maxAge).
		Msg("cleanup scheduler started")
}

// Stop stops the cleanup scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// sweep removes files older than maxAge from the scratch directory.
func (s *Scheduler) sweep() {
	now := time.Now()
	var deleted int

	err := filepath.Walk(s.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if now.Sub(info.ModTime()) > s.maxAge {
			if err := os.Remove(path); err != nil {
				s.log.Warn().Err(err).Str("path", path).Msg("failed to delete stale file")
			} else {
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("error during scratch sweep")
	}

	if deleted > 0 {
		s.log.Info().Int("files", deleted).Msg("removed stale scratch files")
	}
}
