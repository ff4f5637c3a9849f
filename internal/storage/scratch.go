package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// ScratchStore tracks per-job temporary files inside the scratch
// directory and removes them when the job ends. Paths incorporate the
// job ID, so concurrent jobs never collide.
type ScratchStore struct {
	dir string
	log zerolog.Logger

	mu    sync.Mutex
	paths map[string][]string
}

// NewScratchStore creates a store rooted at dir.
func NewScratchStore(dir string, log zerolog.Logger) *ScratchStore {
	return &ScratchStore{
		dir:   dir,
		log:   log,
		paths: make(map[string][]string),
	}
}

// EnsureDir creates the scratch directory if it does not exist.
func (s *ScratchStore) EnsureDir() error {
	return os.MkdirAll(s.dir, 0755)
}

// Allocate returns a unique path for one of a job's artifacts and
// records it for later release. kind distinguishes artifacts of the
// same job (video, audio, transcript).
func (s *ScratchStore) Allocate(jobID, kind, ext string) string {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s%s", jobID, kind, ext))

	s.mu.Lock()
	s.paths[jobID] = append(s.paths[jobID], path)
	s.mu.Unlock()

	return path
}

// Forget drops one path from a job's record without touching disk.
// Used when an artifact was already removed after delivery.
func (s *ScratchStore) Forget(jobID, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := s.paths[jobID]
	for i, p := range recorded {
		if p == path {
			s.paths[jobID] = append(recorded[:i], recorded[i+1:]...)
			return
		}
	}
}

// Release removes every artifact recorded for the job that still
// exists on disk. Missing files are not errors, and one failed removal
// does not stop the rest. Safe to call more than once.
func (s *ScratchStore) Release(jobID string) {
	s.mu.Lock()
	recorded := s.paths[jobID]
	delete(s.paths, jobID)
	s.mu.Unlock()

	for _, path := range recorded {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Str("job_id", jobID).
				Msg("failed to remove scratch file")
		}
	}
}
