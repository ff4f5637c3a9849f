package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_RemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "old.wav")
	fresh := filepath.Join(dir, "new.wav")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, past, past))

	s := NewScheduler(dir, time.Hour, time.Hour, zerolog.Nop())
	s.sweep()

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(t.TempDir(), time.Hour, time.Hour, zerolog.Nop())
	s.Start()
	s.Stop()
}
