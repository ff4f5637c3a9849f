package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

// fakeRunner substitutes process execution in tests.
type fakeRunner struct {
	fn func(ctx context.Context, name string, args ...string) (string, string, error)
}

func (r fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	return r.fn(ctx, name, args...)
}

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs("in.mp4", "out.wav")

	assert.Contains(t, args, "-vn")
	assert.Equal(t, "out.wav", args[len(args)-1])

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i in.mp4")
	assert.Contains(t, joined, "-ar 16000")
	assert.Contains(t, joined, "-ac 1")
}

func TestExtract_Success(t *testing.T) {
	e := &FFmpegExtractor{
		bin: "ffmpeg",
		runner: fakeRunner{fn: func(_ context.Context, name string, args ...string) (string, string, error) {
			assert.Equal(t, "ffmpeg", name)
			return "", "", nil
		}},
		log: zerolog.Nop(),
	}

	assert.NoError(t, e.Extract(context.Background(), "in.mp4", "out.wav"))
}

func TestExtract_FailureMapsToExtractionError(t *testing.T) {
	e := &FFmpegExtractor{
		bin: "ffmpeg",
		runner: fakeRunner{fn: func(context.Context, string, ...string) (string, string, error) {
			return "", "boom", errors.New("exit status 1")
		}},
		log: zerolog.Nop(),
	}

	err := e.Extract(context.Background(), "in.mp4", "out.wav")
	assert.ErrorIs(t, err, types.ErrExtractionFailed)
}

func TestExtract_CancellationPassesThrough(t *testing.T) {
	e := &FFmpegExtractor{
		bin: "ffmpeg",
		runner: fakeRunner{fn: func(ctx context.Context, _ string, _ ...string) (string, string, error) {
			return "", "", context.Canceled
		}},
		log: zerolog.Nop(),
	}

	err := e.Extract(context.Background(), "in.mp4", "out.wav")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrExtractionFailed)
}

func TestWhisperArgs_TierModelMapping(t *testing.T) {
	for tier, model := range map[types.Tier]string{
		types.TierHighAccuracy: "large",
		types.TierBalanced:     "base",
		types.TierFast:         "tiny",
	} {
		args := whisperArgs("audio.wav", tier.WhisperModel(), "/out", 4)
		joined := strings.Join(args, " ")
		assert.Contains(t, joined, "--model "+model, "tier %s", tier)
		assert.Contains(t, joined, "--output_format json")
		assert.Contains(t, joined, "--threads 4")
	}
}

// outDirFromArgs extracts the --output_dir value the transcriber passed.
func outDirFromArgs(args []string) string {
	for i, a := range args {
		if a == "--output_dir" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func newTestTranscriber(fn func(ctx context.Context, name string, args ...string) (string, string, error)) *WhisperTranscriber {
	wt := NewWhisperTranscriber("python", 2, zerolog.Nop())
	wt.runner = fakeRunner{fn: fn}
	return wt
}

func TestTranscribe_Success(t *testing.T) {
	wt := newTestTranscriber(func(_ context.Context, name string, args ...string) (string, string, error) {
		require.Equal(t, "python", name)
		outDir := outDirFromArgs(args)
		require.NotEmpty(t, outDir)
		payload := []byte(`{"text":"  hello world  ","language":"en"}`)
		return "", "", os.WriteFile(filepath.Join(outDir, "audio.json"), payload, 0644)
	})

	text, err := wt.Transcribe(context.Background(), "/scratch/audio.wav", types.TierFast)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTranscribe_EmptyTranscriptFails(t *testing.T) {
	wt := newTestTranscriber(func(_ context.Context, _ string, args ...string) (string, string, error) {
		payload := []byte(`{"text":"   ","language":"en"}`)
		return "", "", os.WriteFile(filepath.Join(outDirFromArgs(args), "audio.json"), payload, 0644)
	})

	_, err := wt.Transcribe(context.Background(), "/scratch/audio.wav", types.TierBalanced)
	assert.ErrorIs(t, err, types.ErrTranscriptionFailed)
}

func TestTranscribe_MissingOutputFails(t *testing.T) {
	wt := newTestTranscriber(func(context.Context, string, ...string) (string, string, error) {
		return "", "", nil
	})

	_, err := wt.Transcribe(context.Background(), "/scratch/audio.wav", types.TierBalanced)
	assert.ErrorIs(t, err, types.ErrTranscriptionFailed)
}

func TestTranscribe_ProcessFailureMapsToTranscriptionError(t *testing.T) {
	wt := newTestTranscriber(func(context.Context, string, ...string) (string, string, error) {
		return "", "traceback", errors.New("exit status 1")
	})

	_, err := wt.Transcribe(context.Background(), "/scratch/audio.wav", types.TierHighAccuracy)
	assert.ErrorIs(t, err, types.ErrTranscriptionFailed)
}

func TestTranscribe_CancellationPassesThrough(t *testing.T) {
	wt := newTestTranscriber(func(ctx context.Context, _ string, _ ...string) (string, string, error) {
		return "", "", context.Canceled
	})

	_, err := wt.Transcribe(context.Background(), "/scratch/audio.wav", types.TierFast)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrTranscriptionFailed)
}

func TestTranscribe_RemovesOutputDir(t *testing.T) {
	var outDir string
	wt := newTestTranscriber(func(_ context.Context, _ string, args ...string) (string, string, error) {
		outDir = outDirFromArgs(args)
		payload := []byte(fmt.Sprintf(`{"text":"%s","language":"en"}`, "ok"))
		return "", "", os.WriteFile(filepath.Join(outDir, "audio.json"), payload, 0644)
	})

	_, err := wt.Transcribe(context.Background(), "/scratch/audio.wav", types.TierFast)
	require.NoError(t, err)
	assert.NoDirExists(t, outDir)
}
