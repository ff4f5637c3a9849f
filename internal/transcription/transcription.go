// Package transcription provides the media collaborators: ffmpeg audio
// extraction and whisper speech-to-text.
package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

// Extractor converts a video file into an audio file.
type Extractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// Transcriber converts an audio file into text at the given tier.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, tier types.Tier) (string, error)
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// execRunner executes commands via os/exec, honoring context cancellation.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		// A killed process reports an exit error; the context error is
		// the one callers dispatch on.
		err = ctx.Err()
	}
	return stdout.String(), stderr.String(), err
}

// stderrTail returns the last few lines of command output for error context.
func stderrTail(stderr string, lines int) string {
	all := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}

// wrapCollaboratorErr maps process failures to the error taxonomy,
// passing cancellation through untouched.
func wrapCollaboratorErr(err, kind error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", kind, err)
}
