package transcription

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

// FFmpegExtractor extracts the audio track of a video as 16kHz mono WAV,
// the input format whisper expects.
type FFmpegExtractor struct {
	bin    string
	runner commandRunner
	log    zerolog.Logger
}

// NewFFmpegExtractor creates an extractor using the given ffmpeg binary.
func NewFFmpegExtractor(bin string, log zerolog.Logger) *FFmpegExtractor {
	return &FFmpegExtractor{bin: bin, runner: execRunner{}, log: log}
}

// Extract runs ffmpeg to produce audioPath from videoPath. Cancelling
// the context kills the process.
func (e *FFmpegExtractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	args := ffmpegArgs(videoPath, audioPath)

	e.log.Debug().Str("video", videoPath).Str("audio", audioPath).Msg("extracting audio")
	_, stderr, err := e.runner.Run(ctx, e.bin, args...)
	if err != nil {
		e.log.Error().Err(err).Str("stderr", stderrTail(stderr, 5)).Msg("ffmpeg failed")
		return wrapCollaboratorErr(err, types.ErrExtractionFailed)
	}
	return nil
}

// ffmpegArgs builds CLI args for mono 16kHz PCM WAV output.
func ffmpegArgs(videoPath, audioPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		audioPath,
	}
}
