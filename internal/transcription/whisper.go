package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

// WhisperTranscriber wraps Python's OpenAI Whisper CLI. The tier picks
// the model size, trading accuracy for latency.
type WhisperTranscriber struct {
	python  string
	threads int
	runner  commandRunner
	log     zerolog.Logger

	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	readFile  func(name string) ([]byte, error)
}

// NewWhisperTranscriber creates a transcriber invoking `python -m whisper`.
func NewWhisperTranscriber(python string, threads int, log zerolog.Logger) *WhisperTranscriber {
	return &WhisperTranscriber{
		python:    python,
		threads:   threads,
		runner:    execRunner{},
		log:       log,
		mkdirTemp: os.MkdirTemp,
		removeAll: os.RemoveAll,
		readFile:  os.ReadFile,
	}
}

// whisperOutput matches Python Whisper's JSON output format.
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe runs whisper on the audio file and returns the transcript
// text. Cancelling the context kills the process.
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string, tier types.Tier) (string, error) {
	outDir, err := wt.mkdirTemp("", "whisper-out-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrTranscriptionFailed, err)
	}
	defer func() {
		if err := wt.removeAll(outDir); err != nil {
			wt.log.Warn().Err(err).Str("dir", outDir).Msg("failed to remove whisper output dir")
		}
	}()

	model := tier.WhisperModel()
	args := whisperArgs(audioPath, model, outDir, wt.threads)

	wt.log.Info().Str("audio", audioPath).Str("model", model).Msg("transcribing audio")
	_, stderr, err := wt.runner.Run(ctx, wt.python, args...)
	if err != nil {
		wt.log.Error().Err(err).Str("stderr", stderrTail(stderr, 5)).Msg("whisper failed")
		return "", wrapCollaboratorErr(err, types.ErrTranscriptionFailed)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, base+".json")

	data, err := wt.readFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("%w: missing whisper output: %v", types.ErrTranscriptionFailed, err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: malformed whisper output: %v", types.ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", types.ErrTranscriptionFailed)
	}

	wt.log.Info().Str("language", out.Language).Int("chars", len(text)).Msg("transcription completed")
	return text, nil
}

// whisperArgs builds the `python -m whisper` invocation.
func whisperArgs(audioPath, model, outDir string, threads int) []string {
	args := []string{
		"-m", "whisper",
		audioPath,
		"--model", model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False",
	}
	if threads > 0 {
		args = append(args, "--threads", strconv.Itoa(threads))
	}
	return args
}
