// Package coordinator owns the job lifecycle: it receives videos,
// collects the tier choice, runs extraction and transcription as one
// cancellable background unit, and guarantees cleanup and exactly one
// final message on every exit path.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/storage"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/transcription"
	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

// Messenger renders coordinator output back to the user.
type Messenger interface {
	SendText(chatID int64, text string) (messageID int, err error)
	EditText(chatID int64, messageID int, text string) error
	SendTierPrompt(chatID int64, text string) (messageID int, err error)
	SendDocument(chatID int64, path, filename, caption string) error
}

// FileFetcher downloads a transport file to a local path.
type FileFetcher interface {
	Fetch(ctx context.Context, fileID, dest string) error
}

// VideoInput describes an inbound video message.
type VideoInput struct {
	FileID   string
	FileName string
	Size     int64
}

// User-facing messages for each terminal outcome.
const (
	msgOversized       = "That video is too large (max %d MB)."
	msgJobInProgress   = "A job is already in progress. Send /cancel first to start over."
	msgDownloadFailed  = "Could not download your video. Please try again."
	msgExtractFailed   = "Could not extract audio from your video."
	msgTranscribFailed = "Could not transcribe your video."
	msgTimedOut        = "Transcription took too long and was stopped."
	msgCancelled       = "Process was cancelled."
	msgCancelling      = "Cancelling..."
	msgNothingToCancel = "Nothing to cancel."
	msgChooseTier      = "Video received. Choose a transcription model:"
)

// Coordinator drives every job from video arrival to terminal stage.
type Coordinator struct {
	store       *storage.ScratchStore
	extractor   transcription.Extractor
	transcriber transcription.Transcriber
	messenger   Messenger
	fetcher     FileFetcher
	log         zerolog.Logger

	maxVideoBytes int64
	inlineLimit   int
	jobTimeout    time.Duration

	mu       sync.Mutex
	sessions map[int64]*Session
}

// Options carries the coordinator limits.
type Options struct {
	MaxVideoBytes int64
	InlineLimit   int
	JobTimeout    time.Duration
}

// New creates a coordinator with no active sessions.
func New(
	store *storage.ScratchStore,
	extractor transcription.Extractor,
	transcriber transcription.Transcriber,
	messenger Messenger,
	fetcher FileFetcher,
	opts Options,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		store:         store,
		extractor:     extractor,
		transcriber:   transcriber,
		messenger:     messenger,
		fetcher:       fetcher,
		log:           log,
		maxVideoBytes: opts.MaxVideoBytes,
		inlineLimit:   opts.InlineLimit,
		jobTimeout:    opts.JobTimeout,
		sessions:      make(map[int64]*Session),
	}
}

// HandleVideo validates and downloads an inbound video, then prompts
// for a tier. Runs on the control goroutine; only file I/O blocks here.
func (c *Coordinator) HandleVideo(ctx context.Context, chatID int64, video VideoInput) error {
	c.mu.Lock()
	_, busy := c.sessions[chatID]
	c.mu.Unlock()
	if busy {
		c.send(chatID, msgJobInProgress)
		return types.ErrJobAlreadyRunning
	}

	if video.Size > c.maxVideoBytes {
		c.send(chatID, fmt.Sprintf(msgOversized, c.maxVideoBytes/(1024*1024)))
		return types.ErrOversizedInput
	}

	job := types.Job{
		ID:        uuid.New().String(),
		VideoName: videoBaseName(video.FileName),
		Stage:     types.StageAwaitingTier,
	}
	job.VideoPath = c.store.Allocate(job.ID, "video", filepath.Ext(video.FileName))

	if err := c.fetcher.Fetch(ctx, video.FileID, job.VideoPath); err != nil {
		c.log.Error().Err(err).Str("job_id", job.ID).Msg("video download failed")
		c.store.Release(job.ID)
		c.send(chatID, msgDownloadFailed)
		return fmt.Errorf("fetch video: %w", err)
	}

	msgID, err := c.messenger.SendTierPrompt(chatID, msgChooseTier)
	if err != nil {
		c.log.Error().Err(err).Str("job_id", job.ID).Msg("tier prompt failed")
		c.store.Release(job.ID)
		return fmt.Errorf("send tier prompt: %w", err)
	}

	c.mu.Lock()
	c.sessions[chatID] = &Session{ChatID: chatID, Job: job, statusMsgID: msgID}
	c.mu.Unlock()

	c.log.Info().Str("job_id", job.ID).Int64("chat_id", chatID).
		Int64("size", video.Size).Msg("video accepted, awaiting tier")
	return nil
}

// HandleTier records the chosen tier and launches the background unit.
// Selections outside the awaiting_tier stage are ignored.
func (c *Coordinator) HandleTier(chatID int64, data string) error {
	tier, err := types.ParseTier(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	sess, ok := c.sessions[chatID]
	if !ok || sess.Job.Stage != types.StageAwaitingTier {
		c.mu.Unlock()
		c.log.Debug().Int64("chat_id", chatID).Str("tier", data).
			Msg("ignoring tier selection without pending prompt")
		return types.ErrNoActiveJob
	}

	sess.Job.Tier = tier
	sess.Job.Stage = types.StageExtracting

	jobCtx := context.Background()
	var cancel context.CancelFunc
	if c.jobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(jobCtx, c.jobTimeout)
	} else {
		jobCtx, cancel = context.WithCancel(jobCtx)
	}
	sess.cancel = cancel
	c.mu.Unlock()

	c.editStatus(sess, fmt.Sprintf("Model: %s\nExtracting audio...", tier.Label()))
	c.log.Info().Str("job_id", sess.Job.ID).Str("tier", string(tier)).Msg("tier selected, job started")

	go c.runJob(jobCtx, sess)
	return nil
}

// HandleCancel interrupts the active job, if any. The acknowledgment is
// sent before the background unit is confirmed gone.
func (c *Coordinator) HandleCancel(chatID int64) error {
	c.mu.Lock()
	sess, ok := c.sessions[chatID]
	if !ok {
		c.mu.Unlock()
		c.send(chatID, msgNothingToCancel)
		return types.ErrNoActiveJob
	}
	cancel := sess.cancel
	c.mu.Unlock()

	if cancel == nil {
		// No background unit yet, tear down directly.
		c.settle(sess, types.StageCancelled, func() {
			c.send(chatID, msgCancelled)
		})
		return nil
	}

	c.editStatus(sess, msgCancelling)
	cancel()
	c.log.Info().Str("job_id", sess.Job.ID).Int64("chat_id", chatID).Msg("cancellation requested")
	return nil
}

// ActiveSessions returns a snapshot of in-flight jobs.
func (c *Coordinator) ActiveSessions() []SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SessionInfo, 0, len(c.sessions))
	for _, sess := range c.sessions {
		out = append(out, SessionInfo{
			ChatID: sess.ChatID,
			JobID:  sess.Job.ID,
			Stage:  sess.Job.Stage,
			Tier:   sess.Job.Tier,
		})
	}
	return out
}

// runJob executes extraction and transcription as one cancellable
// sequence and settles the session with the outcome.
func (c *Coordinator) runJob(ctx context.Context, sess *Session) {
	job := &sess.Job

	audioPath := c.store.Allocate(job.ID, "audio", ".wav")
	if err := c.extractor.Extract(ctx, job.VideoPath, audioPath); err != nil {
		c.settleErr(sess, err, msgExtractFailed)
		return
	}
	c.mu.Lock()
	job.AudioPath = audioPath
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		c.settleErr(sess, err, msgExtractFailed)
		return
	}

	if !c.advance(sess, types.StageTranscribing) {
		return
	}
	c.editStatus(sess, fmt.Sprintf("Model: %s\nTranscribing... this can take several minutes.", job.Tier.Label()))

	text, err := c.transcriber.Transcribe(ctx, audioPath, job.Tier)
	if err != nil {
		c.settleErr(sess, err, msgTranscribFailed)
		return
	}

	if err := ctx.Err(); err != nil {
		c.settleErr(sess, err, msgTranscribFailed)
		return
	}

	if !c.advance(sess, types.StageDelivering) {
		return
	}

	c.settle(sess, types.StageDone, func() {
		c.deliver(sess, text)
	})
}

// deliver sends the transcript inline, falling back to an attachment
// when it exceeds the inline limit.
func (c *Coordinator) deliver(sess *Session, text string) {
	runes := []rune(text)
	if len(runes) <= c.inlineLimit {
		c.send(sess.ChatID, text)
		return
	}

	c.send(sess.ChatID, string(runes[:c.inlineLimit]))

	path := c.store.Allocate(sess.Job.ID, "transcript", ".txt")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		c.log.Error().Err(err).Str("job_id", sess.Job.ID).Msg("failed to export transcript")
		return
	}

	filename := sess.Job.VideoName + ".txt"
	if err := c.messenger.SendDocument(sess.ChatID, path, filename, "Full transcript"); err != nil {
		c.log.Error().Err(err).Str("job_id", sess.Job.ID).Msg("failed to send transcript attachment")
		return
	}

	if err := os.Remove(path); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("failed to remove delivered transcript")
		return
	}
	c.store.Forget(sess.Job.ID, path)
}

// settleErr maps a background-unit error to its terminal stage and message.
func (c *Coordinator) settleErr(sess *Session, err error, failMsg string) {
	switch {
	case errors.Is(err, context.Canceled):
		c.settle(sess, types.StageCancelled, func() {
			c.send(sess.ChatID, msgCancelled)
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.settle(sess, types.StageFailed, func() {
			c.send(sess.ChatID, msgTimedOut)
		})
	default:
		c.log.Error().Err(err).Str("job_id", sess.Job.ID).Msg("job failed")
		c.settle(sess, types.StageFailed, func() {
			c.send(sess.ChatID, failMsg)
		})
	}
}

// settle performs the single transition into a terminal stage: it
// removes the session, sends the one final message via deliver, and
// releases scratch files. The first caller wins; later calls for the
// same session are no-ops, which resolves the done-vs-cancelled race.
func (c *Coordinator) settle(sess *Session, to types.Stage, deliver func()) bool {
	c.mu.Lock()
	cur, ok := c.sessions[sess.ChatID]
	if !ok || cur != sess || sess.Job.Stage.Terminal() || !types.ValidTransition(sess.Job.Stage, to) {
		c.mu.Unlock()
		return false
	}
	sess.Job.Stage = to
	delete(c.sessions, sess.ChatID)
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	c.mu.Unlock()

	deliver()
	c.store.Release(sess.Job.ID)
	c.log.Info().Str("job_id", sess.Job.ID).Str("stage", string(to)).Msg("job settled")
	return true
}

// advance applies a non-terminal transition for a still-active session.
func (c *Coordinator) advance(sess *Session, to types.Stage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.sessions[sess.ChatID]
	if !ok || cur != sess || !types.ValidTransition(sess.Job.Stage, to) {
		return false
	}
	sess.Job.Stage = to
	return true
}

// send delivers a plain message, logging delivery failures.
func (c *Coordinator) send(chatID int64, text string) {
	if _, err := c.messenger.SendText(chatID, text); err != nil {
		c.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

// editStatus updates the job's status message in place.
func (c *Coordinator) editStatus(sess *Session, text string) {
	if sess.statusMsgID == 0 {
		return
	}
	if err := c.messenger.EditText(sess.ChatID, sess.statusMsgID, text); err != nil {
		c.log.Warn().Err(err).Int64("chat_id", sess.ChatID).Msg("failed to edit status message")
	}
}

// videoBaseName derives the attachment base name from the uploaded file.
func videoBaseName(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "transcript"
	}
	return base
}
