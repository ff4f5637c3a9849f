package types

import "errors"

// Stage tracks the lifecycle of a single transcription job.
type Stage string

const (
	StageAwaitingTier Stage = "awaiting_tier"
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageDelivering   Stage = "delivering"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
	StageCancelled    Stage = "cancelled"
)

// Terminal reports whether a stage has no outgoing transitions.
func (s Stage) Terminal() bool {
	switch s {
	case StageDone, StageFailed, StageCancelled:
		return true
	default:
		return false
	}
}

// ValidTransition enforces the allowed job state machine edges.
func ValidTransition(from, to Stage) bool {
	switch from {
	case StageAwaitingTier:
		return to == StageExtracting || to == StageFailed || to == StageCancelled
	case StageExtracting:
		return to == StageTranscribing || to == StageFailed || to == StageCancelled
	case StageTranscribing:
		return to == StageDelivering || to == StageFailed || to == StageCancelled
	case StageDelivering:
		return to == StageDone || to == StageFailed || to == StageCancelled
	default:
		return false
	}
}

// Job represents one video-to-text transcription request.
type Job struct {
	ID             string
	VideoPath      string
	VideoName      string
	AudioPath      string
	TranscriptPath string
	Tier           Tier
	Stage          Stage
}

// Error kinds surfaced to the user by the coordinator.
var (
	ErrOversizedInput      = errors.New("video exceeds size limit")
	ErrExtractionFailed    = errors.New("audio extraction failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrNoActiveJob         = errors.New("no active job")
	ErrJobAlreadyRunning   = errors.New("job already running")
)
