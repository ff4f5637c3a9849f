package coordinator

import (
	"context"

	"github.com/codebuildervaibhav/video-transcribe-bot/internal/types"
)

// Session is the per-chat slot holding the single active job, the
// cancellation handle of its background unit, and the status message
// the coordinator keeps editing. Only the coordinator mutates it, and
// only under the coordinator mutex.
type Session struct {
	ChatID      int64
	Job         types.Job
	cancel      context.CancelFunc
	statusMsgID int
}

// SessionInfo is a read-only snapshot exposed to the status endpoint.
type SessionInfo struct {
	ChatID int64       `json:"chat_id"`
	JobID  string      `json:"job_id"`
	Stage  types.Stage `json:"stage"`
	Tier   types.Tier  `json:"tier,omitempty"`
}
