package lifecycle

import (
	"context"

	"garden-brawl/server/logging"
)

const (
	// EventSessionCreated is emitted when a session is constructed.
	EventSessionCreated logging.EventType = "lifecycle.session_created"
	// EventRunStateChanged is emitted on every run-state transition.
	EventRunStateChanged logging.EventType = "lifecycle.run_state_changed"
	// EventResyncRequested is emitted when a client asks for a full resync.
	EventResyncRequested logging.EventType = "lifecycle.resync_requested"
	// EventResyncStepFailed is emitted when one resync broadcast fails.
	EventResyncStepFailed logging.EventType = "lifecycle.resync_step_failed"
)

// RunStatePayload captures a state transition.
type RunStatePayload struct {
	From        string `json:"from"`
	To          string `json:"to"`
	WinningTeam string `json:"winningTeam,omitempty"`
}

func SessionCreated(ctx context.Context, pub logging.Publisher, session logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionCreated,
		Actor:    session,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
	})
}

func RunStateChanged(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload RunStatePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRunStateChanged,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

func ResyncRequested(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResyncRequested,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
	})
}

func ResyncStepFailed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, step, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventResyncStepFailed,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Extra:    map[string]any{"step": step, "reason": reason},
	})
}
