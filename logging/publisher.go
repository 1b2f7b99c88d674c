package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown   EntityKind = "unknown"
	EntityKindPlayer    EntityKind = "player"
	EntityKindEntity    EntityKind = "entity"
	EntityKindItem      EntityKind = "item"
	EntityKindDirective EntityKind = "directive"
	EntityKindSession   EntityKind = "session"
)

// Event is one structured log record. Session identifies the game session the
// event belongs to; Actor and Targets name the involved objects.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Session  string         `json:"session,omitempty"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryNetwork  = "network"
	CategoryGameplay = "gameplay"
	CategoryCombat   = "combat"
	CategoryChat     = "chat"
	CategorySystem   = "system"
)

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

type sessionPublisher struct {
	next      Publisher
	sessionID string
}

func (p *sessionPublisher) Publish(ctx context.Context, event Event) {
	if p.next == nil {
		return
	}
	if event.Session == "" {
		event.Session = p.sessionID
	}
	p.next.Publish(ctx, event)
}

// ForSession stamps every event with the given session id before forwarding.
func ForSession(p Publisher, sessionID string) Publisher {
	if p == nil {
		return NopPublisher{}
	}
	if sessionID == "" {
		return p
	}
	return &sessionPublisher{next: p, sessionID: sessionID}
}

func cloneEvent(event Event) Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = append([]EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}
