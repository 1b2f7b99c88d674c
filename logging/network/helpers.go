package network

import (
	"context"

	"garden-brawl/server/logging"
)

const (
	// EventPeerConnected is emitted when a user authenticates and binds a connection.
	EventPeerConnected logging.EventType = "network.peer_connected"
	// EventPeerDisconnected is emitted when a user disconnects or times out.
	EventPeerDisconnected logging.EventType = "network.peer_disconnected"
	// EventSendFailed is emitted when a fan-out send to one recipient fails.
	EventSendFailed logging.EventType = "network.send_failed"
	// EventAuthRejected is emitted when a connect attempt presents a bad key.
	EventAuthRejected logging.EventType = "network.auth_rejected"
	// EventParseRejected is emitted when an inbound frame fails to parse.
	EventParseRejected logging.EventType = "network.parse_rejected"
)

// SendFailedPayload captures why one recipient could not be messaged.
type SendFailedPayload struct {
	MessageType string `json:"messageType"`
	Reason      string `json:"reason"`
}

func PeerConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPeerConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
	})
}

func PeerDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPeerDisconnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Extra:    map[string]any{"reason": reason},
	})
}

func SendFailed(ctx context.Context, pub logging.Publisher, target logging.EntityRef, payload SendFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSendFailed,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

func AuthRejected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAuthRejected,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
	})
}

func ParseRejected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventParseRejected,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Extra:    map[string]any{"reason": reason},
	})
}
