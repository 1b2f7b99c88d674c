package chat

import (
	"context"

	"garden-brawl/server/logging"
)

const (
	// EventChatSent is emitted when a chat line is relayed.
	EventChatSent logging.EventType = "chat.sent"
	// EventSystemMessage is emitted when the server announces something.
	EventSystemMessage logging.EventType = "chat.system_message"
)

func ChatSent(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, length int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventChatSent,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryChat,
		Extra:    map[string]any{"length": length},
	})
}

func SystemMessage(ctx context.Context, pub logging.Publisher, text string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSystemMessage,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryChat,
		Extra:    map[string]any{"text": text},
	})
}
