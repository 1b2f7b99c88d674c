package combat

import (
	"context"

	"garden-brawl/server/logging"
)

const (
	// EventPlayerDamaged is emitted when a player's health drops.
	EventPlayerDamaged logging.EventType = "combat.player_damaged"
	// EventPlayerDefeated is emitted when a player's health reaches zero.
	EventPlayerDefeated logging.EventType = "combat.player_defeated"
	// EventEntityDamaged is emitted when an entity's health drops.
	EventEntityDamaged logging.EventType = "combat.entity_damaged"
	// EventEntityRemoved is emitted when an entity leaves the world.
	EventEntityRemoved logging.EventType = "combat.entity_removed"
)

// DamagePayload captures a single health mutation.
type DamagePayload struct {
	Damage int `json:"damage"`
	Health int `json:"health"`
}

// RemovalPayload captures why an entity was removed.
type RemovalPayload struct {
	Reason string `json:"reason"`
}

func PlayerDamaged(ctx context.Context, pub logging.Publisher, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerDamaged,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func PlayerDefeated(ctx context.Context, pub logging.Publisher, target logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerDefeated,
		Actor:    target,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}

func EntityDamaged(ctx context.Context, pub logging.Publisher, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEntityDamaged,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func EntityRemoved(ctx context.Context, pub logging.Publisher, target logging.EntityRef, payload RemovalPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEntityRemoved,
		Actor:    target,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
