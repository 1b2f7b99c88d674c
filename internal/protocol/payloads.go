package protocol

import "encoding/json"

// PlayerStatePayload carries a full or delta view of one player. Absent
// fields were not part of the broadcast's field filter.
type PlayerStatePayload struct {
	UserID          string       `json:"userId"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	Rotation        *int         `json:"rotation,omitempty"`
	Health          *int         `json:"health,omitempty"`
	MaxHealth       *int         `json:"maxHealth,omitempty"`
	PlayerType      *PlayerType  `json:"playerType,omitempty"`
	TexturePrefix   *string      `json:"texturePrefix,omitempty"`
	HeldItemTexture *string      `json:"heldItemTexture,omitempty"`
}

// PresentFields reports which filter tags the payload carries.
func (p *PlayerStatePayload) PresentFields() FieldFilter {
	filter := NewFieldFilter()
	if p.Coordinates != nil {
		filter.Add(FieldCoordinates)
	}
	if p.Rotation != nil {
		filter.Add(FieldRotation)
	}
	if p.Health != nil {
		filter.Add(FieldHealth)
	}
	if p.MaxHealth != nil {
		filter.Add(FieldMaxHealth)
	}
	if p.PlayerType != nil {
		filter.Add(FieldPlayerType)
	}
	if p.TexturePrefix != nil {
		filter.Add(FieldTexturePrefix)
	}
	if p.HeldItemTexture != nil {
		filter.Add(FieldHeldItemTexture)
	}
	return filter
}

// Complete reports whether the payload can bootstrap a mirror entry on its
// own. Held item texture is genuinely optional and not required here.
func (p *PlayerStatePayload) Complete() bool {
	return p.UserID != "" &&
		p.Coordinates != nil &&
		p.Rotation != nil &&
		p.Health != nil &&
		p.MaxHealth != nil &&
		p.PlayerType != nil &&
		p.TexturePrefix != nil
}

// EntityStatePayload carries a full or delta view of one entity.
type EntityStatePayload struct {
	EntityID        int64        `json:"entityId"`
	Type            *EntityType  `json:"entityType,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	Rotation        *int         `json:"rotation,omitempty"`
	Health          *int         `json:"health,omitempty"`
	State           *int         `json:"state,omitempty"`
	TexturePrefix   *string      `json:"texturePrefix,omitempty"`
	HeldItemTexture *string      `json:"heldItemTexture,omitempty"`
}

func (p *EntityStatePayload) PresentFields() FieldFilter {
	filter := NewFieldFilter()
	if p.Coordinates != nil {
		filter.Add(FieldCoordinates)
	}
	if p.Rotation != nil {
		filter.Add(FieldRotation)
	}
	if p.Health != nil {
		filter.Add(FieldHealth)
	}
	if p.State != nil {
		filter.Add(FieldState)
	}
	if p.TexturePrefix != nil {
		filter.Add(FieldTexturePrefix)
	}
	if p.HeldItemTexture != nil {
		filter.Add(FieldHeldItemTexture)
	}
	return filter
}

func (p *EntityStatePayload) Complete() bool {
	return p.EntityID > 0 &&
		p.Type != nil &&
		p.Coordinates != nil &&
		p.Rotation != nil &&
		p.Health != nil &&
		p.State != nil &&
		p.TexturePrefix != nil
}

// GameStatePayload carries session-level state. The Players column is only
// populated on full GET_GAME_STATE responses.
type GameStatePayload struct {
	RunState    *RunState            `json:"runState,omitempty"`
	WinningTeam *Team                `json:"winningTeam,omitempty"`
	HostUserID  *string              `json:"hostUserId,omitempty"`
	Players     []PlayerStatePayload `json:"players,omitempty"`
}

func (p *GameStatePayload) PresentFields() FieldFilter {
	filter := NewFieldFilter()
	if p.RunState != nil {
		filter.Add(FieldRunState)
	}
	if p.WinningTeam != nil {
		filter.Add(FieldWinningTeam)
	}
	if p.HostUserID != nil {
		filter.Add(FieldHost)
	}
	return filter
}

// ConnectPayload authenticates a user against the session's connect keys.
type ConnectPayload struct {
	UserID string `json:"userId"`
	Key    string `json:"key"`
}

// DisconnectPayload is empty; the sender is implied by the connection.
type DisconnectPayload struct{}

// ChangeGameStatePayload requests a run-state transition.
type ChangeGameStatePayload struct {
	RunState RunState `json:"runState"`
}

// GetGameStatePayload is empty.
type GetGameStatePayload struct{}

// DamagePayload targets a third party with damage. It is the only mutation
// one player may apply to another.
type DamagePayload struct {
	TargetUserID string `json:"targetUserId"`
	Damage       int    `json:"damage"`
}

// GetEntityStatePayload asks for one entity's full state.
type GetEntityStatePayload struct {
	EntityID int64 `json:"entityId"`
}

// ChangeEntityStatePayload mutates an entity. Damage subtracts health;
// Despawn removes the entity outright with reason DESPAWN.
type ChangeEntityStatePayload struct {
	EntityID        int64        `json:"entityId"`
	Damage          *int         `json:"damage,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	Rotation        *int         `json:"rotation,omitempty"`
	State           *int         `json:"state,omitempty"`
	HeldItemTexture *string      `json:"heldItemTexture,omitempty"`
	Despawn         bool         `json:"despawn,omitempty"`
}

// SummonEntityPayload creates a new entity at the given location.
type SummonEntityPayload struct {
	Type        EntityType   `json:"entityType"`
	Coordinates *Coordinates `json:"coordinates"`
}

// RemoveEntityPayload announces an entity removal with its reason.
type RemoveEntityPayload struct {
	EntityID int64         `json:"entityId"`
	Reason   RemovalReason `json:"reason"`
}

// DroppedItemPayload describes one dropped item. The id is caller supplied
// (a uuid in practice) so drops stay idempotent on the client side.
type DroppedItemPayload struct {
	ID       string       `json:"id"`
	Location *Coordinates `json:"location"`
	ItemType ItemType     `json:"itemType"`
	Quantity int          `json:"quantity"`
}

// RemoveDroppedItemPayload removes a dropped item by id.
type RemoveDroppedItemPayload struct {
	ID string `json:"id"`
}

// InteractionPayload records one world-altering interaction. The session
// retains these for replay during full resync.
type InteractionPayload struct {
	DirectiveType DirectiveType   `json:"directiveType"`
	DirectiveID   int64           `json:"directiveId"`
	Action        DirectiveAction `json:"action"`
}

// ProjectilePayload relays a fired projectile. Projectiles are stateless on
// the server; peers simulate flight locally.
type ProjectilePayload struct {
	OwnerID string       `json:"ownerId,omitempty"`
	Origin  *Coordinates `json:"origin"`
	Angle   float64      `json:"angle"`
	Speed   float64      `json:"speed"`
	Texture string       `json:"texture,omitempty"`
}

// BombPayload relays a placed bomb.
type BombPayload struct {
	OwnerID     string       `json:"ownerId,omitempty"`
	Position    *Coordinates `json:"position"`
	FuseSeconds float64      `json:"fuseSeconds"`
}

// ChatPayload carries one chat line.
type ChatPayload struct {
	UserID string `json:"userId,omitempty"`
	Text   string `json:"text"`
}

// SystemMessagePayload carries a server-authored announcement.
type SystemMessagePayload struct {
	Text string `json:"text"`
}

// SendStatePayload is empty; it triggers a full resync to the sender.
type SendStatePayload struct{}

// EmptyPayload is the body of a bare success ack.
type EmptyPayload struct{}

// ErrorPayload carries the human-readable reason of a failure ack.
type ErrorPayload struct {
	Reason string `json:"reason"`
}

func decodeInto(raw json.RawMessage, field string, v any) *ParseError {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ParseError{Field: field, Reason: err.Error()}
	}
	return nil
}
