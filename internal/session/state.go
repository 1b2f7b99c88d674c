package session

import (
	"strconv"

	"garden-brawl/server/internal/protocol"
)

const (
	playerMaxHealth = 20

	keeperTexturePrefix    = "keeper"
	gnomeTexturePrefix     = "gnome_green"
	spectatorTexturePrefix = "ghost"
)

// UserState is the authoritative record for one user. Users are created
// lazily on first reference and survive disconnects so a rejoin can resync.
type UserState struct {
	UserID          string
	Connected       bool
	PlayerType      protocol.PlayerType
	Team            protocol.Team
	X               float64
	Y               float64
	Rotation        int
	Health          int
	MaxHealth       int
	HeldItemTexture string
	TexturePrefix   string
	Solid           bool
}

func newUserState(userID string, playerType protocol.PlayerType) *UserState {
	user := &UserState{
		UserID:     userID,
		PlayerType: playerType,
		Health:     playerMaxHealth,
		MaxHealth:  playerMaxHealth,
		Solid:      true,
	}
	switch playerType {
	case protocol.PlayerTypeKeeper:
		user.Team = protocol.TeamKeepers
		user.TexturePrefix = keeperTexturePrefix
	default:
		user.Team = protocol.TeamGnomes
		user.TexturePrefix = gnomeTexturePrefix
	}
	return user
}

// snapshotPayload returns the full, unfiltered view of the user.
func (u *UserState) snapshotPayload() *protocol.PlayerStatePayload {
	payload := &protocol.PlayerStatePayload{
		UserID:        u.UserID,
		Coordinates:   &protocol.Coordinates{X: u.X, Y: u.Y},
		Rotation:      intPtr(u.Rotation),
		Health:        intPtr(u.Health),
		MaxHealth:     intPtr(u.MaxHealth),
		PlayerType:    playerTypePtr(u.PlayerType),
		TexturePrefix: stringPtr(u.TexturePrefix),
	}
	if u.HeldItemTexture != "" {
		payload.HeldItemTexture = stringPtr(u.HeldItemTexture)
	}
	return payload
}

// deltaPayload returns a view restricted to the given field filter.
func (u *UserState) deltaPayload(filter protocol.FieldFilter) *protocol.PlayerStatePayload {
	payload := &protocol.PlayerStatePayload{UserID: u.UserID}
	if filter.Has(protocol.FieldCoordinates) {
		payload.Coordinates = &protocol.Coordinates{X: u.X, Y: u.Y}
	}
	if filter.Has(protocol.FieldRotation) {
		payload.Rotation = intPtr(u.Rotation)
	}
	if filter.Has(protocol.FieldHealth) {
		payload.Health = intPtr(u.Health)
	}
	if filter.Has(protocol.FieldMaxHealth) {
		payload.MaxHealth = intPtr(u.MaxHealth)
	}
	if filter.Has(protocol.FieldPlayerType) {
		payload.PlayerType = playerTypePtr(u.PlayerType)
	}
	if filter.Has(protocol.FieldTexturePrefix) {
		payload.TexturePrefix = stringPtr(u.TexturePrefix)
	}
	if filter.Has(protocol.FieldHeldItemTexture) {
		payload.HeldItemTexture = stringPtr(u.HeldItemTexture)
	}
	return payload
}

// EntityState is the authoritative record for one AI-controlled actor.
type EntityState struct {
	EntityID        int64
	Type            protocol.EntityType
	X               float64
	Y               float64
	Rotation        int
	Health          int
	State           int
	HeldItemTexture string
	TexturePrefix   string
}

func entityMaxHealth(t protocol.EntityType) int {
	switch t {
	case protocol.EntityTypeScarecrow:
		return 30
	case protocol.EntityTypeCrow:
		return 8
	default:
		return 12
	}
}

func entityTexturePrefix(t protocol.EntityType) string {
	switch t {
	case protocol.EntityTypeSlug:
		return "slug"
	case protocol.EntityTypeCrow:
		return "crow"
	case protocol.EntityTypeScarecrow:
		return "scarecrow"
	default:
		return "entity"
	}
}

func (e *EntityState) snapshotPayload() *protocol.EntityStatePayload {
	payload := &protocol.EntityStatePayload{
		EntityID:      e.EntityID,
		Type:          entityTypePtr(e.Type),
		Coordinates:   &protocol.Coordinates{X: e.X, Y: e.Y},
		Rotation:      intPtr(e.Rotation),
		Health:        intPtr(e.Health),
		State:         intPtr(e.State),
		TexturePrefix: stringPtr(e.TexturePrefix),
	}
	if e.HeldItemTexture != "" {
		payload.HeldItemTexture = stringPtr(e.HeldItemTexture)
	}
	return payload
}

func (e *EntityState) deltaPayload(filter protocol.FieldFilter) *protocol.EntityStatePayload {
	payload := &protocol.EntityStatePayload{EntityID: e.EntityID}
	if filter.Has(protocol.FieldCoordinates) {
		payload.Coordinates = &protocol.Coordinates{X: e.X, Y: e.Y}
	}
	if filter.Has(protocol.FieldRotation) {
		payload.Rotation = intPtr(e.Rotation)
	}
	if filter.Has(protocol.FieldHealth) {
		payload.Health = intPtr(e.Health)
	}
	if filter.Has(protocol.FieldState) {
		payload.State = intPtr(e.State)
	}
	if filter.Has(protocol.FieldTexturePrefix) {
		payload.TexturePrefix = stringPtr(e.TexturePrefix)
	}
	if filter.Has(protocol.FieldHeldItemTexture) {
		payload.HeldItemTexture = stringPtr(e.HeldItemTexture)
	}
	return payload
}

// DroppedItemState is the authoritative record for one dropped item.
type DroppedItemState struct {
	ID       string
	X        float64
	Y        float64
	ItemType protocol.ItemType
	Quantity int
}

func (d *DroppedItemState) payload() *protocol.DroppedItemPayload {
	return &protocol.DroppedItemPayload{
		ID:       d.ID,
		Location: &protocol.Coordinates{X: d.X, Y: d.Y},
		ItemType: d.ItemType,
		Quantity: d.Quantity,
	}
}

func formatEntityID(id int64) string { return strconv.FormatInt(id, 10) }

func intPtr(v int) *int                                     { return &v }
func stringPtr(v string) *string                            { return &v }
func playerTypePtr(v protocol.PlayerType) *protocol.PlayerType { return &v }
func entityTypePtr(v protocol.EntityType) *protocol.EntityType { return &v }
func runStatePtr(v protocol.RunState) *protocol.RunState       { return &v }
func teamPtr(v protocol.Team) *protocol.Team                   { return &v }
