// Package mirror keeps a client-side replica of the authoritative session
// state. Broadcasts arrive over an unordered transport, so every field
// remembers the createdAt stamp of the update that last wrote it and rejects
// anything older. Stale deltas lose; they never roll a newer value back.
package mirror

import (
	"sync"

	"garden-brawl/server/internal/protocol"
)

// Requester lets the mirror ask the server for state it cannot bootstrap
// from a delta alone. Implementations send GET_ENTITY_STATE or SEND_STATE
// over the live connection; the mirror never blocks on the answer.
type Requester interface {
	RequestEntityState(entityID int64)
	RequestResync()
}

// timestamped is one mirrored field plus the stamp of its last accepted
// write. A zero stamp means the field has never been written.
type timestamped[T any] struct {
	value T
	stamp int64
}

// apply accepts the write when it is at least as fresh as the stored one.
// Equal stamps win so two fields from one broadcast land together.
func (f *timestamped[T]) apply(v T, at int64) bool {
	if f.stamp > at {
		return false
	}
	f.value = v
	f.stamp = at
	return true
}

// Player is the mirrored view of one player.
type Player struct {
	UserID          string
	Coordinates     timestamped[protocol.Coordinates]
	Rotation        timestamped[int]
	Health          timestamped[int]
	MaxHealth       timestamped[int]
	PlayerType      timestamped[protocol.PlayerType]
	TexturePrefix   timestamped[string]
	HeldItemTexture timestamped[string]
}

// Position returns the last accepted coordinates.
func (p *Player) Position() protocol.Coordinates { return p.Coordinates.value }

// CurrentHealth returns the last accepted health value.
func (p *Player) CurrentHealth() int { return p.Health.value }

// Role returns the last accepted player type.
func (p *Player) Role() protocol.PlayerType { return p.PlayerType.value }

// Entity is the mirrored view of one entity.
type Entity struct {
	EntityID        int64
	Type            protocol.EntityType
	Coordinates     timestamped[protocol.Coordinates]
	Rotation        timestamped[int]
	Health          timestamped[int]
	State           timestamped[int]
	TexturePrefix   timestamped[string]
	HeldItemTexture timestamped[string]
}

// Position returns the last accepted coordinates.
func (e *Entity) Position() protocol.Coordinates { return e.Coordinates.value }

// CurrentHealth returns the last accepted health value.
func (e *Entity) CurrentHealth() int { return e.Health.value }

// Item is one dropped item visible in the world.
type Item struct {
	ID       string
	Location protocol.Coordinates
	ItemType protocol.ItemType
	Quantity int
}

// World is the whole mirrored session. The mutex guards the lookup maps;
// callers that read mirrored views from another goroutine should do so on
// the same loop that calls Apply.
type World struct {
	mu        sync.Mutex
	requester Requester

	runState    timestamped[protocol.RunState]
	winningTeam timestamped[protocol.Team]
	hostUserID  timestamped[string]

	players  map[string]*Player
	entities map[int64]*Entity
	items    map[string]*Item
}

// NewWorld builds an empty mirror. The requester may be nil, in which case
// unknown entities are silently tracked with whatever fields deltas bring.
func NewWorld(requester Requester) *World {
	return &World{
		requester: requester,
		players:   make(map[string]*Player),
		entities:  make(map[int64]*Entity),
		items:     make(map[string]*Item),
	}
}

// Apply folds one server frame into the mirror. Unknown or non-state frame
// types are ignored; the caller routes chat and acks elsewhere.
func (w *World) Apply(env *protocol.Envelope) error {
	payload, err := protocol.DecodePayload(env)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch p := payload.(type) {
	case *protocol.GameStatePayload:
		w.applyGameState(p, env.CreatedAt)
	case *protocol.PlayerStatePayload:
		w.applyPlayerState(p, env.CreatedAt)
	case *protocol.EntityStatePayload:
		w.applyEntityState(p, env.CreatedAt)
	case *protocol.RemoveEntityPayload:
		delete(w.entities, p.EntityID)
	case *protocol.DroppedItemPayload:
		w.items[p.ID] = &Item{
			ID:       p.ID,
			Location: *p.Location,
			ItemType: p.ItemType,
			Quantity: p.Quantity,
		}
	case *protocol.RemoveDroppedItemPayload:
		delete(w.items, p.ID)
	}
	return nil
}

func (w *World) applyGameState(p *protocol.GameStatePayload, at int64) {
	if p.RunState != nil {
		w.runState.apply(*p.RunState, at)
	}
	if p.WinningTeam != nil {
		w.winningTeam.apply(*p.WinningTeam, at)
	}
	if p.HostUserID != nil {
		w.hostUserID.apply(*p.HostUserID, at)
	}
	for i := range p.Players {
		w.applyPlayerState(&p.Players[i], at)
	}
}

func (w *World) applyPlayerState(p *protocol.PlayerStatePayload, at int64) {
	player, ok := w.players[p.UserID]
	if !ok {
		player = &Player{UserID: p.UserID}
		w.players[p.UserID] = player
		// A delta cannot bootstrap a full view; ask for one.
		if !p.Complete() && w.requester != nil {
			w.requester.RequestResync()
		}
	}
	if p.Coordinates != nil {
		player.Coordinates.apply(*p.Coordinates, at)
	}
	if p.Rotation != nil {
		player.Rotation.apply(*p.Rotation, at)
	}
	if p.Health != nil {
		player.Health.apply(*p.Health, at)
	}
	if p.MaxHealth != nil {
		player.MaxHealth.apply(*p.MaxHealth, at)
	}
	if p.PlayerType != nil {
		player.PlayerType.apply(*p.PlayerType, at)
	}
	if p.TexturePrefix != nil {
		player.TexturePrefix.apply(*p.TexturePrefix, at)
	}
	if p.HeldItemTexture != nil {
		player.HeldItemTexture.apply(*p.HeldItemTexture, at)
	}
}

func (w *World) applyEntityState(p *protocol.EntityStatePayload, at int64) {
	entity, ok := w.entities[p.EntityID]
	if !ok {
		entity = &Entity{EntityID: p.EntityID}
		w.entities[p.EntityID] = entity
		if !p.Complete() && w.requester != nil {
			w.requester.RequestEntityState(p.EntityID)
		}
	}
	if p.Type != nil {
		entity.Type = *p.Type
	}
	if p.Coordinates != nil {
		entity.Coordinates.apply(*p.Coordinates, at)
	}
	if p.Rotation != nil {
		entity.Rotation.apply(*p.Rotation, at)
	}
	if p.Health != nil {
		entity.Health.apply(*p.Health, at)
	}
	if p.State != nil {
		entity.State.apply(*p.State, at)
	}
	if p.TexturePrefix != nil {
		entity.TexturePrefix.apply(*p.TexturePrefix, at)
	}
	if p.HeldItemTexture != nil {
		entity.HeldItemTexture.apply(*p.HeldItemTexture, at)
	}
}

// RunState returns the mirrored lifecycle phase.
func (w *World) RunState() protocol.RunState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runState.value
}

// WinningTeam returns the mirrored winner, if the game has ended.
func (w *World) WinningTeam() (protocol.Team, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.winningTeam.value, w.winningTeam.value != ""
}

// Player returns the mirrored view of one player.
func (w *World) Player(userID string) (*Player, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[userID]
	return p, ok
}

// Entity returns the mirrored view of one entity.
func (w *World) Entity(entityID int64) (*Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[entityID]
	return e, ok
}

// Items returns the ids of every visible dropped item.
func (w *World) Items() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.items))
	for id := range w.items {
		ids = append(ids, id)
	}
	return ids
}

// Item returns one mirrored dropped item.
func (w *World) Item(id string) (*Item, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	item, ok := w.items[id]
	return item, ok
}
