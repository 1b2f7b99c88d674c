package protocol

// RunState is the session's lifecycle phase. LOBBY moves to PLAYING exactly
// once (host only) and PLAYING moves to ENDED only through the win check.
type RunState string

const (
	RunStateLobby   RunState = "LOBBY"
	RunStatePlaying RunState = "PLAYING"
	RunStateEnded   RunState = "ENDED"
)

func (r RunState) Valid() bool {
	switch r {
	case RunStateLobby, RunStatePlaying, RunStateEnded:
		return true
	}
	return false
}

// PlayerType is a user's role. The keeper is the only role allowed to summon
// entities; defeated players become spectators.
type PlayerType string

const (
	PlayerTypeKeeper    PlayerType = "KEEPER"
	PlayerTypeGnome     PlayerType = "GNOME"
	PlayerTypeSpectator PlayerType = "SPECTATOR"
)

func (p PlayerType) Valid() bool {
	switch p {
	case PlayerTypeKeeper, PlayerTypeGnome, PlayerTypeSpectator:
		return true
	}
	return false
}

// Team identifies the winning side once a session ends.
type Team string

const (
	TeamKeepers Team = "KEEPERS"
	TeamGnomes  Team = "GNOMES"
)

// EntityType enumerates the summonable actor kinds.
type EntityType string

const (
	EntityTypeSlug      EntityType = "SLUG"
	EntityTypeCrow      EntityType = "CROW"
	EntityTypeScarecrow EntityType = "SCARECROW"
)

func (e EntityType) Valid() bool {
	switch e {
	case EntityTypeSlug, EntityTypeCrow, EntityTypeScarecrow:
		return true
	}
	return false
}

// ItemType enumerates droppable item kinds.
type ItemType string

const (
	ItemTypeFig    ItemType = "FIG"
	ItemTypeSeed   ItemType = "SEED"
	ItemTypeShovel ItemType = "SHOVEL"
	ItemTypeAcorn  ItemType = "ACORN"
)

func (i ItemType) Valid() bool {
	switch i {
	case ItemTypeFig, ItemTypeSeed, ItemTypeShovel, ItemTypeAcorn:
		return true
	}
	return false
}

// RemovalReason explains an entity removal broadcast.
type RemovalReason string

const (
	RemovalReasonDie     RemovalReason = "DIE"
	RemovalReasonDespawn RemovalReason = "DESPAWN"
)

func (r RemovalReason) Valid() bool {
	return r == RemovalReasonDie || r == RemovalReasonDespawn
}

// DirectiveType names a map directive a player can interact with.
type DirectiveType string

const (
	DirectiveTypeDoor  DirectiveType = "DOOR"
	DirectiveTypeChest DirectiveType = "CHEST"
)

func (d DirectiveType) Valid() bool {
	return d == DirectiveTypeDoor || d == DirectiveTypeChest
}

// DirectiveAction is what happened to a directive.
type DirectiveAction string

const (
	DirectiveActionOpen  DirectiveAction = "OPEN"
	DirectiveActionClose DirectiveAction = "CLOSE"
	DirectiveActionLoot  DirectiveAction = "LOOT"
)

func (a DirectiveAction) Valid() bool {
	switch a {
	case DirectiveActionOpen, DirectiveActionClose, DirectiveActionLoot:
		return true
	}
	return false
}
