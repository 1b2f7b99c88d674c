package session

import (
	"encoding/json"

	"garden-brawl/server/internal/protocol"
)

type parseFunc func(raw json.RawMessage) (any, error)

// commandFunc executes server-side business logic for one inbound request and
// returns the ack message type and payload. Errors map onto the failure
// taxonomy and become failed acks.
type commandFunc func(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error)

// invokeFunc is the internal fan-out path: one handler triggers another
// handler's broadcast without a wire round-trip.
type invokeFunc func(s *Session, ctx *fanoutContext, payload any, createdAt int64) error

type registryKey struct {
	game protocol.GameType
	msg  protocol.MessageType
}

type registryEntry struct {
	parse   parseFunc
	command commandFunc
	invoke  invokeFunc
}

type registry struct {
	entries map[registryKey]registryEntry
}

func parseAs[T any](fn func(json.RawMessage) (*T, error)) parseFunc {
	return func(raw json.RawMessage) (any, error) {
		return fn(raw)
	}
}

// newRegistry builds the static dispatch table. Registration happens once at
// construction; there is no runtime scanning.
func newRegistry() *registry {
	r := &registry{entries: make(map[registryKey]registryEntry)}

	register := func(msg protocol.MessageType, entry registryEntry) {
		r.entries[registryKey{game: protocol.GameTypeBrawl, msg: msg}] = entry
	}

	register(protocol.TypeConnect, registryEntry{
		parse:   parseAs(protocol.ParseConnect),
		command: cmdConnect,
	})
	register(protocol.TypeDisconnect, registryEntry{
		parse:   parseAs(protocol.ParseDisconnect),
		command: cmdDisconnect,
	})
	register(protocol.TypeChangeGameState, registryEntry{
		parse:   parseAs(protocol.ParseChangeGameState),
		command: cmdChangeGameState,
	})
	register(protocol.TypeGetGameState, registryEntry{
		parse:   parseAs(protocol.ParseGetGameState),
		command: cmdGetGameState,
	})
	register(protocol.TypeChangePlayerState, registryEntry{
		parse:   parseAs(protocol.ParseChangePlayerState),
		command: cmdChangePlayerState,
	})
	register(protocol.TypeChangeOtherPlayerState, registryEntry{
		parse:   parseAs(protocol.ParseChangeOtherPlayerState),
		command: cmdChangeOtherPlayerState,
	})
	register(protocol.TypeGetEntityState, registryEntry{
		parse:   parseAs(protocol.ParseGetEntityState),
		command: cmdGetEntityState,
	})
	register(protocol.TypeChangeEntityState, registryEntry{
		parse:   parseAs(protocol.ParseChangeEntityState),
		command: cmdChangeEntityState,
	})
	register(protocol.TypeSummonEntity, registryEntry{
		parse:   parseAs(protocol.ParseSummonEntity),
		command: cmdSummonEntity,
	})
	register(protocol.TypeCreateDroppedItem, registryEntry{
		parse:   parseAs(protocol.ParseCreateDroppedItem),
		command: cmdCreateDroppedItem,
	})
	register(protocol.TypeRemoveDroppedItem, registryEntry{
		parse:   parseAs(protocol.ParseRemoveDroppedItem),
		command: cmdRemoveDroppedItem,
	})
	register(protocol.TypeInteract, registryEntry{
		parse:   parseAs(protocol.ParseInteract),
		command: cmdInteract,
	})
	register(protocol.TypeCreateProjectile, registryEntry{
		parse:   parseAs(protocol.ParseCreateProjectile),
		command: cmdCreateProjectile,
	})
	register(protocol.TypeCreateBomb, registryEntry{
		parse:   parseAs(protocol.ParseCreateBomb),
		command: cmdCreateBomb,
	})
	register(protocol.TypeSendChat, registryEntry{
		parse:   parseAs(protocol.ParseSendChat),
		command: cmdSendChat,
	})
	register(protocol.TypeSendState, registryEntry{
		parse:   parseAs(protocol.ParseSendState),
		command: cmdSendState,
	})

	register(protocol.TypeRecvGameState, registryEntry{invoke: invokeRecvGameState})
	register(protocol.TypeRecvPlayerState, registryEntry{invoke: invokeRecvPlayerState})
	register(protocol.TypeRecvEntityState, registryEntry{invoke: invokeRecvEntityState})
	register(protocol.TypeRecvRemoveEntity, registryEntry{invoke: invokeRecvRemoveEntity})
	register(protocol.TypeRecvCreateDroppedItem, registryEntry{invoke: invokeRecvCreateDroppedItem})
	register(protocol.TypeRecvRemoveDroppedItem, registryEntry{invoke: invokeRecvRemoveDroppedItem})
	register(protocol.TypeRecvInteraction, registryEntry{invoke: invokeRecvInteraction})
	register(protocol.TypeRecvProjectile, registryEntry{invoke: invokeRecvProjectile})
	register(protocol.TypeRecvBomb, registryEntry{invoke: invokeRecvBomb})
	register(protocol.TypeRecvChat, registryEntry{invoke: invokeRecvChat})
	register(protocol.TypeRecvSystemMessage, registryEntry{invoke: invokeRecvSystemMessage})

	return r
}

func (r *registry) lookup(game protocol.GameType, msg protocol.MessageType) (registryEntry, bool) {
	entry, ok := r.entries[registryKey{game: game, msg: msg}]
	return entry, ok
}
