package session

import (
	"context"
	"sort"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	logginglifecycle "garden-brawl/server/logging/lifecycle"
	loggingnetwork "garden-brawl/server/logging/network"
)

// cmdConnect authenticates the sender and binds their peer to the session.
// A user reconnecting from a new connection evicts the old binding.
func cmdConnect(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	p := payload.(*protocol.ConnectPayload)

	if !s.authenticateLocked(p.UserID, p.Key) {
		loggingnetwork.AuthRejected(context.Background(), s.publisher,
			logging.EntityRef{ID: p.UserID, Kind: logging.EntityKindPlayer})
		return protocol.TypeEmpty, nil, invalidArgumentf("Invalid connect key.")
	}

	if old, ok := s.peers[p.UserID]; ok && old != peer {
		delete(s.bindings, old)
		old.Close()
	}

	user := s.userLocked(p.UserID)
	firstJoin := !user.Connected
	user.Connected = true
	s.peers[p.UserID] = peer
	s.bindings[peer] = p.UserID

	loggingnetwork.PeerConnected(context.Background(), s.publisher,
		logging.EntityRef{ID: p.UserID, Kind: logging.EntityKindPlayer})

	if firstJoin {
		s.invokeLocked(protocol.TypeRecvSystemMessage, fanoutSkipping(p.UserID),
			&protocol.SystemMessagePayload{Text: p.UserID + " joined the game."}, env.CreatedAt)
	}
	return protocol.TypeEmpty, nil, nil
}

// cmdDisconnect unbinds the sender but leaves their state behind for a later
// rejoin. The transport closes the connection once the ack is flushed.
func cmdDisconnect(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	user, err := s.requireConnectedLocked(senderID)
	if err != nil {
		return protocol.TypeEmpty, nil, err
	}

	delete(s.bindings, peer)
	delete(s.peers, senderID)
	user.Connected = false

	loggingnetwork.PeerDisconnected(context.Background(), s.publisher,
		logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer}, "disconnect requested")

	s.invokeLocked(protocol.TypeRecvSystemMessage, fanoutSkipping(senderID),
		&protocol.SystemMessagePayload{Text: senderID + " left the game."}, env.CreatedAt)
	return protocol.TypeEmpty, nil, nil
}

// cmdChangeGameState starts the match. Only the host may start, only from the
// lobby; the server alone decides when a game ends.
func cmdChangeGameState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	p := payload.(*protocol.ChangeGameStatePayload)

	switch p.RunState {
	case protocol.RunStatePlaying:
		if senderID != s.hostUserID {
			return protocol.TypeEmpty, nil, invalidArgumentf("Only the host may start the game.")
		}
		if s.runState != protocol.RunStateLobby {
			return protocol.TypeEmpty, nil, illegalStatef("Game has already started.")
		}
	case protocol.RunStateLobby:
		return protocol.TypeEmpty, nil, illegalStatef("Cannot return to the lobby.")
	default:
		return protocol.TypeEmpty, nil, invalidArgumentf("The server decides when a game ends.")
	}

	previous := s.runState
	s.runState = protocol.RunStatePlaying

	logginglifecycle.RunStateChanged(context.Background(), s.publisher,
		logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer},
		logginglifecycle.RunStatePayload{From: string(previous), To: string(s.runState)})

	s.seedMapEntitiesLocked(env.CreatedAt)

	statePayload := &protocol.GameStatePayload{RunState: runStatePtr(s.runState)}
	if err := s.invokeLocked(protocol.TypeRecvGameState, fanoutIncludingAll(), statePayload, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

// seedMapEntitiesLocked materializes the map's pre-placed entities when the
// game starts and announces each with a full state broadcast.
func (s *Session) seedMapEntitiesLocked(createdAt int64) {
	if s.worldMap == nil {
		return
	}
	for _, spawn := range s.worldMap.Entities {
		entity := &EntityState{
			EntityID:      s.nextEntityIDLocked(),
			Type:          spawn.Type,
			X:             spawn.X,
			Y:             spawn.Y,
			Health:        entityMaxHealth(spawn.Type),
			TexturePrefix: entityTexturePrefix(spawn.Type),
		}
		s.entities[entity.EntityID] = entity
		s.invokeLocked(protocol.TypeRecvEntityState, fanoutIncludingAll(), entity.snapshotPayload(), createdAt)
	}
}

// cmdGetGameState answers with the run state, winner, host and a full player
// roster, enough for a freshly connected client to draw the lobby.
func cmdGetGameState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	host := s.hostUserID
	state := &protocol.GameStatePayload{
		RunState:   runStatePtr(s.runState),
		HostUserID: &host,
	}
	if s.winningTeam != "" {
		state.WinningTeam = teamPtr(s.winningTeam)
	}
	for _, user := range s.users {
		state.Players = append(state.Players, *user.snapshotPayload())
	}
	sort.Slice(state.Players, func(i, j int) bool {
		return state.Players[i].UserID < state.Players[j].UserID
	})
	return protocol.TypeRecvGameState, state, nil
}
