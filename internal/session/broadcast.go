package session

import (
	"context"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	loggingnetwork "garden-brawl/server/logging/network"
)

// invokeLocked routes through the registry's invoke column. Handlers use it
// to trigger another handler's broadcast without a wire round-trip.
func (s *Session) invokeLocked(t protocol.MessageType, ctx *fanoutContext, payload any, createdAt int64) error {
	entry, ok := s.registry.lookup(s.gameType, t)
	if !ok || entry.invoke == nil {
		return internalErrorf("no invoke handler registered for %s", t)
	}
	return entry.invoke(s, ctx, payload, createdAt)
}

// fanOutLocked delivers one payload to every recipient the context selects.
// The standard path stamps a fresh random message id per recipient; the
// lightweight path (position-only deltas) serializes once with no id at all.
// Per-recipient failures are logged, the peer is dropped, and the loop keeps
// going: best-effort multicast, no ordering guarantee across recipients.
func (s *Session) fanOutLocked(t protocol.MessageType, ctx *fanoutContext, payload any, createdAt int64, lightweight bool) error {
	var shared []byte
	if lightweight {
		env, err := protocol.NewLightweightBroadcast(t, payload, createdAt)
		if err != nil {
			return internalErrorf("Failed to message other clients.")
		}
		shared, err = env.Encode()
		if err != nil {
			return internalErrorf("Failed to message other clients.")
		}
	}

	var failed []string
	for userID, peer := range s.peers {
		if !ctx.includes(userID) {
			continue
		}
		user, ok := s.users[userID]
		if !ok || !user.Connected {
			continue
		}

		data := shared
		if data == nil {
			env, err := protocol.NewBroadcast(t, payload, createdAt)
			if err != nil {
				return internalErrorf("Failed to message other clients.")
			}
			data, err = env.Encode()
			if err != nil {
				return internalErrorf("Failed to message other clients.")
			}
		}

		if err := peer.Send(data); err != nil {
			loggingnetwork.SendFailed(context.Background(), s.publisher,
				logging.EntityRef{ID: userID, Kind: logging.EntityKindPlayer},
				loggingnetwork.SendFailedPayload{MessageType: string(t), Reason: err.Error()})
			failed = append(failed, userID)
		}
	}

	// Drop failed peers after the loop so map iteration stays stable.
	for _, userID := range failed {
		s.dropPeerLocked(userID, "send failed")
	}
	return nil
}

// dropPeerLocked severs a user's connection but keeps their state, so a
// later rejoin can resync instead of starting over.
func (s *Session) dropPeerLocked(userID, reason string) {
	if peer, ok := s.peers[userID]; ok {
		delete(s.bindings, peer)
		delete(s.peers, userID)
		peer.Close()
	}
	if user, ok := s.users[userID]; ok && user.Connected {
		user.Connected = false
		loggingnetwork.PeerDisconnected(context.Background(), s.publisher,
			logging.EntityRef{ID: userID, Kind: logging.EntityKindPlayer}, reason)
	}
}

// HandleTransportFailure marks a user disconnected after the transport layer
// reports a dead connection (read error, timeout).
func (s *Session) HandleTransportFailure(peer Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID, ok := s.bindings[peer]; ok {
		s.dropPeerLocked(userID, "transport failure")
	}
}
