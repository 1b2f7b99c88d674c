package session

import (
	"garden-brawl/server/internal/protocol"
)

// cmdInteract records a directive interaction (a door opened, a chest looted)
// and relays it. The session keeps the full interaction log so a resync can
// replay world changes in order.
func cmdInteract(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.InteractionPayload)
	if s.worldMap != nil {
		if _, ok := s.worldMap.Directive(p.DirectiveType, p.DirectiveID); !ok {
			return protocol.TypeEmpty, nil, invalidArgumentf("Directive does not exist.")
		}
	}
	s.interactions = append(s.interactions, *p)

	if err := s.invokeLocked(protocol.TypeRecvInteraction, fanoutSkipping(senderID), p, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

// cmdCreateProjectile relays a fired projectile. The server stamps the owner
// and keeps no projectile state; peers simulate the flight themselves.
func cmdCreateProjectile(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.ProjectilePayload)
	p.OwnerID = senderID

	if err := s.invokeLocked(protocol.TypeRecvProjectile, fanoutSkipping(senderID), p, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

// cmdCreateBomb relays a placed bomb, stateless like projectiles.
func cmdCreateBomb(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.BombPayload)
	p.OwnerID = senderID

	if err := s.invokeLocked(protocol.TypeRecvBomb, fanoutSkipping(senderID), p, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}
