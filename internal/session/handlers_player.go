package session

import (
	"context"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	loggingcombat "garden-brawl/server/logging/combat"
)

// cmdChangePlayerState applies a self-mutation and relays the delta to every
// other peer. Position-only updates ride the lightweight broadcast path.
// Movement is allowed in the lobby so players can wander while waiting.
func cmdChangePlayerState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	user, err := s.requireConnectedLocked(senderID)
	if err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if s.runState == protocol.RunStateEnded {
		return protocol.TypeEmpty, nil, illegalStatef("Game has ended.")
	}

	p := payload.(*protocol.PlayerStatePayload)
	if p.UserID != "" && p.UserID != senderID {
		return protocol.TypeEmpty, nil, invalidArgumentf("Cannot change another player's state.")
	}
	if p.Health != nil || p.MaxHealth != nil {
		return protocol.TypeEmpty, nil, invalidArgumentf("Health is server-authoritative.")
	}
	if p.PlayerType != nil {
		return protocol.TypeEmpty, nil, invalidArgumentf("Player type is server-authoritative.")
	}

	filter := protocol.NewFieldFilter()
	if p.Coordinates != nil {
		user.X = p.Coordinates.X
		user.Y = p.Coordinates.Y
		filter.Add(protocol.FieldCoordinates)
	}
	if p.Rotation != nil {
		user.Rotation = *p.Rotation
		filter.Add(protocol.FieldRotation)
	}
	if p.TexturePrefix != nil {
		user.TexturePrefix = *p.TexturePrefix
		filter.Add(protocol.FieldTexturePrefix)
	}
	if p.HeldItemTexture != nil {
		user.HeldItemTexture = *p.HeldItemTexture
		filter.Add(protocol.FieldHeldItemTexture)
	}
	if filter.Empty() {
		return protocol.TypeEmpty, nil, nil
	}

	delta := user.deltaPayload(filter)
	if err := s.invokeLocked(protocol.TypeRecvPlayerState, fanoutSkipping(senderID), delta, env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

// cmdChangeOtherPlayerState is the damage path, the one mutation a player may
// apply to someone else. Lethal damage demotes the target to spectator and
// may end the game.
func cmdChangeOtherPlayerState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.DamagePayload)
	target, ok := s.users[p.TargetUserID]
	if !ok {
		return protocol.TypeEmpty, nil, invalidArgumentf("Player does not exist.")
	}
	if target.PlayerType == protocol.PlayerTypeSpectator {
		return protocol.TypeEmpty, nil, invalidArgumentf("Cannot damage a spectator.")
	}

	target.Health -= p.Damage
	loggingcombat.PlayerDamaged(context.Background(), s.publisher,
		logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer},
		logging.EntityRef{ID: target.UserID, Kind: logging.EntityKindPlayer},
		loggingcombat.DamagePayload{Damage: p.Damage, Health: target.Health})

	if target.Health > 0 {
		filter := protocol.NewFieldFilter()
		filter.Add(protocol.FieldHealth)
		if err := s.invokeLocked(protocol.TypeRecvPlayerState, fanoutSkipping(senderID), target.deltaPayload(filter), env.CreatedAt); err != nil {
			return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
		}
		return protocol.TypeEmpty, nil, nil
	}

	s.defeatPlayerLocked(target, env.CreatedAt)
	return protocol.TypeEmpty, nil, nil
}

// defeatPlayerLocked turns a player into a walking-dead spectator: they stay
// in the session and keep receiving broadcasts, but no longer count for the
// win condition.
func (s *Session) defeatPlayerLocked(target *UserState, createdAt int64) {
	target.PlayerType = protocol.PlayerTypeSpectator
	target.TexturePrefix = spectatorTexturePrefix
	target.HeldItemTexture = ""
	target.Solid = false

	loggingcombat.PlayerDefeated(context.Background(), s.publisher,
		logging.EntityRef{ID: target.UserID, Kind: logging.EntityKindPlayer})

	filter := protocol.NewFieldFilter()
	filter.Add(protocol.FieldHealth)
	filter.Add(protocol.FieldPlayerType)
	filter.Add(protocol.FieldTexturePrefix)
	s.invokeLocked(protocol.TypeRecvPlayerState, fanoutIncludingAll(), target.deltaPayload(filter), createdAt)
	s.invokeLocked(protocol.TypeRecvSystemMessage, fanoutIncludingAll(),
		&protocol.SystemMessagePayload{Text: target.UserID + " was defeated!"}, createdAt)

	s.checkWinLocked(createdAt)
}
