package session

import (
	"context"

	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	loggingcombat "garden-brawl/server/logging/combat"
)

// cmdSummonEntity spawns a new entity under keeper control. The id is one
// above the highest live id, so removing the newest entity frees its number.
func cmdSummonEntity(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	user, err := s.requireConnectedLocked(senderID)
	if err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if user.PlayerType != protocol.PlayerTypeKeeper {
		return protocol.TypeEmpty, nil, invalidArgumentf("Only the keeper may summon entities.")
	}

	p := payload.(*protocol.SummonEntityPayload)
	entity := &EntityState{
		EntityID:      s.nextEntityIDLocked(),
		Type:          p.Type,
		X:             p.Coordinates.X,
		Y:             p.Coordinates.Y,
		Health:        entityMaxHealth(p.Type),
		TexturePrefix: entityTexturePrefix(p.Type),
	}
	s.entities[entity.EntityID] = entity

	if err := s.invokeLocked(protocol.TypeRecvEntityState, fanoutIncludingAll(), entity.snapshotPayload(), env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

// cmdGetEntityState answers with one entity's full state.
func cmdGetEntityState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	p := payload.(*protocol.GetEntityStatePayload)
	entity, ok := s.entities[p.EntityID]
	if !ok {
		return protocol.TypeEmpty, nil, invalidArgumentf("Entity does not exist.")
	}
	return protocol.TypeRecvEntityState, entity.snapshotPayload(), nil
}

// cmdChangeEntityState applies movement, animation, damage or despawn to one
// entity. Lethal damage removes the entity with reason DIE; an explicit
// despawn removes it with reason DESPAWN.
func cmdChangeEntityState(s *Session, peer Peer, senderID string, env *protocol.Envelope, payload any) (protocol.MessageType, any, error) {
	if _, err := s.requireConnectedLocked(senderID); err != nil {
		return protocol.TypeEmpty, nil, err
	}
	if err := s.requirePlayingLocked(); err != nil {
		return protocol.TypeEmpty, nil, err
	}

	p := payload.(*protocol.ChangeEntityStatePayload)
	entity, ok := s.entities[p.EntityID]
	if !ok {
		return protocol.TypeEmpty, nil, invalidArgumentf("Entity does not exist.")
	}

	if p.Despawn {
		s.removeEntityLocked(entity, protocol.RemovalReasonDespawn, env.CreatedAt)
		return protocol.TypeEmpty, nil, nil
	}

	filter := protocol.NewFieldFilter()
	if p.Coordinates != nil {
		entity.X = p.Coordinates.X
		entity.Y = p.Coordinates.Y
		filter.Add(protocol.FieldCoordinates)
	}
	if p.Rotation != nil {
		entity.Rotation = *p.Rotation
		filter.Add(protocol.FieldRotation)
	}
	if p.State != nil {
		entity.State = *p.State
		filter.Add(protocol.FieldState)
	}
	if p.HeldItemTexture != nil {
		entity.HeldItemTexture = *p.HeldItemTexture
		filter.Add(protocol.FieldHeldItemTexture)
	}
	if p.Damage != nil {
		entity.Health -= *p.Damage
		filter.Add(protocol.FieldHealth)
		loggingcombat.EntityDamaged(context.Background(), s.publisher,
			logging.EntityRef{ID: senderID, Kind: logging.EntityKindPlayer},
			entityRef(entity.EntityID),
			loggingcombat.DamagePayload{Damage: *p.Damage, Health: entity.Health})
	}

	if entity.Health <= 0 {
		s.removeEntityLocked(entity, protocol.RemovalReasonDie, env.CreatedAt)
		return protocol.TypeEmpty, nil, nil
	}
	if filter.Empty() {
		return protocol.TypeEmpty, nil, nil
	}

	if err := s.invokeLocked(protocol.TypeRecvEntityState, fanoutSkipping(senderID), entity.deltaPayload(filter), env.CreatedAt); err != nil {
		return protocol.TypeEmpty, nil, internalErrorf("Failed to message other clients.")
	}
	return protocol.TypeEmpty, nil, nil
}

func (s *Session) removeEntityLocked(entity *EntityState, reason protocol.RemovalReason, createdAt int64) {
	delete(s.entities, entity.EntityID)
	loggingcombat.EntityRemoved(context.Background(), s.publisher,
		entityRef(entity.EntityID),
		loggingcombat.RemovalPayload{Reason: string(reason)})
	s.invokeLocked(protocol.TypeRecvRemoveEntity, fanoutIncludingAll(),
		&protocol.RemoveEntityPayload{EntityID: entity.EntityID, Reason: reason}, createdAt)
}

func entityRef(id int64) logging.EntityRef {
	return logging.EntityRef{ID: formatEntityID(id), Kind: logging.EntityKindEntity}
}
