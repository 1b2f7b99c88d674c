package session

import (
	"garden-brawl/server/internal/protocol"
)

// The invoke column of the registry. Each function fans one payload variant
// out to the recipients its context selects. Player deltas that touch only
// position ride the lightweight path.

func invokeRecvGameState(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.GameStatePayload)
	if !ok {
		return internalErrorf("invoke RECV_GAME_STATE: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvGameState, ctx, p, createdAt, false)
}

func invokeRecvPlayerState(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.PlayerStatePayload)
	if !ok {
		return internalErrorf("invoke RECV_PLAYER_STATE: unexpected payload %T", payload)
	}
	lightweight := p.PresentFields().PositionOnly()
	return s.fanOutLocked(protocol.TypeRecvPlayerState, ctx, p, createdAt, lightweight)
}

func invokeRecvEntityState(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.EntityStatePayload)
	if !ok {
		return internalErrorf("invoke RECV_ENTITY_STATE: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvEntityState, ctx, p, createdAt, false)
}

func invokeRecvRemoveEntity(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.RemoveEntityPayload)
	if !ok {
		return internalErrorf("invoke RECV_REMOVE_ENTITY: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvRemoveEntity, ctx, p, createdAt, false)
}

func invokeRecvCreateDroppedItem(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.DroppedItemPayload)
	if !ok {
		return internalErrorf("invoke RECV_CREATE_DROPPED_ITEM: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvCreateDroppedItem, ctx, p, createdAt, false)
}

func invokeRecvRemoveDroppedItem(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.RemoveDroppedItemPayload)
	if !ok {
		return internalErrorf("invoke RECV_REMOVE_DROPPED_ITEM: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvRemoveDroppedItem, ctx, p, createdAt, false)
}

func invokeRecvInteraction(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.InteractionPayload)
	if !ok {
		return internalErrorf("invoke RECV_INTERACTION: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvInteraction, ctx, p, createdAt, false)
}

func invokeRecvProjectile(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.ProjectilePayload)
	if !ok {
		return internalErrorf("invoke RECV_PROJECTILE: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvProjectile, ctx, p, createdAt, false)
}

func invokeRecvBomb(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.BombPayload)
	if !ok {
		return internalErrorf("invoke RECV_BOMB: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvBomb, ctx, p, createdAt, false)
}

func invokeRecvChat(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.ChatPayload)
	if !ok {
		return internalErrorf("invoke RECV_CHAT: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvChat, ctx, p, createdAt, false)
}

func invokeRecvSystemMessage(s *Session, ctx *fanoutContext, payload any, createdAt int64) error {
	p, ok := payload.(*protocol.SystemMessagePayload)
	if !ok {
		return internalErrorf("invoke RECV_SYSTEM_MESSAGE: unexpected payload %T", payload)
	}
	return s.fanOutLocked(protocol.TypeRecvSystemMessage, ctx, p, createdAt, false)
}
