package protocol

import "encoding/json"

// The Parse* functions turn a raw payload into its typed variant, rejecting
// malformed or incomplete frames before any handler runs. They are the parse
// column of the command registry.

func ParseConnect(raw json.RawMessage) (*ConnectPayload, error) {
	var payload ConnectPayload
	if err := decodeInto(raw, "connect", &payload); err != nil {
		return nil, err
	}
	if payload.UserID == "" {
		return nil, parseErrorf("userId", "missing user id")
	}
	if payload.Key == "" {
		return nil, parseErrorf("key", "missing connect key")
	}
	return &payload, nil
}

func ParseDisconnect(raw json.RawMessage) (*DisconnectPayload, error) {
	var payload DisconnectPayload
	if err := decodeInto(raw, "disconnect", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func ParseChangeGameState(raw json.RawMessage) (*ChangeGameStatePayload, error) {
	var payload ChangeGameStatePayload
	if err := decodeInto(raw, "changeGameState", &payload); err != nil {
		return nil, err
	}
	if !payload.RunState.Valid() {
		return nil, parseErrorf("runState", "invalid run state %q", payload.RunState)
	}
	return &payload, nil
}

func ParseGetGameState(raw json.RawMessage) (*GetGameStatePayload, error) {
	var payload GetGameStatePayload
	if err := decodeInto(raw, "getGameState", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func ParseChangePlayerState(raw json.RawMessage) (*PlayerStatePayload, error) {
	var payload PlayerStatePayload
	if err := decodeInto(raw, "changePlayerState", &payload); err != nil {
		return nil, err
	}
	if payload.Rotation != nil && (*payload.Rotation < 0 || *payload.Rotation > 359) {
		return nil, parseErrorf("rotation", "rotation %d outside 0-359", *payload.Rotation)
	}
	if payload.PlayerType != nil && !payload.PlayerType.Valid() {
		return nil, parseErrorf("playerType", "invalid player type %q", *payload.PlayerType)
	}
	return &payload, nil
}

func ParseChangeOtherPlayerState(raw json.RawMessage) (*DamagePayload, error) {
	var payload DamagePayload
	if err := decodeInto(raw, "changeOtherPlayerState", &payload); err != nil {
		return nil, err
	}
	if payload.TargetUserID == "" {
		return nil, parseErrorf("targetUserId", "missing target user id")
	}
	if payload.Damage <= 0 {
		return nil, parseErrorf("damage", "damage must be positive, got %d", payload.Damage)
	}
	return &payload, nil
}

func ParseGetEntityState(raw json.RawMessage) (*GetEntityStatePayload, error) {
	var payload GetEntityStatePayload
	if err := decodeInto(raw, "getEntityState", &payload); err != nil {
		return nil, err
	}
	if payload.EntityID <= 0 {
		return nil, parseErrorf("entityId", "missing entity id")
	}
	return &payload, nil
}

func ParseChangeEntityState(raw json.RawMessage) (*ChangeEntityStatePayload, error) {
	var payload ChangeEntityStatePayload
	if err := decodeInto(raw, "changeEntityState", &payload); err != nil {
		return nil, err
	}
	if payload.EntityID <= 0 {
		return nil, parseErrorf("entityId", "missing entity id")
	}
	if payload.Rotation != nil && (*payload.Rotation < 0 || *payload.Rotation > 359) {
		return nil, parseErrorf("rotation", "rotation %d outside 0-359", *payload.Rotation)
	}
	if payload.Damage != nil && *payload.Damage < 0 {
		return nil, parseErrorf("damage", "damage must not be negative, got %d", *payload.Damage)
	}
	return &payload, nil
}

func ParseSummonEntity(raw json.RawMessage) (*SummonEntityPayload, error) {
	var payload SummonEntityPayload
	if err := decodeInto(raw, "summonEntity", &payload); err != nil {
		return nil, err
	}
	if !payload.Type.Valid() {
		return nil, parseErrorf("entityType", "invalid entity type %q", payload.Type)
	}
	if payload.Coordinates == nil {
		return nil, parseErrorf("coordinates", "missing coordinate list")
	}
	return &payload, nil
}

func ParseCreateDroppedItem(raw json.RawMessage) (*DroppedItemPayload, error) {
	var payload DroppedItemPayload
	if err := decodeInto(raw, "createDroppedItem", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, parseErrorf("id", "missing item id")
	}
	if payload.Location == nil {
		return nil, parseErrorf("location", "missing coordinate list")
	}
	if !payload.ItemType.Valid() {
		return nil, parseErrorf("itemType", "invalid item type %q", payload.ItemType)
	}
	if payload.Quantity <= 0 {
		return nil, parseErrorf("quantity", "quantity must be positive, got %d", payload.Quantity)
	}
	return &payload, nil
}

func ParseRemoveDroppedItem(raw json.RawMessage) (*RemoveDroppedItemPayload, error) {
	var payload RemoveDroppedItemPayload
	if err := decodeInto(raw, "removeDroppedItem", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, parseErrorf("id", "missing item id")
	}
	return &payload, nil
}

func ParseInteract(raw json.RawMessage) (*InteractionPayload, error) {
	var payload InteractionPayload
	if err := decodeInto(raw, "interact", &payload); err != nil {
		return nil, err
	}
	if !payload.DirectiveType.Valid() {
		return nil, parseErrorf("directiveType", "invalid directive type %q", payload.DirectiveType)
	}
	if payload.DirectiveID <= 0 {
		return nil, parseErrorf("directiveId", "missing directive id")
	}
	if !payload.Action.Valid() {
		return nil, parseErrorf("action", "invalid action %q", payload.Action)
	}
	return &payload, nil
}

func ParseCreateProjectile(raw json.RawMessage) (*ProjectilePayload, error) {
	var payload ProjectilePayload
	if err := decodeInto(raw, "createProjectile", &payload); err != nil {
		return nil, err
	}
	if payload.Origin == nil {
		return nil, parseErrorf("origin", "missing coordinate list")
	}
	if payload.Speed <= 0 {
		return nil, parseErrorf("speed", "speed must be positive, got %v", payload.Speed)
	}
	return &payload, nil
}

func ParseCreateBomb(raw json.RawMessage) (*BombPayload, error) {
	var payload BombPayload
	if err := decodeInto(raw, "createBomb", &payload); err != nil {
		return nil, err
	}
	if payload.Position == nil {
		return nil, parseErrorf("position", "missing coordinate list")
	}
	if payload.FuseSeconds <= 0 {
		return nil, parseErrorf("fuseSeconds", "fuse must be positive, got %v", payload.FuseSeconds)
	}
	return &payload, nil
}

func ParseSendChat(raw json.RawMessage) (*ChatPayload, error) {
	var payload ChatPayload
	if err := decodeInto(raw, "sendChat", &payload); err != nil {
		return nil, err
	}
	if payload.Text == "" {
		return nil, parseErrorf("text", "missing chat text")
	}
	return &payload, nil
}

func ParseSendState(raw json.RawMessage) (*SendStatePayload, error) {
	var payload SendStatePayload
	if err := decodeInto(raw, "sendState", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecodePayload parses the payload of a server-to-client frame. The client
// mirror uses it to reconstruct typed deltas from inbound broadcasts.
func DecodePayload(env *Envelope) (any, error) {
	switch env.Type {
	case TypeRecvGameState:
		var payload GameStatePayload
		if err := decodeInto(env.Data, "recvGameState", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvPlayerState:
		var payload PlayerStatePayload
		if err := decodeInto(env.Data, "recvPlayerState", &payload); err != nil {
			return nil, err
		}
		if payload.UserID == "" {
			return nil, parseErrorf("userId", "missing user id")
		}
		return &payload, nil
	case TypeRecvEntityState:
		var payload EntityStatePayload
		if err := decodeInto(env.Data, "recvEntityState", &payload); err != nil {
			return nil, err
		}
		if payload.EntityID <= 0 {
			return nil, parseErrorf("entityId", "missing entity id")
		}
		return &payload, nil
	case TypeRecvRemoveEntity:
		var payload RemoveEntityPayload
		if err := decodeInto(env.Data, "recvRemoveEntity", &payload); err != nil {
			return nil, err
		}
		if !payload.Reason.Valid() {
			return nil, parseErrorf("reason", "invalid removal reason %q", payload.Reason)
		}
		return &payload, nil
	case TypeRecvCreateDroppedItem:
		var payload DroppedItemPayload
		if err := decodeInto(env.Data, "recvCreateDroppedItem", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvRemoveDroppedItem:
		var payload RemoveDroppedItemPayload
		if err := decodeInto(env.Data, "recvRemoveDroppedItem", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvInteraction:
		var payload InteractionPayload
		if err := decodeInto(env.Data, "recvInteraction", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvProjectile:
		var payload ProjectilePayload
		if err := decodeInto(env.Data, "recvProjectile", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvBomb:
		var payload BombPayload
		if err := decodeInto(env.Data, "recvBomb", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvChat:
		var payload ChatPayload
		if err := decodeInto(env.Data, "recvChat", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeRecvSystemMessage:
		var payload SystemMessagePayload
		if err := decodeInto(env.Data, "recvSystemMessage", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case TypeEmpty:
		return &EmptyPayload{}, nil
	case TypeIllegalState, TypeInvalidArgument, TypeInternalServerError:
		var payload ErrorPayload
		if err := decodeInto(env.Data, "error", &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	default:
		return nil, parseErrorf("type", "unexpected message type %q", env.Type)
	}
}
