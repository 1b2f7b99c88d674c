package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GameType selects the rule set a session runs. Registrations in the command
// registry are keyed by (GameType, MessageType) so future modes can reuse the
// dispatch machinery with their own handlers.
type GameType string

const GameTypeBrawl GameType = "BRAWL"

// MessageType tags every envelope on the wire.
type MessageType string

const (
	TypeConnect         MessageType = "CONNECT"
	TypeDisconnect      MessageType = "DISCONNECT"
	TypeChangeGameState MessageType = "CHANGE_GAME_STATE"
	TypeGetGameState    MessageType = "GET_GAME_STATE"
	TypeRecvGameState   MessageType = "RECV_GAME_STATE"

	TypeChangePlayerState      MessageType = "CHANGE_PLAYER_STATE"
	TypeRecvPlayerState        MessageType = "RECV_PLAYER_STATE"
	TypeChangeOtherPlayerState MessageType = "CHANGE_OTHER_PLAYER_STATE"

	TypeGetEntityState    MessageType = "GET_ENTITY_STATE"
	TypeChangeEntityState MessageType = "CHANGE_ENTITY_STATE"
	TypeSummonEntity      MessageType = "SUMMON_ENTITY"
	TypeRecvEntityState   MessageType = "RECV_ENTITY_STATE"
	TypeRecvRemoveEntity  MessageType = "RECV_REMOVE_ENTITY"

	TypeCreateDroppedItem     MessageType = "CREATE_DROPPED_ITEM"
	TypeRemoveDroppedItem     MessageType = "REMOVE_DROPPED_ITEM"
	TypeRecvCreateDroppedItem MessageType = "RECV_CREATE_DROPPED_ITEM"
	TypeRecvRemoveDroppedItem MessageType = "RECV_REMOVE_DROPPED_ITEM"

	TypeInteract         MessageType = "INTERACT"
	TypeRecvInteraction  MessageType = "RECV_INTERACTION"
	TypeCreateProjectile MessageType = "CREATE_PROJECTILE"
	TypeRecvProjectile   MessageType = "RECV_PROJECTILE"
	TypeCreateBomb       MessageType = "CREATE_BOMB"
	TypeRecvBomb         MessageType = "RECV_BOMB"

	TypeSendChat          MessageType = "SEND_CHAT"
	TypeRecvChat          MessageType = "RECV_CHAT"
	TypeRecvSystemMessage MessageType = "RECV_SYSTEM_MESSAGE"

	TypeSendState MessageType = "SEND_STATE"

	TypeEmpty               MessageType = "EMPTY"
	TypeIllegalState        MessageType = "ILLEGAL_STATE"
	TypeInvalidArgument     MessageType = "INVALID_ARGUMENT"
	TypeInternalServerError MessageType = "INTERNAL_SERVER_ERROR"
)

// Envelope is the shared frame around every payload variant. A request that
// carries a MessageID receives exactly one response whose AckMessageID matches
// it; fan-out messages carry a fresh random id and no ack.
type Envelope struct {
	Type         MessageType     `json:"type"`
	MessageID    *uuid.UUID      `json:"messageId,omitempty"`
	AckMessageID *uuid.UUID      `json:"ackMessageId,omitempty"`
	Success      bool            `json:"success"`
	CreatedAt    int64           `json:"createdAt"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// NewRequest frames a payload as a client request with a fresh correlation id.
func NewRequest(t MessageType, payload any) (*Envelope, error) {
	env, err := newEnvelope(t, payload)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	env.MessageID = &id
	env.Success = true
	return env, nil
}

// NewBroadcast frames a payload for fan-out with a fresh random message id.
func NewBroadcast(t MessageType, payload any, createdAt int64) (*Envelope, error) {
	env, err := newEnvelope(t, payload)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	env.MessageID = &id
	env.Success = true
	if createdAt > 0 {
		env.CreatedAt = createdAt
	}
	return env, nil
}

// NewLightweightBroadcast frames a position-only delta. It deliberately omits
// the message id so the hot movement path skips id generation entirely.
func NewLightweightBroadcast(t MessageType, payload any, createdAt int64) (*Envelope, error) {
	env, err := newEnvelope(t, payload)
	if err != nil {
		return nil, err
	}
	env.Success = true
	if createdAt > 0 {
		env.CreatedAt = createdAt
	}
	return env, nil
}

// NewAck frames a response acknowledging the given request id.
func NewAck(t MessageType, ack uuid.UUID, success bool, payload any) (*Envelope, error) {
	env, err := newEnvelope(t, payload)
	if err != nil {
		return nil, err
	}
	env.AckMessageID = &ack
	env.Success = success
	return env, nil
}

func newEnvelope(t MessageType, payload any) (*Envelope, error) {
	env := &Envelope{Type: t, CreatedAt: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Data = data
	}
	return env, nil
}

// Encode serializes the envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses the shared frame without touching the payload. The
// payload stays raw so the registry's parse step can produce a typed variant.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Field: "envelope", Reason: err.Error()}
	}
	if env.Type == "" {
		return nil, &ParseError{Field: "type", Reason: "missing message type"}
	}
	return &env, nil
}
