package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatesWireFormat(t *testing.T) {
	data, err := json.Marshal(Coordinates{X: 1.5, Y: -2})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, -2]`, string(data))

	var c Coordinates
	require.NoError(t, json.Unmarshal([]byte(`[3, 4]`), &c))
	assert.Equal(t, Coordinates{X: 3, Y: 4}, c)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"x":1,"y":2}`), &c))
}

func TestDecodeEnvelopeRejectsMissingType(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"success":true}`))
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "type", parseErr.Field)
}

func TestDecodeEnvelopeRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLightweightBroadcastOmitsMessageID(t *testing.T) {
	env, err := NewLightweightBroadcast(TypeRecvPlayerState, &PlayerStatePayload{UserID: "alice"}, 1234)
	require.NoError(t, err)
	assert.Nil(t, env.MessageID)
	assert.EqualValues(t, 1234, env.CreatedAt)

	standard, err := NewBroadcast(TypeRecvPlayerState, &PlayerStatePayload{UserID: "alice"}, 1234)
	require.NoError(t, err)
	assert.NotNil(t, standard.MessageID)
}

func TestAckCorrelation(t *testing.T) {
	req, err := NewRequest(TypeGetGameState, &GetGameStatePayload{})
	require.NoError(t, err)
	require.NotNil(t, req.MessageID)

	ack, err := NewAck(TypeEmpty, *req.MessageID, true, &EmptyPayload{})
	require.NoError(t, err)
	require.NotNil(t, ack.AckMessageID)
	assert.Equal(t, *req.MessageID, *ack.AckMessageID)
	assert.Nil(t, ack.MessageID)
}

func TestParseChangePlayerStateValidatesRotation(t *testing.T) {
	_, err := ParseChangePlayerState([]byte(`{"rotation": 360}`))
	require.Error(t, err)

	payload, err := ParseChangePlayerState([]byte(`{"rotation": 359, "coordinates": [1, 2]}`))
	require.NoError(t, err)
	require.NotNil(t, payload.Rotation)
	assert.Equal(t, 359, *payload.Rotation)
	require.NotNil(t, payload.Coordinates)
	assert.Equal(t, Coordinates{X: 1, Y: 2}, *payload.Coordinates)
}

func TestParseChangeOtherPlayerStateValidation(t *testing.T) {
	_, err := ParseChangeOtherPlayerState([]byte(`{"damage": 5}`))
	assert.Error(t, err, "missing target must fail")

	_, err = ParseChangeOtherPlayerState([]byte(`{"targetUserId": "bob", "damage": 0}`))
	assert.Error(t, err, "non-positive damage must fail")

	payload, err := ParseChangeOtherPlayerState([]byte(`{"targetUserId": "bob", "damage": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "bob", payload.TargetUserID)
}

func TestParseSummonEntityValidation(t *testing.T) {
	_, err := ParseSummonEntity([]byte(`{"entityType": "DRAGON", "coordinates": [1, 1]}`))
	assert.Error(t, err, "unknown entity type must fail")

	_, err = ParseSummonEntity([]byte(`{"entityType": "SLUG"}`))
	assert.Error(t, err, "missing coordinates must fail")

	payload, err := ParseSummonEntity([]byte(`{"entityType": "SLUG", "coordinates": [2, 3]}`))
	require.NoError(t, err)
	assert.Equal(t, EntityTypeSlug, payload.Type)
}

func TestPresentFieldsAndPositionOnly(t *testing.T) {
	rotation := 10
	p := &PlayerStatePayload{
		UserID:      "alice",
		Coordinates: &Coordinates{X: 1, Y: 2},
	}
	assert.True(t, p.PresentFields().PositionOnly())

	p.Rotation = &rotation
	filter := p.PresentFields()
	assert.False(t, filter.PositionOnly())
	assert.True(t, filter.Has(FieldCoordinates))
	assert.True(t, filter.Has(FieldRotation))
	assert.False(t, filter.Has(FieldHealth))
}

func TestPlayerStateCompleteness(t *testing.T) {
	rotation, health, maxHealth := 0, 20, 20
	playerType := PlayerTypeGnome
	texture := "gnome_green"

	p := &PlayerStatePayload{
		UserID:        "bob",
		Coordinates:   &Coordinates{},
		Rotation:      &rotation,
		Health:        &health,
		MaxHealth:     &maxHealth,
		PlayerType:    &playerType,
		TexturePrefix: &texture,
	}
	assert.True(t, p.Complete())

	p.Health = nil
	assert.False(t, p.Complete())
}

func TestDecodePayloadRequiresIdentity(t *testing.T) {
	env := &Envelope{Type: TypeRecvPlayerState, Data: json.RawMessage(`{"health": 5}`)}
	_, err := DecodePayload(env)
	assert.Error(t, err, "player delta without user id must fail")

	env = &Envelope{Type: TypeRecvEntityState, Data: json.RawMessage(`{"health": 5}`)}
	_, err = DecodePayload(env)
	assert.Error(t, err, "entity delta without entity id must fail")
}

func TestDeltaOmitsAbsentFields(t *testing.T) {
	health := 7
	data, err := json.Marshal(&PlayerStatePayload{UserID: "bob", Health: &health})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
	assert.Contains(t, decoded, "userId")
	assert.Contains(t, decoded, "health")
}
