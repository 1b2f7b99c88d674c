package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"garden-brawl/server/internal/maps"
	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
)

type fakePeer struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (p *fakePeer) Send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("queue full")
	}
	p.frames = append(p.frames, data)
	return nil
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePeer) envelopes(t *testing.T) []*protocol.Envelope {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*protocol.Envelope, 0, len(p.frames))
	for _, frame := range p.frames {
		env, err := protocol.DecodeEnvelope(frame)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func (p *fakePeer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
}

func newTestSession() *Session {
	return New(Config{
		ID:         "session-1",
		GameType:   protocol.GameTypeBrawl,
		HostUserID: "alice",
		Keys: map[string]string{
			"alice": "key-alice",
			"bob":   "key-bob",
			"carol": "key-carol",
		},
		Publisher: logging.NopPublisher{},
		Clock:     func() time.Time { return time.UnixMilli(1700000000000) },
	})
}

func request(t *testing.T, msg protocol.MessageType, payload any) (*protocol.Envelope, []byte) {
	t.Helper()
	env, err := protocol.NewRequest(msg, payload)
	if err != nil {
		t.Fatalf("build %s request: %v", msg, err)
	}
	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("encode %s request: %v", msg, err)
	}
	return env, raw
}

// send issues one request and returns the single ack correlated to it.
func send(t *testing.T, s *Session, peer *fakePeer, msg protocol.MessageType, payload any) *protocol.Envelope {
	t.Helper()
	req, raw := request(t, msg, payload)
	s.HandleMessage(peer, raw)

	var ack *protocol.Envelope
	for _, env := range peer.envelopes(t) {
		if env.AckMessageID == nil || *env.AckMessageID != *req.MessageID {
			continue
		}
		if ack != nil {
			t.Fatalf("request %s acked twice", msg)
		}
		ack = env
	}
	if ack == nil {
		t.Fatalf("request %s received no ack", msg)
	}
	return ack
}

func connect(t *testing.T, s *Session, peer *fakePeer, userID, key string) {
	t.Helper()
	ack := send(t, s, peer, protocol.TypeConnect, &protocol.ConnectPayload{UserID: userID, Key: key})
	if !ack.Success || ack.Type != protocol.TypeEmpty {
		t.Fatalf("connect %s: got ack %s success=%v", userID, ack.Type, ack.Success)
	}
}

func startGame(t *testing.T, s *Session, host *fakePeer) {
	t.Helper()
	ack := send(t, s, host, protocol.TypeChangeGameState,
		&protocol.ChangeGameStatePayload{RunState: protocol.RunStatePlaying})
	if !ack.Success {
		t.Fatalf("start game failed: %s", string(ack.Data))
	}
}

func reason(t *testing.T, env *protocol.Envelope) string {
	t.Helper()
	var p protocol.ErrorPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return p.Reason
}

func broadcastsOfType(t *testing.T, peer *fakePeer, msg protocol.MessageType) []*protocol.Envelope {
	t.Helper()
	var out []*protocol.Envelope
	for _, env := range peer.envelopes(t) {
		if env.Type == msg && env.AckMessageID == nil {
			out = append(out, env)
		}
	}
	return out
}

func TestCommandsRequireConnection(t *testing.T) {
	s := newTestSession()
	peer := &fakePeer{}

	ack := send(t, s, peer, protocol.TypeGetGameState, &protocol.GetGameStatePayload{})
	if ack.Success || ack.Type != protocol.TypeIllegalState {
		t.Fatalf("expected ILLEGAL_STATE, got %s success=%v", ack.Type, ack.Success)
	}
	if got := reason(t, ack); got != "Not connected." {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestConnectRejectsBadKey(t *testing.T) {
	s := newTestSession()
	peer := &fakePeer{}

	ack := send(t, s, peer, protocol.TypeConnect, &protocol.ConnectPayload{UserID: "alice", Key: "wrong"})
	if ack.Success || ack.Type != protocol.TypeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %s success=%v", ack.Type, ack.Success)
	}
}

func TestConnectReplacesExistingPeer(t *testing.T) {
	s := newTestSession()
	old := &fakePeer{}
	connect(t, s, old, "alice", "key-alice")

	replacement := &fakePeer{}
	connect(t, s, replacement, "alice", "key-alice")

	if !old.closed {
		t.Fatalf("old peer should be closed after rejoin")
	}
}

func TestUnknownMessageTypeFailsAck(t *testing.T) {
	s := newTestSession()
	peer := &fakePeer{}
	connect(t, s, peer, "alice", "key-alice")

	ack := send(t, s, peer, protocol.MessageType("TELEPORT"), nil)
	if ack.Success || ack.Type != protocol.TypeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %s success=%v", ack.Type, ack.Success)
	}
}

func TestParseErrorPrecedesMutation(t *testing.T) {
	s := newTestSession()
	peer := &fakePeer{}
	connect(t, s, peer, "alice", "key-alice")
	startGame(t, s, peer)

	// Rotation out of range fails at parse time.
	bad := 400
	ack := send(t, s, peer, protocol.TypeChangePlayerState, &protocol.PlayerStatePayload{Rotation: &bad})
	if ack.Success || ack.Type != protocol.TypeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %s success=%v", ack.Type, ack.Success)
	}

	s.mu.Lock()
	rotation := s.users["alice"].Rotation
	s.mu.Unlock()
	if rotation != 0 {
		t.Fatalf("rotation mutated despite parse failure: %d", rotation)
	}
}

func TestOnlyHostStartsGame(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")

	ack := send(t, s, bob, protocol.TypeChangeGameState,
		&protocol.ChangeGameStatePayload{RunState: protocol.RunStatePlaying})
	if ack.Success || ack.Type != protocol.TypeInvalidArgument {
		t.Fatalf("non-host start: expected INVALID_ARGUMENT, got %s", ack.Type)
	}
	if s.RunState() != protocol.RunStateLobby {
		t.Fatalf("run state changed by non-host")
	}

	startGame(t, s, alice)
	if s.RunState() != protocol.RunStatePlaying {
		t.Fatalf("host start did not take effect")
	}

	// Everyone hears the transition, including the host.
	for name, peer := range map[string]*fakePeer{"alice": alice, "bob": bob} {
		states := broadcastsOfType(t, peer, protocol.TypeRecvGameState)
		if len(states) == 0 {
			t.Fatalf("%s missed the RECV_GAME_STATE broadcast", name)
		}
	}

	ack = send(t, s, alice, protocol.TypeChangeGameState,
		&protocol.ChangeGameStatePayload{RunState: protocol.RunStatePlaying})
	if ack.Success || ack.Type != protocol.TypeIllegalState {
		t.Fatalf("double start: expected ILLEGAL_STATE, got %s", ack.Type)
	}

	ack = send(t, s, alice, protocol.TypeChangeGameState,
		&protocol.ChangeGameStatePayload{RunState: protocol.RunStateLobby})
	if ack.Success || ack.Type != protocol.TypeIllegalState {
		t.Fatalf("return to lobby: expected ILLEGAL_STATE, got %s", ack.Type)
	}
}

func TestPositionDeltaRidesLightweightPath(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)
	bob.reset()
	alice.reset()

	ack := send(t, s, alice, protocol.TypeChangePlayerState, &protocol.PlayerStatePayload{
		Coordinates: &protocol.Coordinates{X: 4, Y: 9},
	})
	if !ack.Success {
		t.Fatalf("move rejected: %s", string(ack.Data))
	}

	if got := broadcastsOfType(t, alice, protocol.TypeRecvPlayerState); len(got) != 0 {
		t.Fatalf("sender received its own delta")
	}
	deltas := broadcastsOfType(t, bob, protocol.TypeRecvPlayerState)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta at bob, got %d", len(deltas))
	}
	if deltas[0].MessageID != nil {
		t.Fatalf("position-only delta should omit the message id")
	}

	var p protocol.PlayerStatePayload
	if err := json.Unmarshal(deltas[0].Data, &p); err != nil {
		t.Fatalf("decode delta: %v", err)
	}
	if p.UserID != "alice" || p.Coordinates == nil || p.Coordinates.X != 4 || p.Coordinates.Y != 9 {
		t.Fatalf("unexpected delta payload: %+v", p)
	}
	if p.Health != nil || p.Rotation != nil {
		t.Fatalf("delta carries fields outside the filter: %+v", p)
	}
}

func TestMixedDeltaGetsFreshIDPerRecipient(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	carol := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	connect(t, s, carol, "carol", "key-carol")
	startGame(t, s, alice)
	bob.reset()
	carol.reset()

	rotation := 90
	send(t, s, alice, protocol.TypeChangePlayerState, &protocol.PlayerStatePayload{
		Coordinates: &protocol.Coordinates{X: 1, Y: 2},
		Rotation:    &rotation,
	})

	ids := map[uuid.UUID]bool{}
	for _, peer := range []*fakePeer{bob, carol} {
		deltas := broadcastsOfType(t, peer, protocol.TypeRecvPlayerState)
		if len(deltas) != 1 {
			t.Fatalf("expected 1 delta, got %d", len(deltas))
		}
		if deltas[0].MessageID == nil {
			t.Fatalf("mixed delta must carry a message id")
		}
		ids[*deltas[0].MessageID] = true
	}
	if len(ids) != 2 {
		t.Fatalf("recipients shared a message id, want distinct ids")
	}
}

func TestDamageBroadcastsHealthOnly(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)
	bob.reset()

	ack := send(t, s, alice, protocol.TypeChangeOtherPlayerState,
		&protocol.DamagePayload{TargetUserID: "bob", Damage: 5})
	if !ack.Success {
		t.Fatalf("damage rejected: %s", string(ack.Data))
	}

	deltas := broadcastsOfType(t, bob, protocol.TypeRecvPlayerState)
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta at bob, got %d", len(deltas))
	}
	var p protocol.PlayerStatePayload
	if err := json.Unmarshal(deltas[0].Data, &p); err != nil {
		t.Fatalf("decode delta: %v", err)
	}
	if p.UserID != "bob" || p.Health == nil || *p.Health != playerMaxHealth-5 {
		t.Fatalf("unexpected health delta: %+v", p)
	}
	if p.Coordinates != nil || p.PlayerType != nil {
		t.Fatalf("health delta carries extra fields: %+v", p)
	}
}

func TestLethalDamageDefeatsPlayerAndEndsGame(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)
	alice.reset()
	bob.reset()

	ack := send(t, s, alice, protocol.TypeChangeOtherPlayerState,
		&protocol.DamagePayload{TargetUserID: "bob", Damage: playerMaxHealth})
	if !ack.Success {
		t.Fatalf("lethal damage rejected: %s", string(ack.Data))
	}

	// Death reaches everyone, the dying player included.
	deltas := broadcastsOfType(t, bob, protocol.TypeRecvPlayerState)
	if len(deltas) != 1 {
		t.Fatalf("expected death delta at bob, got %d broadcasts", len(deltas))
	}
	var p protocol.PlayerStatePayload
	if err := json.Unmarshal(deltas[0].Data, &p); err != nil {
		t.Fatalf("decode death delta: %v", err)
	}
	if p.PlayerType == nil || *p.PlayerType != protocol.PlayerTypeSpectator {
		t.Fatalf("death delta should demote to spectator: %+v", p)
	}
	if p.TexturePrefix == nil || *p.TexturePrefix != spectatorTexturePrefix {
		t.Fatalf("death delta should carry the ghost texture: %+v", p)
	}

	// Bob was the last gnome, so the keepers win and the game ends.
	if s.RunState() != protocol.RunStateEnded {
		t.Fatalf("game should have ended, state %s", s.RunState())
	}
	winner, ok := s.WinningTeam()
	if !ok || winner != protocol.TeamKeepers {
		t.Fatalf("expected keepers to win, got %q ok=%v", winner, ok)
	}
	for name, peer := range map[string]*fakePeer{"alice": alice, "bob": bob} {
		states := broadcastsOfType(t, peer, protocol.TypeRecvGameState)
		if len(states) == 0 {
			t.Fatalf("%s missed the game-over broadcast", name)
		}
		var gs protocol.GameStatePayload
		if err := json.Unmarshal(states[len(states)-1].Data, &gs); err != nil {
			t.Fatalf("decode game state: %v", err)
		}
		if gs.WinningTeam == nil || *gs.WinningTeam != protocol.TeamKeepers {
			t.Fatalf("%s: game-over broadcast missing winner: %+v", name, gs)
		}
	}

	// The defeated player no longer takes damage.
	ack = send(t, s, alice, protocol.TypeChangeOtherPlayerState,
		&protocol.DamagePayload{TargetUserID: "bob", Damage: 1})
	if ack.Success {
		t.Fatalf("damage after game end should fail")
	}
}

func TestDamageUnknownTarget(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	startGame(t, s, alice)

	ack := send(t, s, alice, protocol.TypeChangeOtherPlayerState,
		&protocol.DamagePayload{TargetUserID: "mallory", Damage: 3})
	if ack.Success || ack.Type != protocol.TypeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %s", ack.Type)
	}
	if got := reason(t, ack); got != "Player does not exist." {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestEntityIDAllocationReusesFreedIDs(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	startGame(t, s, alice)

	summon := func() {
		ack := send(t, s, alice, protocol.TypeSummonEntity, &protocol.SummonEntityPayload{
			Type:        protocol.EntityTypeSlug,
			Coordinates: &protocol.Coordinates{X: 1, Y: 1},
		})
		if !ack.Success {
			t.Fatalf("summon rejected: %s", string(ack.Data))
		}
	}
	summon()
	summon()

	s.mu.Lock()
	_, has1 := s.entities[1]
	_, has2 := s.entities[2]
	s.mu.Unlock()
	if !has1 || !has2 {
		t.Fatalf("expected entities 1 and 2 to exist")
	}

	// Removing the newest entity frees its id for the next summon.
	ack := send(t, s, alice, protocol.TypeChangeEntityState,
		&protocol.ChangeEntityStatePayload{EntityID: 2, Despawn: true})
	if !ack.Success {
		t.Fatalf("despawn rejected: %s", string(ack.Data))
	}
	summon()

	s.mu.Lock()
	_, has2 = s.entities[2]
	n := len(s.entities)
	s.mu.Unlock()
	if !has2 || n != 2 {
		t.Fatalf("expected id 2 to be reused, have %d entities", n)
	}
}

func TestSummonRequiresKeeper(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)

	ack := send(t, s, bob, protocol.TypeSummonEntity, &protocol.SummonEntityPayload{
		Type:        protocol.EntityTypeCrow,
		Coordinates: &protocol.Coordinates{X: 0, Y: 0},
	})
	if ack.Success || ack.Type != protocol.TypeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %s", ack.Type)
	}
}

func TestEntityLethalDamageRemovesWithDie(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)

	send(t, s, alice, protocol.TypeSummonEntity, &protocol.SummonEntityPayload{
		Type:        protocol.EntityTypeCrow,
		Coordinates: &protocol.Coordinates{X: 3, Y: 3},
	})
	bob.reset()

	damage := entityMaxHealth(protocol.EntityTypeCrow) + 5
	ack := send(t, s, bob, protocol.TypeChangeEntityState,
		&protocol.ChangeEntityStatePayload{EntityID: 1, Damage: &damage})
	if !ack.Success {
		t.Fatalf("entity damage rejected: %s", string(ack.Data))
	}

	removals := broadcastsOfType(t, bob, protocol.TypeRecvRemoveEntity)
	if len(removals) != 1 {
		t.Fatalf("expected 1 removal broadcast, got %d", len(removals))
	}
	var p protocol.RemoveEntityPayload
	if err := json.Unmarshal(removals[0].Data, &p); err != nil {
		t.Fatalf("decode removal: %v", err)
	}
	if p.EntityID != 1 || p.Reason != protocol.RemovalReasonDie {
		t.Fatalf("unexpected removal payload: %+v", p)
	}

	ack = send(t, s, bob, protocol.TypeGetEntityState, &protocol.GetEntityStatePayload{EntityID: 1})
	if ack.Success {
		t.Fatalf("removed entity still answers GET_ENTITY_STATE")
	}
}

func TestDroppedItemLifecycle(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)
	bob.reset()

	drop := &protocol.DroppedItemPayload{
		ID:       uuid.NewString(),
		Location: &protocol.Coordinates{X: 5, Y: 6},
		ItemType: protocol.ItemTypeFig,
		Quantity: 3,
	}
	ack := send(t, s, alice, protocol.TypeCreateDroppedItem, drop)
	if !ack.Success {
		t.Fatalf("drop rejected: %s", string(ack.Data))
	}
	if got := broadcastsOfType(t, bob, protocol.TypeRecvCreateDroppedItem); len(got) != 1 {
		t.Fatalf("expected 1 drop broadcast at bob, got %d", len(got))
	}
	if got := broadcastsOfType(t, alice, protocol.TypeRecvCreateDroppedItem); len(got) != 0 {
		t.Fatalf("dropper should not hear its own drop")
	}

	ack = send(t, s, alice, protocol.TypeCreateDroppedItem, drop)
	if ack.Success || reason(t, ack) != "Item exists already." {
		t.Fatalf("duplicate drop: got %s %q", ack.Type, string(ack.Data))
	}

	ack = send(t, s, bob, protocol.TypeRemoveDroppedItem, &protocol.RemoveDroppedItemPayload{ID: drop.ID})
	if !ack.Success {
		t.Fatalf("pickup rejected: %s", string(ack.Data))
	}

	ack = send(t, s, bob, protocol.TypeRemoveDroppedItem, &protocol.RemoveDroppedItemPayload{ID: drop.ID})
	if ack.Success || reason(t, ack) != "Item does not exist." {
		t.Fatalf("double pickup: got %s %q", ack.Type, string(ack.Data))
	}
}

func TestChatStampsSender(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	bob.reset()

	ack := send(t, s, alice, protocol.TypeSendChat, &protocol.ChatPayload{UserID: "bob", Text: "hello"})
	if !ack.Success {
		t.Fatalf("chat rejected: %s", string(ack.Data))
	}

	lines := broadcastsOfType(t, bob, protocol.TypeRecvChat)
	if len(lines) != 1 {
		t.Fatalf("expected 1 chat line, got %d", len(lines))
	}
	var p protocol.ChatPayload
	if err := json.Unmarshal(lines[0].Data, &p); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if p.UserID != "alice" || p.Text != "hello" {
		t.Fatalf("chat not stamped with sender: %+v", p)
	}
}

func TestResyncReplaysWorldInOrder(t *testing.T) {
	worldMap := &maps.Map{
		Name: "garden",
		Directives: []maps.Directive{
			{ID: 1, Type: protocol.DirectiveTypeDoor, X: 2, Y: 2},
		},
	}
	s := New(Config{
		ID:         "session-1",
		GameType:   protocol.GameTypeBrawl,
		HostUserID: "alice",
		Keys:       map[string]string{"alice": "key-alice", "bob": "key-bob"},
		Map:        worldMap,
		Publisher:  logging.NopPublisher{},
	})

	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)

	send(t, s, alice, protocol.TypeSummonEntity, &protocol.SummonEntityPayload{
		Type:        protocol.EntityTypeSlug,
		Coordinates: &protocol.Coordinates{X: 1, Y: 1},
	})
	send(t, s, alice, protocol.TypeCreateDroppedItem, &protocol.DroppedItemPayload{
		ID:       "item-1",
		Location: &protocol.Coordinates{X: 2, Y: 2},
		ItemType: protocol.ItemTypeSeed,
		Quantity: 1,
	})
	send(t, s, alice, protocol.TypeInteract, &protocol.InteractionPayload{
		DirectiveType: protocol.DirectiveTypeDoor,
		DirectiveID:   1,
		Action:        protocol.DirectiveActionOpen,
	})

	alice.reset()
	bob.reset()
	ack := send(t, s, bob, protocol.TypeSendState, &protocol.SendStatePayload{})
	if !ack.Success {
		t.Fatalf("resync rejected: %s", string(ack.Data))
	}

	// Only the requester hears the replay.
	if n := len(alice.envelopes(t)); n != 0 {
		t.Fatalf("resync leaked %d frames to alice", n)
	}

	var sequence []protocol.MessageType
	for _, env := range bob.envelopes(t) {
		if env.AckMessageID != nil {
			continue
		}
		sequence = append(sequence, env.Type)
	}
	want := []protocol.MessageType{
		protocol.TypeRecvPlayerState, // alice
		protocol.TypeRecvPlayerState, // bob
		protocol.TypeRecvEntityState,
		protocol.TypeRecvCreateDroppedItem,
		protocol.TypeRecvInteraction,
	}
	if len(sequence) != len(want) {
		t.Fatalf("resync sent %d broadcasts, want %d: %v", len(sequence), len(want), sequence)
	}
	for i := range want {
		if sequence[i] != want[i] {
			t.Fatalf("resync step %d is %s, want %s", i, sequence[i], want[i])
		}
	}

	// Player snapshots are full, not deltas, and arrive host first.
	var first protocol.PlayerStatePayload
	if err := json.Unmarshal(bob.envelopes(t)[0].Data, &first); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if first.UserID != "alice" || !first.Complete() {
		t.Fatalf("first resync snapshot incomplete: %+v", first)
	}
}

func TestResyncRequiresPlaying(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")

	ack := send(t, s, alice, protocol.TypeSendState, &protocol.SendStatePayload{})
	if ack.Success || ack.Type != protocol.TypeIllegalState {
		t.Fatalf("expected ILLEGAL_STATE, got %s", ack.Type)
	}
}

func TestSendFailureDropsPeerWithoutAbortingFanout(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	carol := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	connect(t, s, carol, "carol", "key-carol")
	startGame(t, s, alice)
	carol.reset()

	bob.mu.Lock()
	bob.fail = true
	bob.mu.Unlock()

	ack := send(t, s, alice, protocol.TypeChangePlayerState, &protocol.PlayerStatePayload{
		Coordinates: &protocol.Coordinates{X: 7, Y: 7},
	})
	if !ack.Success {
		t.Fatalf("move rejected: %s", string(ack.Data))
	}

	if got := broadcastsOfType(t, carol, protocol.TypeRecvPlayerState); len(got) != 1 {
		t.Fatalf("carol should still receive the delta, got %d", len(got))
	}

	s.mu.Lock()
	_, bound := s.peers["bob"]
	connected := s.users["bob"].Connected
	s.mu.Unlock()
	if bound || connected {
		t.Fatalf("failed peer should be dropped and marked disconnected")
	}
	if !bob.closed {
		t.Fatalf("failed peer should be closed")
	}
}

func TestDisconnectKeepsStateForRejoin(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")
	startGame(t, s, alice)

	send(t, s, bob, protocol.TypeChangePlayerState, &protocol.PlayerStatePayload{
		Coordinates: &protocol.Coordinates{X: 11, Y: 12},
	})
	ack := send(t, s, bob, protocol.TypeDisconnect, &protocol.DisconnectPayload{})
	if !ack.Success {
		t.Fatalf("disconnect rejected: %s", string(ack.Data))
	}

	// State survives; position is still where bob left it.
	s.mu.Lock()
	user := s.users["bob"]
	x, connected := user.X, user.Connected
	s.mu.Unlock()
	if connected || x != 11 {
		t.Fatalf("disconnect lost state: connected=%v x=%v", connected, x)
	}

	rejoined := &fakePeer{}
	connect(t, s, rejoined, "bob", "key-bob")
	ack = send(t, s, rejoined, protocol.TypeGetGameState, &protocol.GetGameStatePayload{})
	if !ack.Success || ack.Type != protocol.TypeRecvGameState {
		t.Fatalf("rejoin GET_GAME_STATE failed: %s", ack.Type)
	}
}

func TestGetGameStateRoster(t *testing.T) {
	s := newTestSession()
	alice := &fakePeer{}
	bob := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	connect(t, s, bob, "bob", "key-bob")

	ack := send(t, s, bob, protocol.TypeGetGameState, &protocol.GetGameStatePayload{})
	if !ack.Success || ack.Type != protocol.TypeRecvGameState {
		t.Fatalf("unexpected ack %s success=%v", ack.Type, ack.Success)
	}

	var gs protocol.GameStatePayload
	if err := json.Unmarshal(ack.Data, &gs); err != nil {
		t.Fatalf("decode game state: %v", err)
	}
	if gs.RunState == nil || *gs.RunState != protocol.RunStateLobby {
		t.Fatalf("missing run state: %+v", gs)
	}
	if gs.HostUserID == nil || *gs.HostUserID != "alice" {
		t.Fatalf("missing host: %+v", gs)
	}
	if len(gs.Players) != 2 || gs.Players[0].UserID != "alice" || gs.Players[1].UserID != "bob" {
		t.Fatalf("unexpected roster: %+v", gs.Players)
	}
	if gs.Players[0].PlayerType == nil || *gs.Players[0].PlayerType != protocol.PlayerTypeKeeper {
		t.Fatalf("host should be the keeper: %+v", gs.Players[0])
	}
}

func TestStartSeedsMapEntities(t *testing.T) {
	worldMap := &maps.Map{
		Name: "garden",
		Entities: []maps.EntitySpawn{
			{Type: protocol.EntityTypeScarecrow, X: 10, Y: 10},
			{Type: protocol.EntityTypeSlug, X: 20, Y: 20},
		},
	}
	s := New(Config{
		ID:         "session-1",
		GameType:   protocol.GameTypeBrawl,
		HostUserID: "alice",
		Keys:       map[string]string{"alice": "key-alice"},
		Map:        worldMap,
		Publisher:  logging.NopPublisher{},
	})
	alice := &fakePeer{}
	connect(t, s, alice, "alice", "key-alice")
	startGame(t, s, alice)

	states := broadcastsOfType(t, alice, protocol.TypeRecvEntityState)
	if len(states) != 2 {
		t.Fatalf("expected 2 seeded entity broadcasts, got %d", len(states))
	}
	for _, env := range states {
		var p protocol.EntityStatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			t.Fatalf("decode seeded entity: %v", err)
		}
		if !p.Complete() {
			t.Fatalf("seeded entity broadcast is not a full snapshot: %+v", p)
		}
	}
}
