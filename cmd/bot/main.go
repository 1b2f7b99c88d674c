// Command bot drives a live server end to end: two scripted clients connect,
// start a game, move, fight and chat, verifying each step through their
// mirrored world state. Useful as a smoke test against a deployed build.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"garden-brawl/server/internal/mirror"
	"garden-brawl/server/internal/protocol"
)

type botClient struct {
	userID string
	conn   *websocket.Conn
	world  *mirror.World
	acks   chan *protocol.Envelope

	writeMu sync.Mutex
}

func newBotClient(ctx context.Context, url, sessionID, userID, key string) (*botClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url+"?session="+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	client := &botClient{
		userID: userID,
		conn:   conn,
		acks:   make(chan *protocol.Envelope, 32),
	}
	client.world = mirror.NewWorld(client)
	go client.readLoop()

	if _, err := client.request(ctx, protocol.TypeConnect, &protocol.ConnectPayload{
		UserID: userID,
		Key:    key,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect %s: %w", userID, err)
	}
	return client, nil
}

func (c *botClient) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			close(c.acks)
			return
		}
		env, err := protocol.DecodeEnvelope(payload)
		if err != nil {
			continue
		}
		if env.AckMessageID != nil {
			select {
			case c.acks <- env:
			default:
			}
			continue
		}
		c.world.Apply(env)
	}
}

func (c *botClient) send(msg protocol.MessageType, payload any) (*uuid.UUID, error) {
	env, err := protocol.NewRequest(msg, payload)
	if err != nil {
		return nil, err
	}
	data, err := env.Encode()
	if err != nil {
		return nil, err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, err
	}
	return env.MessageID, nil
}

// request sends one command and waits for its ack.
func (c *botClient) request(ctx context.Context, msg protocol.MessageType, payload any) (*protocol.Envelope, error) {
	id, err := c.send(msg, payload)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case ack, ok := <-c.acks:
			if !ok {
				return nil, fmt.Errorf("connection closed waiting for %s ack", msg)
			}
			if *ack.AckMessageID != *id {
				continue
			}
			if !ack.Success {
				return ack, fmt.Errorf("%s rejected: %s", msg, string(ack.Data))
			}
			return ack, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for %s ack", msg)
		}
	}
}

// RequestEntityState implements mirror.Requester.
func (c *botClient) RequestEntityState(entityID int64) {
	c.send(protocol.TypeGetEntityState, &protocol.GetEntityStatePayload{EntityID: entityID})
}

// RequestResync implements mirror.Requester.
func (c *botClient) RequestResync() {
	c.send(protocol.TypeSendState, &protocol.SendStatePayload{})
}

func (c *botClient) close() {
	c.conn.Close()
}

// waitFor polls the mirror until the condition holds or the context expires.
func waitFor(ctx context.Context, what string, cond func() bool) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		if cond() {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %s", what)
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "bot: %v\n", err)
	os.Exit(1)
}

func main() {
	wsURL := flag.String("url", "ws://localhost:8080/ws", "server websocket url")
	sessionID := flag.String("session", "local", "session id to join")
	hostID := flag.String("host", "host", "host user id")
	hostKey := flag.String("host-key", "dev-key", "host connect key")
	guestID := flag.String("guest", "guest", "guest user id")
	guestKey := flag.String("guest-key", "guest-key", "guest connect key")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	host, err := newBotClient(ctx, *wsURL, *sessionID, *hostID, *hostKey)
	if err != nil {
		fail(err)
	}
	defer host.close()

	guest, err := newBotClient(ctx, *wsURL, *sessionID, *guestID, *guestKey)
	if err != nil {
		fail(err)
	}
	defer guest.close()

	if _, err := host.request(ctx, protocol.TypeChangeGameState, &protocol.ChangeGameStatePayload{
		RunState: protocol.RunStatePlaying,
	}); err != nil {
		fail(err)
	}
	if err := waitFor(ctx, "guest to see the game start", func() bool {
		return guest.world.RunState() == protocol.RunStatePlaying
	}); err != nil {
		fail(err)
	}

	if _, err := guest.request(ctx, protocol.TypeChangePlayerState, &protocol.PlayerStatePayload{
		Coordinates: &protocol.Coordinates{X: 12, Y: 34},
	}); err != nil {
		fail(err)
	}
	if err := waitFor(ctx, "host to see the guest move", func() bool {
		player, ok := host.world.Player(*guestID)
		if !ok {
			return false
		}
		pos := player.Position()
		return pos.X == 12 && pos.Y == 34
	}); err != nil {
		fail(err)
	}

	if _, err := host.request(ctx, protocol.TypeSummonEntity, &protocol.SummonEntityPayload{
		Type:        protocol.EntityTypeSlug,
		Coordinates: &protocol.Coordinates{X: 5, Y: 5},
	}); err != nil {
		fail(err)
	}
	if err := waitFor(ctx, "guest to see the summoned entity", func() bool {
		entity, ok := guest.world.Entity(1)
		return ok && entity.CurrentHealth() > 0
	}); err != nil {
		fail(err)
	}

	if _, err := host.request(ctx, protocol.TypeChangeOtherPlayerState, &protocol.DamagePayload{
		TargetUserID: *guestID,
		Damage:       5,
	}); err != nil {
		fail(err)
	}
	if err := waitFor(ctx, "guest to see its own health drop", func() bool {
		player, ok := guest.world.Player(*guestID)
		return ok && player.CurrentHealth() == 15
	}); err != nil {
		fail(err)
	}

	if _, err := guest.request(ctx, protocol.TypeSendChat, &protocol.ChatPayload{
		Text: "good game",
	}); err != nil {
		fail(err)
	}

	if _, err := guest.request(ctx, protocol.TypeSendState, &protocol.SendStatePayload{}); err != nil {
		fail(err)
	}

	fmt.Println("bot run succeeded")
}
