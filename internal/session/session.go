package session

import (
	"context"
	"sync"
	"time"

	"garden-brawl/server/internal/maps"
	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/logging"
	logginglifecycle "garden-brawl/server/logging/lifecycle"
)

// Peer is one client's outbound channel. Send must not block: transport
// implementations queue writes and report an error when the queue is full or
// the connection is gone.
type Peer interface {
	Send(data []byte) error
	Close()
}

// Config carries everything a session needs at construction. The session id,
// host identity, and connect keys come from the lobby service that
// bootstrapped the game.
type Config struct {
	ID         string
	GameType   protocol.GameType
	HostUserID string
	Keys       map[string]string
	Map        *maps.Map
	Publisher  logging.Publisher
	Clock      func() time.Time
}

// Session owns the authoritative state of one running game: connected users,
// entities, dropped items, and the interaction log. A single mutex guards all
// of it; handlers run one at a time per session while fan-out sends stay
// non-blocking per recipient.
type Session struct {
	mu        sync.Mutex
	id        string
	gameType  protocol.GameType
	registry  *registry
	publisher logging.Publisher
	now       func() time.Time

	runState    protocol.RunState
	hostUserID  string
	winningTeam protocol.Team
	users       map[string]*UserState
	entities    map[int64]*EntityState
	droppedItems map[string]*DroppedItemState
	interactions []protocol.InteractionPayload

	peers    map[string]Peer
	bindings map[Peer]string
	keys     map[string]string
	worldMap *maps.Map
}

// New constructs a session in the LOBBY state.
func New(cfg Config) *Session {
	if cfg.GameType == "" {
		cfg.GameType = protocol.GameTypeBrawl
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	s := &Session{
		id:           cfg.ID,
		gameType:     cfg.GameType,
		registry:     newRegistry(),
		publisher:    logging.ForSession(cfg.Publisher, cfg.ID),
		now:          cfg.Clock,
		runState:     protocol.RunStateLobby,
		hostUserID:   cfg.HostUserID,
		users:        make(map[string]*UserState),
		entities:     make(map[int64]*EntityState),
		droppedItems: make(map[string]*DroppedItemState),
		interactions: make([]protocol.InteractionPayload, 0),
		peers:        make(map[string]Peer),
		bindings:     make(map[Peer]string),
		keys:         make(map[string]string, len(cfg.Keys)),
		worldMap:     cfg.Map,
	}
	for userID, key := range cfg.Keys {
		s.keys[userID] = key
	}
	logginglifecycle.SessionCreated(context.Background(), s.publisher,
		logging.EntityRef{ID: s.id, Kind: logging.EntityKindSession})
	return s
}

func (s *Session) ID() string { return s.id }

// RunState returns the current lifecycle phase.
func (s *Session) RunState() protocol.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runState
}

// WinningTeam returns the winner once the session has ended.
func (s *Session) WinningTeam() (protocol.Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winningTeam, s.winningTeam != ""
}

// userLocked returns the state for the given user, creating it lazily. The
// host becomes the keeper; everyone else joins as a gnome.
func (s *Session) userLocked(userID string) *UserState {
	if user, ok := s.users[userID]; ok {
		return user
	}
	playerType := protocol.PlayerTypeGnome
	if userID == s.hostUserID {
		playerType = protocol.PlayerTypeKeeper
	}
	user := newUserState(userID, playerType)
	if s.worldMap != nil {
		for _, spawn := range s.worldMap.Spawns {
			if spawn.Role == playerType {
				user.X = spawn.X
				user.Y = spawn.Y
				break
			}
		}
	}
	s.users[userID] = user
	return user
}

// nextEntityIDLocked allocates an id one above the highest live entity id.
// Removing the top entity frees its id for the next summon; ids are unique
// among live entities only, not across the session's history.
func (s *Session) nextEntityIDLocked() int64 {
	var max int64
	for id := range s.entities {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// authenticate validates a connect key. Users without a provisioned key are
// rejected; the lobby service hands keys out when the game is created.
func (s *Session) authenticateLocked(userID, key string) bool {
	expected, ok := s.keys[userID]
	if !ok {
		return false
	}
	return expected == key
}

// requireConnected resolves the sender and checks the connection precondition
// shared by every command except CONNECT.
func (s *Session) requireConnectedLocked(senderID string) (*UserState, error) {
	if senderID == "" {
		return nil, illegalStatef("Not connected.")
	}
	user, ok := s.users[senderID]
	if !ok || !user.Connected {
		return nil, illegalStatef("Not connected.")
	}
	return user, nil
}

func (s *Session) requirePlayingLocked() error {
	if s.runState != protocol.RunStatePlaying {
		return illegalStatef("Game is not in progress.")
	}
	return nil
}

// checkWinLocked ends the game when one team with at least one member has no
// one left standing. Called after every player death.
func (s *Session) checkWinLocked(createdAt int64) {
	if s.runState != protocol.RunStatePlaying {
		return
	}

	members := map[protocol.Team]int{}
	alive := map[protocol.Team]int{}
	for _, user := range s.users {
		members[user.Team]++
		if user.PlayerType != protocol.PlayerTypeSpectator {
			alive[user.Team]++
		}
	}

	var winner protocol.Team
	switch {
	case members[protocol.TeamGnomes] > 0 && alive[protocol.TeamGnomes] == 0:
		winner = protocol.TeamKeepers
	case members[protocol.TeamKeepers] > 0 && alive[protocol.TeamKeepers] == 0:
		winner = protocol.TeamGnomes
	default:
		return
	}

	previous := s.runState
	s.runState = protocol.RunStateEnded
	s.winningTeam = winner

	logginglifecycle.RunStateChanged(context.Background(), s.publisher,
		logging.EntityRef{ID: s.id, Kind: logging.EntityKindSession},
		logginglifecycle.RunStatePayload{
			From:        string(previous),
			To:          string(s.runState),
			WinningTeam: string(winner),
		})

	payload := &protocol.GameStatePayload{
		RunState:    runStatePtr(s.runState),
		WinningTeam: teamPtr(winner),
	}
	s.invokeLocked(protocol.TypeRecvGameState, fanoutIncludingAll(), payload, createdAt)
	s.invokeLocked(protocol.TypeRecvSystemMessage, fanoutIncludingAll(),
		&protocol.SystemMessagePayload{Text: "Game over! Winning team: " + string(winner)}, createdAt)
}

// DiagnosticsSnapshot exposes connection data for the diagnostics endpoint.
func (s *Session) DiagnosticsSnapshot() DiagnosticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]DiagnosticsUser, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, DiagnosticsUser{
			UserID:     user.UserID,
			Connected:  user.Connected,
			PlayerType: string(user.PlayerType),
			Health:     user.Health,
		})
	}
	return DiagnosticsSnapshot{
		SessionID:    s.id,
		RunState:     string(s.runState),
		Users:        users,
		Entities:     len(s.entities),
		DroppedItems: len(s.droppedItems),
		Interactions: len(s.interactions),
	}
}

type DiagnosticsSnapshot struct {
	SessionID    string            `json:"sessionId"`
	RunState     string            `json:"runState"`
	Users        []DiagnosticsUser `json:"users"`
	Entities     int               `json:"entities"`
	DroppedItems int               `json:"droppedItems"`
	Interactions int               `json:"interactions"`
}

type DiagnosticsUser struct {
	UserID     string `json:"userId"`
	Connected  bool   `json:"connected"`
	PlayerType string `json:"playerType"`
	Health     int    `json:"health"`
}
