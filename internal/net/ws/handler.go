package ws

import (
	"log"
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"garden-brawl/server/internal/session"
)

// SessionResolver maps a wire session id onto a live session.
type SessionResolver func(id string) (*session.Session, bool)

type HandlerConfig struct {
	Logger    *log.Logger
	QueueSize int
}

// Handler upgrades /ws requests and pumps frames between the connection and
// the session dispatcher. Authentication happens in-band via CONNECT, not at
// upgrade time; an unauthenticated peer can hold a socket but every command
// fails until it presents a valid key.
type Handler struct {
	resolve   SessionResolver
	logger    *log.Logger
	upgrader  websocket.Upgrader
	queueSize int
}

func NewHandler(resolve SessionResolver, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		resolve:   resolve,
		logger:    logger,
		upgrader:  upgrader,
		queueSize: cfg.QueueSize,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		nethttp.Error(w, "missing session", nethttp.StatusBadRequest)
		return
	}

	sess, ok := h.resolve(sessionID)
	if !ok {
		nethttp.Error(w, "unknown session", nethttp.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for session %s: %v", sessionID, err)
		return
	}

	p := newPeer(conn, h.queueSize)
	defer p.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			sess.HandleTransportFailure(p)
			return
		}
		sess.HandleMessage(p, payload)
	}
}
