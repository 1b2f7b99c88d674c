package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	defaultQueueSize = 256
)

var errQueueFull = errors.New("peer send queue full")
var errPeerClosed = errors.New("peer closed")

// peer adapts one websocket connection to the session's Peer interface.
// Send never blocks: frames go onto a buffered queue that the write pump
// drains, and a full queue is reported as a send failure so the session can
// drop the laggard instead of stalling everyone behind its lock.
type peer struct {
	conn *websocket.Conn
	out  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newPeer(conn *websocket.Conn, queueSize int) *peer {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	p := &peer{
		conn: conn,
		out:  make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
	go p.writePump()
	return p
}

func (p *peer) Send(data []byte) error {
	select {
	case <-p.done:
		return errPeerClosed
	default:
	}
	select {
	case p.out <- data:
		return nil
	default:
		return errQueueFull
	}
}

func (p *peer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

func (p *peer) writePump() {
	defer p.conn.Close()
	for {
		select {
		case data := <-p.out:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				p.Close()
				return
			}
		case <-p.done:
			message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, message)
			return
		}
	}
}
