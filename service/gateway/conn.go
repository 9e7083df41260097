package gateway

import (
	"sync"
	"time"

	"WProject/logger"
	"WProject/service/auth"
	"WProject/tools/ids"

	"github.com/gorilla/websocket"
)

// WsConn is one live client session over the websocket transport. The
// reader goroutine owns all inbound processing; outbound frames go through
// a buffered queue drained by a dedicated writer goroutine, so publishers
// never block on a slow peer.
type WsConn struct {
	snowID string
	ws     *websocket.Conn

	sendCh    chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	writeWait    time.Duration
	pingInterval time.Duration

	mu       sync.Mutex
	identity auth.Identity
	rooms    []string
}

func newWsConn(ws *websocket.Conn, queue int, writeWait, pingInterval time.Duration) *WsConn {
	return &WsConn{
		snowID:       ids.GenerateString(),
		ws:           ws,
		sendCh:       make(chan []byte, queue),
		closed:       make(chan struct{}),
		writeWait:    writeWait,
		pingInterval: pingInterval,
	}
}

// ID returns the connection handle.
func (c *WsConn) ID() string { return c.snowID }

func (c *WsConn) Identity() auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *WsConn) setIdentity(id auth.Identity) {
	c.mu.Lock()
	c.identity = id
	c.mu.Unlock()
}

// Rooms returns a copy of the joined-room list, in join order.
func (c *WsConn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.rooms))
	copy(out, c.rooms)
	return out
}

func (c *WsConn) HasRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.rooms {
		if r == room {
			return true
		}
	}
	return false
}

func (c *WsConn) addRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = append(c.rooms, room)
}

func (c *WsConn) removeRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rooms {
		if r == room {
			c.rooms = append(c.rooms[:i], c.rooms[i+1:]...)
			return
		}
	}
}

// Deliver enqueues an outbound frame. Fire-and-forget: a full queue or a
// closed connection drops the frame with a log line instead of blocking
// the publisher.
func (c *WsConn) Deliver(payload []byte) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.sendCh <- payload:
	default:
		logger.Warnf("[ws] send queue full, drop frame snowID=%s", c.snowID)
	}
}

// writeLoop drains the send queue onto the socket and keeps the peer alive
// with periodic pings. Runs until close().
func (c *WsConn) writeLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.sendCh:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[ws] write err snowID=%s err=%v", c.snowID, err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.writeWait)); err != nil {
				return
			}
		}
	}
}

// close tears the transport down; further Deliver calls become no-ops.
func (c *WsConn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if err := c.ws.Close(); err != nil {
			logger.Debug("[ws] close: " + err.Error())
		}
	})
}
