package gateway

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"WProject/logger"
	"WProject/service/auth"
	"WProject/service/broadcast"
	"WProject/tools/errs"
	"WProject/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Options tunes the per-connection transport and auth behavior.
type Options struct {
	ReadLimit    int64
	PongWait     time.Duration
	PingInterval time.Duration
	WriteWait    time.Duration
	SendQueue    int
	AuthTimeout  time.Duration

	// RestoreOnAuthFail re-registers the pre-attempt registry entry after
	// a failed auth, so an open connection keeps counting. Off by default:
	// the source-compatible behavior leaves no entry until the next
	// successful auth or disconnect.
	RestoreOnAuthFail bool
}

func (o *Options) norm() {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20 // 1MB
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 4 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendQueue <= 0 {
		o.SendQueue = 256
	}
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = 2 * time.Second
	}
}

// FrameFunc is the next-layer hook for frame categories the base protocol
// does not know. The base layer passes such frames through unmodified.
type FrameFunc func(s *Session, f *Frame)

// Server is the connection state machine: it owns the
// connect/auth/disconnect lifecycle and routes inbound frames by category.
// Frames of one connection are handled sequentially on its reader
// goroutine; coordination across connections happens only through the
// injected Manager and Broadcaster.
type Server struct {
	opts  Options
	mgr   *Manager
	disp  *Dispatcher
	authn auth.Authenticator
	bus   broadcast.Broadcaster
	next  FrameFunc
}

func NewServer(mgr *Manager, disp *Dispatcher, authn auth.Authenticator, bus broadcast.Broadcaster, opts Options) *Server {
	safe.MustNotNil(mgr, "manager")
	safe.MustNotNil(disp, "dispatcher")
	safe.MustNotNil(authn, "authenticator")
	safe.MustNotNil(bus, "broadcaster")
	opts.norm()
	return &Server{opts: opts, mgr: mgr, disp: disp, authn: authn, bus: bus}
}

// OnFrame installs the next-layer hook for unknown frame categories.
// Startup-time only.
func (s *Server) OnFrame(fn FrameFunc) { s.next = fn }

// Manager exposes the registry for the HTTP side (stats, checks).
func (s *Server) Manager() *Manager { return s.mgr }

// HandleWS upgrades the request and runs the connection to completion.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error: %v", err)
		return
	}

	conn := newWsConn(ws, s.opts.SendQueue, s.opts.WriteWait, s.opts.PingInterval)
	sess := &Session{conn: conn, srv: s}
	handlers := s.disp.Bind(sess)

	s.connect(c.Request, conn, handlers)
	s.readLoop(sess, conn, handlers)
	s.disconnect(conn, handlers)
}

// connect registers the new connection and sends the opening auth notice.
// A valid bearer token on the upgrade request counts as a previously
// authenticated transport session: the connection starts authenticated.
func (s *Server) connect(r *http.Request, conn *WsConn, handlers []Handler) {
	identity := auth.Identity{}
	if tok := bearerFromRequest(r); tok != "" {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.AuthTimeout)
		if id, err := s.authn.FindUser(ctx, []byte(tok)); err == nil {
			identity = id
		}
		cancel()
	}

	conn.setIdentity(identity)
	s.mgr.Register(conn, identity)
	go conn.writeLoop()

	for _, h := range handlers {
		runHook("connect", h.Connect)
	}

	if identity.Anonymous() {
		conn.Deliver(EncodeAuth(StatusWhoAreYou))
	} else {
		s.bus.Subscribe(identity.ID, conn)
		conn.Deliver(EncodeAuth(StatusSuccess))
	}
}

func (s *Server) readLoop(sess *Session, conn *WsConn, handlers []Handler) {
	ws := conn.ws
	ws.SetReadLimit(s.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed snowID=%s", conn.ID())
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout snowID=%s err=%v", conn.ID(), rerr)
			} else {
				logger.Infof("[ws] read err snowID=%s err=%v", conn.ID(), rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		_ = ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))

		frame, perr := ParseFrame(data)
		if perr != nil {
			// Protocol violation: close, log, no response.
			logger.Errorf("[ws] bad frame snowID=%s err=%v", conn.ID(), perr)
			return
		}

		switch frame.Category {
		case CategoryAuth:
			s.handleAuth(conn, frame.Payload)
		case CategoryData:
			if derr := s.disp.Dispatch(handlers, frame.Payload); derr != nil {
				logger.Errorf("[ws] bad data frame snowID=%s err=%v", conn.ID(), derr)
				return
			}
		default:
			if s.next != nil {
				s.next(sess, frame)
			}
		}
	}
}

// handleAuth runs one credential attempt. The entry is removed for the
// duration of the attempt so the connection is never double-counted; on
// failure it stays absent (unless RestoreOnAuthFail), the peer gets a
// TOKENEXPIRED notice, and the connection stays open for a retry.
func (s *Server) handleAuth(conn *WsConn, payload []byte) {
	prev := conn.Identity()
	if err := s.mgr.Unregister(conn, prev); err != nil {
		logger.Debug("[ws] auth unregister: entry absent snowID=" + conn.ID())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.AuthTimeout)
	identity, err := s.authn.FindUser(ctx, credentialBytes(payload))
	cancel()
	if err != nil {
		if s.opts.RestoreOnAuthFail {
			s.mgr.Register(conn, prev)
		}
		if errs.ErrInvalidCredentials.Is(err) || errs.ErrInvalidToken.Is(err) {
			logger.Infof("[ws] auth failed snowID=%s: %v", conn.ID(), err)
		} else {
			logger.Errorf("[ws] authenticator err snowID=%s: %v", conn.ID(), err)
		}
		conn.Deliver(EncodeAuth(StatusTokenExpired))
		return
	}

	conn.setIdentity(identity)
	s.mgr.Register(conn, identity)
	// Private per-user group: lets server-side pushes target this user
	// regardless of room membership. A changed identity releases the old
	// group first, so pushes for the previous user stop reaching this
	// connection. Bus membership settles before the peer sees SUCCESS.
	if !prev.Anonymous() && prev.ID != identity.ID {
		s.bus.Unsubscribe(prev.ID, conn)
	}
	s.bus.Subscribe(identity.ID, conn)
	conn.Deliver(EncodeAuth(StatusSuccess))
}

// disconnect unwinds the connection: registry entry out first so population
// counts no longer include it, then broadcaster subscriptions, then the
// handler hooks (which broadcast the updated counts to former rooms).
func (s *Server) disconnect(conn *WsConn, handlers []Handler) {
	if err := s.mgr.Unregister(conn, conn.Identity()); err != nil {
		logger.Debug("[ws] disconnect: entry absent snowID=" + conn.ID())
	}

	for _, room := range conn.Rooms() {
		s.bus.Unsubscribe(room, conn)
	}
	if id := conn.Identity(); !id.Anonymous() {
		s.bus.Unsubscribe(id.ID, conn)
	}

	for _, h := range handlers {
		runHook("disconnect", h.Disconnect)
	}

	conn.close()
}

func runHook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[ws] handler %s hook panic recovered: %v", name, r)
		}
	}()
	fn()
}

// credentialBytes unwraps a JSON string payload to its raw value; anything
// else goes to the validator as-is and fails there.
func credentialBytes(payload []byte) []byte {
	var tok string
	if err := json.Unmarshal(payload, &tok); err == nil {
		return []byte(tok)
	}
	return payload
}

func bearerFromRequest(r *http.Request) string {
	if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
		return tok
	}
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return ""
}
