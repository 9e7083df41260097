package gateway

import (
	"context"

	"WProject/logger"
	"WProject/service/auth"
)

// ActionFunc is one client-invokable operation. data is the decoded "data"
// member of the request, or nil when absent.
type ActionFunc func(data any) error

// Handler is the per-connection lifecycle + dispatch capability. Actions
// returns the handler's explicit action table; only names present there are
// client-invokable, which is what keeps internal methods unreachable.
type Handler interface {
	Connect()
	Disconnect()
	Actions() map[string]ActionFunc
}

// HandlerFactory builds one handler instance bound to a session.
type HandlerFactory func(s *Session) Handler

// Session is the surface handlers get for the connection they are bound
// to: identity, room membership, and the two send paths.
type Session struct {
	conn *WsConn
	srv  *Server
}

func (s *Session) ID() string              { return s.conn.ID() }
func (s *Session) Identity() auth.Identity { return s.conn.Identity() }
func (s *Session) Rooms() []string         { return s.conn.Rooms() }

// Send unicasts an envelope to this session's own connection.
func (s *Session) Send(r *Response) {
	payload, err := EncodeData(r)
	if err != nil {
		logger.Errorf("[session] encode response=%s: %v", r.Response, err)
		return
	}
	s.conn.Deliver(payload)
}

// SendToRoom broadcasts an envelope to every connection subscribed to the
// room, this one included. Fire-and-forget.
func (s *Session) SendToRoom(room string, r *Response) {
	payload, err := EncodeData(r)
	if err != nil {
		logger.Errorf("[session] encode response=%s: %v", r.Response, err)
		return
	}
	if err := s.srv.bus.Publish(context.Background(), room, payload); err != nil {
		logger.Errorf("[session] publish room=%s: %v", room, err)
	}
}

// JoinRoom subscribes the connection to a room's broadcasts and records
// the membership for population queries.
func (s *Session) JoinRoom(room string) {
	s.srv.bus.Subscribe(room, s.conn)
	s.conn.addRoom(room)
}

// LeaveRoom undoes JoinRoom.
func (s *Session) LeaveRoom(room string) {
	s.srv.bus.Unsubscribe(room, s.conn)
	s.conn.removeRoom(room)
}

// CountInRoom reports the room's distinct authenticated identity count.
func (s *Session) CountInRoom(room string) int {
	return s.srv.mgr.CountInRoom(room)
}
