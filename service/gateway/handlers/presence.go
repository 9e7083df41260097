package handlers

import (
	"WProject/service/gateway"
	"WProject/tools/decode"
	"WProject/tools/errs"
)

// Install registers the default handler set on a dispatcher. Call once at
// startup, before the first connection is accepted.
func Install(d *gateway.Dispatcher) {
	d.Register(func(s *gateway.Session) gateway.Handler { return NewPresence(s) })
}

// Presence is the default handler: identity echo, room membership, and
// room population notices.
type Presence struct {
	s       *gateway.Session
	actions map[string]gateway.ActionFunc
}

func NewPresence(s *gateway.Session) *Presence {
	p := &Presence{s: s}
	p.actions = map[string]gateway.ActionFunc{
		"who_am_i":   p.whoAmI,
		"join_room":  p.joinRoom,
		"leave_room": p.leaveRoom,
	}
	return p
}

func (p *Presence) Connect() {}

// Disconnect tells every room this connection was in about its new
// population. Runs after the registry entry is gone, so the counts already
// exclude the leaving identity.
func (p *Presence) Disconnect() {
	for _, room := range p.s.Rooms() {
		p.broadcastCount(room)
	}
}

func (p *Presence) Actions() map[string]gateway.ActionFunc { return p.actions }

func (p *Presence) whoAmI(_ any) error {
	id := p.s.Identity()
	p.s.Send(gateway.NewSuccess("WHO AM I", map[string]any{"user": id}))
	return nil
}

func (p *Presence) joinRoom(data any) error {
	room, err := roomName(data)
	if err != nil {
		return err
	}
	p.s.JoinRoom(room)
	p.s.Send(gateway.NewSuccess("JOIN ROOM", map[string]any{"room": room}))
	p.broadcastCount(room)
	return nil
}

func (p *Presence) leaveRoom(data any) error {
	room, err := roomName(data)
	if err != nil {
		return err
	}
	p.s.LeaveRoom(room)
	p.s.Send(gateway.NewSuccess("LEAVE ROOM", map[string]any{"room": room}))
	p.broadcastCount(room)
	return nil
}

func (p *Presence) broadcastCount(room string) {
	p.s.SendToRoom(room, gateway.NewSuccess("COUNT PERSON", map[string]any{
		"count": p.s.CountInRoom(room),
	}))
}

type roomPayload struct {
	Room string `json:"room"`
}

// roomName accepts the room either as a bare string or as {"room": name}.
func roomName(data any) (string, error) {
	switch v := data.(type) {
	case string:
		if v == "" {
			return "", errs.ErrInvalidData.WithDetail("empty room name")
		}
		return v, nil
	case map[string]any:
		rp, err := decode.To[roomPayload](v)
		if err != nil {
			return "", err
		}
		if rp.Room == "" {
			return "", errs.ErrInvalidData.WithDetail("empty room name")
		}
		return rp.Room, nil
	default:
		return "", errs.ErrInvalidData.WithDetail("room name missing")
	}
}
