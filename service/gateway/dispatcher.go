package gateway

import (
	"encoding/json"
	"strings"
	"sync"

	"WProject/logger"
)

// Dispatcher holds the process-wide, append-only list of handler
// factories. Factories are registered at startup; every new connection gets
// one handler instance per factory, in registration order.
type Dispatcher struct {
	mu        sync.RWMutex
	factories []HandlerFactory
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register appends a handler factory. Startup-time only; there is no
// removal.
func (d *Dispatcher) Register(f HandlerFactory) {
	if f == nil {
		return
	}
	d.mu.Lock()
	d.factories = append(d.factories, f)
	total := len(d.factories)
	d.mu.Unlock()
	logger.Infof("[dispatcher] registered handler factory (total=%d)", total)
}

// Bind instantiates the registered handlers for one session.
func (d *Dispatcher) Bind(s *Session) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Handler, 0, len(d.factories))
	for _, f := range d.factories {
		out = append(out, f(s))
	}
	return out
}

// Dispatch routes a data-frame payload to every bound handler exposing the
// derived action. A schema violation is returned to the caller (and treated
// as a protocol violation there); a failing action is logged and isolated
// so the remaining handlers and the connection continue.
func (d *Dispatcher) Dispatch(hs []Handler, payload json.RawMessage) error {
	req, err := ParseRequest(payload)
	if err != nil {
		return err
	}

	name := ActionName(req.Request)
	for _, h := range hs {
		fn, ok := h.Actions()[name]
		if !ok {
			continue
		}
		invoke(name, fn, req)
	}
	return nil
}

func invoke(name string, fn ActionFunc, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[dispatcher] action=%s panic recovered: %v", name, r)
		}
	}()
	var data any
	if req.HasData {
		data = req.Data
	}
	if err := fn(data); err != nil {
		logger.Errorf("[dispatcher] action=%s err: %v", name, err)
	}
}

// ActionName derives the action key from a request name: lowercased,
// spaces replaced with underscores ("Join Room" -> "join_room").
func ActionName(request string) string {
	return strings.ReplaceAll(strings.ToLower(request), " ", "_")
}
