package broadcast

import (
	"context"
	"sync"
)

// Memory is the in-process broadcaster: a mutex-guarded map from group name
// to subscribed connections. It is the default driver and the local delivery
// stage for the Redis and NATS drivers.
type Memory struct {
	mu     sync.RWMutex
	groups map[string]map[string]Conn // group -> conn id -> conn
}

func NewMemory() *Memory {
	return &Memory{groups: make(map[string]map[string]Conn)}
}

func (m *Memory) Subscribe(group string, c Conn) {
	if group == "" || c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.groups[group]
	if g == nil {
		g = make(map[string]Conn)
		m.groups[group] = g
	}
	g[c.ID()] = c
}

func (m *Memory) Unsubscribe(group string, c Conn) {
	if group == "" || c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if g := m.groups[group]; g != nil {
		delete(g, c.ID())
		if len(g) == 0 {
			delete(m.groups, group)
		}
	}
}

func (m *Memory) Publish(_ context.Context, group string, payload []byte) error {
	// Snapshot under the read lock, deliver outside it: Deliver may take
	// arbitrary time per subscriber and must not hold up churn.
	m.mu.RLock()
	subs := make([]Conn, 0, len(m.groups[group]))
	for _, c := range m.groups[group] {
		subs = append(subs, c)
	}
	m.mu.RUnlock()

	for _, c := range subs {
		c.Deliver(payload)
	}
	return nil
}

// Subscribers returns the current subscriber count of a group.
func (m *Memory) Subscribers(group string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups[group])
}

func (m *Memory) Close() error { return nil }
