package gateway

import (
	"sync"

	"WProject/service/auth"
	"WProject/tools/errs"
)

// Entry pairs an identity (possibly anonymous) with a live connection.
type Entry struct {
	Identity auth.Identity
	Conn     *WsConn
}

// Manager is the process-wide connection registry. It deliberately keeps an
// entry list rather than a keyed map: duplicate inserts are possible and
// are deduplicated at query time, matching the registration-order semantics
// the auth flow relies on. Constructed once and injected into the
// connection path; it is the single shared mutable structure touched by
// every connection's lifecycle.
type Manager struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewManager() *Manager {
	return &Manager{}
}

// Register inserts an entry. No dedup happens here.
func (m *Manager) Register(c *WsConn, id auth.Identity) {
	if c == nil {
		return
	}
	m.mu.Lock()
	m.entries = append(m.entries, Entry{Identity: id, Conn: c})
	m.mu.Unlock()
}

// Unregister removes the first exact-matching entry, or reports not-found.
func (m *Manager) Unregister(c *WsConn, id auth.Identity) error {
	if c == nil {
		return errs.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.Conn == c && e.Identity == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

// AuthClients returns the registered authenticated entries, one per
// distinct identity id (first registration wins).
func (m *Manager) AuthClients() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Identity.Anonymous() {
			continue
		}
		if _, ok := seen[e.Identity.ID]; ok {
			continue
		}
		seen[e.Identity.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// AuthClientsInRoom filters AuthClients down to entries whose connection
// has joined the room.
func (m *Manager) AuthClientsInRoom(room string) []Entry {
	clients := m.AuthClients()
	out := make([]Entry, 0, len(clients))
	for _, e := range clients {
		if e.Conn.HasRoom(room) {
			out = append(out, e)
		}
	}
	return out
}

// CountInRoom is the room population: distinct authenticated identities
// with a connection joined to the room.
func (m *Manager) CountInRoom(room string) int {
	return len(m.AuthClientsInRoom(room))
}

// Len reports the raw entry count, duplicates included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
