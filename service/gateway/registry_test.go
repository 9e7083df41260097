package gateway

import (
	"fmt"
	"sync"
	"testing"

	"WProject/service/auth"
	"WProject/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn(id string, rooms ...string) *WsConn {
	c := &WsConn{
		snowID: id,
		sendCh: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
	for _, r := range rooms {
		c.addRoom(r)
	}
	return c
}

func TestManagerCountInRoom(t *testing.T) {
	m := NewManager()

	alice := auth.Identity{ID: "u1", Name: "alice"}
	bob := auth.Identity{ID: "u2", Name: "bob"}

	c1 := testConn("c1", "lobby")
	c2 := testConn("c2", "lobby")
	c3 := testConn("c3") // bob's second connection, not in lobby
	anon := testConn("c4", "lobby")

	m.Register(c1, alice)
	m.Register(c2, bob)
	m.Register(c3, bob)
	m.Register(anon, auth.Identity{})

	// distinct authenticated identities in lobby: alice + bob; the
	// anonymous connection never counts.
	assert.Equal(t, 2, m.CountInRoom("lobby"))
	assert.Equal(t, 0, m.CountInRoom("nowhere"))

	require.NoError(t, m.Unregister(c2, bob))
	// bob's remaining connection is not in lobby, so bob no longer counts.
	assert.Equal(t, 1, m.CountInRoom("lobby"))
}

func TestManagerDedupByIdentity(t *testing.T) {
	m := NewManager()
	u := auth.Identity{ID: "u1"}

	c1 := testConn("c1", "lobby")
	c2 := testConn("c2", "lobby")
	m.Register(c1, u)
	m.Register(c2, u)

	clients := m.AuthClients()
	require.Len(t, clients, 1)
	// first registration wins
	assert.Equal(t, "c1", clients[0].Conn.ID())
	assert.Equal(t, 1, m.CountInRoom("lobby"))
}

func TestManagerDuplicateEntries(t *testing.T) {
	m := NewManager()
	u := auth.Identity{ID: "u1"}
	c := testConn("c1", "lobby")

	// duplicate inserts are possible; queries dedup
	m.Register(c, u)
	m.Register(c, u)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.CountInRoom("lobby"))

	// unregister removes one entry at a time
	require.NoError(t, m.Unregister(c, u))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, m.CountInRoom("lobby"))
}

func TestManagerUnregisterExactMatch(t *testing.T) {
	m := NewManager()
	u := auth.Identity{ID: "u1"}
	c := testConn("c1")

	m.Register(c, u)

	// identity must match exactly
	err := m.Unregister(c, auth.Identity{ID: "other"})
	assert.True(t, errs.ErrNotFound.Is(err))
	assert.Equal(t, 1, m.Len())

	assert.True(t, errs.ErrNotFound.Is(m.Unregister(testConn("cX"), u)))

	require.NoError(t, m.Unregister(c, u))
	assert.True(t, errs.ErrNotFound.Is(m.Unregister(c, u)))
}

func TestManagerConcurrentChurn(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := auth.Identity{ID: fmt.Sprintf("u%d", i)}
			c := testConn(fmt.Sprintf("c%d", i), "lobby")
			for j := 0; j < 100; j++ {
				m.Register(c, id)
				_ = m.CountInRoom("lobby")
				_ = m.Unregister(c, id)
			}
			m.Register(c, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 32, m.CountInRoom("lobby"))
	assert.Equal(t, 32, m.Len())
}
