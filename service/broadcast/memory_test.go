package broadcast

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu       sync.Mutex
	received [][]byte
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Deliver(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, payload)
}

func (f *fakeConn) got() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received
}

func TestMemoryPublish(t *testing.T) {
	m := NewMemory()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	other := &fakeConn{id: "c"}

	m.Subscribe("lobby", a)
	m.Subscribe("lobby", b)
	m.Subscribe("elsewhere", other)

	require.NoError(t, m.Publish(context.Background(), "lobby", []byte("hi")))

	assert.Len(t, a.got(), 1)
	assert.Len(t, b.got(), 1)
	assert.Empty(t, other.got(), "no cross-group delivery")
}

func TestMemoryUnsubscribe(t *testing.T) {
	m := NewMemory()
	a := &fakeConn{id: "a"}

	m.Subscribe("lobby", a)
	assert.Equal(t, 1, m.Subscribers("lobby"))

	m.Unsubscribe("lobby", a)
	assert.Equal(t, 0, m.Subscribers("lobby"))

	require.NoError(t, m.Publish(context.Background(), "lobby", []byte("hi")))
	assert.Empty(t, a.got())

	// unsubscribing twice is a no-op
	m.Unsubscribe("lobby", a)
}

func TestMemoryResubscribeIdempotent(t *testing.T) {
	m := NewMemory()
	a := &fakeConn{id: "a"}

	m.Subscribe("lobby", a)
	m.Subscribe("lobby", a)
	assert.Equal(t, 1, m.Subscribers("lobby"))

	require.NoError(t, m.Publish(context.Background(), "lobby", []byte("hi")))
	assert.Len(t, a.got(), 1, "same conn subscribed twice receives once")
}

func TestMemoryConcurrentChurn(t *testing.T) {
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &fakeConn{id: string(rune('a' + i))}
			for j := 0; j < 200; j++ {
				m.Subscribe("lobby", c)
				_ = m.Publish(context.Background(), "lobby", []byte("x"))
				m.Unsubscribe("lobby", c)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, m.Subscribers("lobby"))
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "ws.group.lobby", subjectFor("lobby"))
	assert.Equal(t, "ws.group.big_room", subjectFor("big room"))
	assert.Equal(t, "ws.group.a_b", subjectFor("a.b"))
}
