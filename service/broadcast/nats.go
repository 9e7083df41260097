package broadcast

import (
	"context"
	"strings"
	"sync"
	"time"

	"WProject/logger"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const natsSubjectPrefix = "ws.group."

// NatsConfig configures the NATS-backed broadcaster.
type NatsConfig struct {
	Servers       []string
	Name          string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

func (c *NatsConfig) norm() {
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 500 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 3 * time.Second
	}
	if c.Name == "" {
		c.Name = "ws-gateway"
	}
}

// Nats maps each group to a core NATS subject. A subject subscription is
// held only while the group has local subscribers.
type Nats struct {
	nc    *nats.Conn
	local *Memory

	mu   sync.Mutex
	subs map[string]*nats.Subscription // group -> subject subscription
}

func NewNats(cfg NatsConfig) (*Nats, error) {
	cfg.norm()
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &Nats{
		nc:    nc,
		local: NewMemory(),
		subs:  make(map[string]*nats.Subscription),
	}, nil
}

func (b *Nats) Subscribe(group string, c Conn) {
	b.local.Subscribe(group, c)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[group]; ok {
		return
	}
	sub, err := b.nc.Subscribe(subjectFor(group), func(msg *nats.Msg) {
		_ = b.local.Publish(context.Background(), group, msg.Data)
	})
	if err != nil {
		logger.Errorf("[broadcast] nats subscribe group=%s: %v", group, err)
		return
	}
	b.subs[group] = sub
}

func (b *Nats) Unsubscribe(group string, c Conn) {
	b.local.Unsubscribe(group, c)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.local.Subscribers(group) == 0 {
		if sub, ok := b.subs[group]; ok {
			_ = sub.Unsubscribe()
			delete(b.subs, group)
		}
	}
}

func (b *Nats) Publish(_ context.Context, group string, payload []byte) error {
	if err := b.nc.Publish(subjectFor(group), payload); err != nil {
		return errors.Wrapf(err, "publish group=%s", group)
	}
	return nil
}

func (b *Nats) Close() error {
	b.mu.Lock()
	for group, sub := range b.subs {
		_ = sub.Drain()
		delete(b.subs, group)
	}
	b.mu.Unlock()
	return b.nc.Drain()
}

var subjectSanitizer = strings.NewReplacer(" ", "_", ".", "_", "*", "_", ">", "_")

// subjectFor maps a group name onto a valid NATS subject token.
func subjectFor(group string) string {
	return natsSubjectPrefix + subjectSanitizer.Replace(group)
}
