package broadcast

import (
	"context"
	"strings"

	"WProject/logger"
	"WProject/tools/safe"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "wsgroup:"

// RedisConfig configures the Redis-backed broadcaster.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Redis fans groups out across gateway instances over Redis pub/sub.
// Local subscribers are tracked in a Memory stage; Publish goes through
// Redis only, and the psubscribe loop feeds every instance's local stage,
// the publishing one included. That keeps delivery single-path with no
// dedup bookkeeping.
type Redis struct {
	rdb    *redis.Client
	local  *Memory
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	b := &Redis{
		rdb:    rdb,
		local:  NewMemory(),
		pubsub: rdb.PSubscribe(loopCtx, redisChannelPrefix+"*"),
		cancel: cancel,
	}
	safe.Go(func() { b.run(loopCtx) })
	return b, nil
}

func (b *Redis) run(ctx context.Context) {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			group := strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			if group == "" {
				continue
			}
			_ = b.local.Publish(ctx, group, []byte(msg.Payload))
		}
	}
}

func (b *Redis) Subscribe(group string, c Conn)   { b.local.Subscribe(group, c) }
func (b *Redis) Unsubscribe(group string, c Conn) { b.local.Unsubscribe(group, c) }

func (b *Redis) Publish(ctx context.Context, group string, payload []byte) error {
	if err := b.rdb.Publish(ctx, redisChannelPrefix+group, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish group=%s", group)
	}
	return nil
}

func (b *Redis) Close() error {
	b.cancel()
	if err := b.pubsub.Close(); err != nil {
		logger.Warnf("[broadcast] pubsub close: %v", err)
	}
	return b.rdb.Close()
}
