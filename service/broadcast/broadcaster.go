package broadcast

import "context"

// Conn is the delivery surface the broadcaster needs from a subscriber.
// Deliver is fire-and-forget: implementations enqueue and never block the
// publisher on a slow recipient.
type Conn interface {
	ID() string
	Deliver(payload []byte)
}

// Broadcaster is the group fan-out capability: publish a payload to every
// connection currently subscribed to a named group. Groups exist implicitly
// as the set of their subscribers.
type Broadcaster interface {
	Subscribe(group string, c Conn)
	Unsubscribe(group string, c Conn)
	Publish(ctx context.Context, group string, payload []byte) error
	Close() error
}
