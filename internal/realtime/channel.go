// Package realtime carries slot transitions on per-expert topics.
//
// Viewers only consume: Channel has no publish method. Publishing belongs to
// the booking commit path and goes through Publisher.
package realtime

import "context"

// Handler receives events of one topic in the order the transport got them.
// The same event may be delivered more than once after a reconnect.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Close leaves the topic;
// it is safe to call more than once and from any exit path.
type Subscription interface {
	ExpertID() string
	Close() error
}

type Channel interface {
	Subscribe(ctx context.Context, expertID string, handler Handler) (Subscription, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Topic is the transport-level name of an expert's room.
func Topic(prefix, expertID string) string {
	if prefix == "" {
		return "expert:" + expertID
	}
	return prefix + ":expert:" + expertID
}
