package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisChannel subscribes to expert topics over Redis pub/sub.
type RedisChannel struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisChannel(client *redis.Client, prefix string, logger *zap.Logger) *RedisChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisChannel{client: client, prefix: prefix, logger: logger}
}

func (c *RedisChannel) Subscribe(ctx context.Context, expertID string, handler Handler) (Subscription, error) {
	topic := Topic(c.prefix, expertID)
	ps := c.client.Subscribe(ctx, topic)

	// Wait for the subscribe confirmation so no event published after
	// Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	sub := &redisSubscription{
		ps:       ps,
		expertID: expertID,
		logger:   c.logger.With(zap.String("topic", topic)),
	}
	go sub.run(ps.Channel(), handler)
	c.logger.Debug("joined expert topic", zap.String("topic", topic))
	return sub, nil
}

type redisSubscription struct {
	ps       *redis.PubSub
	expertID string
	logger   *zap.Logger
	once     sync.Once
	err      error
}

func (s *redisSubscription) ExpertID() string {
	return s.expertID
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		s.logger.Debug("left expert topic")
	})
	return s.err
}

func (s *redisSubscription) run(messages <-chan *redis.Message, handler Handler) {
	for msg := range messages {
		ev, err := DecodeEvent([]byte(msg.Payload))
		if err != nil {
			s.logger.Warn("dropping realtime message", zap.Error(err))
			continue
		}
		ev.ExpertID = s.expertID
		handler(ev)
	}
}

// RedisPublisher publishes slot transitions to expert topics.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.ExpertID == "" {
		return errors.New("event has no expert id")
	}
	payload, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, Topic(p.prefix, ev.ExpertID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}

var (
	_ Channel   = (*RedisChannel)(nil)
	_ Publisher = (*RedisPublisher)(nil)
	_ Channel   = (*Hub)(nil)
	_ Publisher = (*Hub)(nil)
)
