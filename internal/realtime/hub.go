package realtime

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("realtime hub is closed")

// Hub is an in-process topic fan-out. Every subscription owns an unbounded
// FIFO queue drained by its own goroutine, so a slow handler never drops or
// reorders events and never blocks publishers.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*hubSubscription]struct{}
	closed bool
	logger *zap.Logger
}

type HubOption func(*Hub)

func WithHubLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		topics: make(map[string]map[*hubSubscription]struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Subscribe(_ context.Context, expertID string, handler Handler) (Subscription, error) {
	sub := &hubSubscription{
		hub:      h,
		expertID: expertID,
		handler:  handler,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	subs, ok := h.topics[expertID]
	if !ok {
		subs = make(map[*hubSubscription]struct{})
		h.topics[expertID] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	go sub.run()
	h.logger.Debug("joined expert topic", zap.String("expert_id", expertID))
	return sub, nil
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	for sub := range h.topics[ev.ExpertID] {
		sub.enqueue(ev)
	}
	return nil
}

// Subscribers returns the number of live subscriptions on a topic.
func (h *Hub) Subscribers(expertID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[expertID])
}

// Close detaches every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var all []*hubSubscription
	for _, subs := range h.topics {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	h.topics = make(map[string]map[*hubSubscription]struct{})
	h.mu.Unlock()

	for _, sub := range all {
		sub.stop()
	}
	return nil
}

func (h *Hub) remove(sub *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.topics[sub.expertID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.expertID)
	}
}

type hubSubscription struct {
	hub      *Hub
	expertID string
	handler  Handler

	mu      sync.Mutex
	pending []Event
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *hubSubscription) ExpertID() string {
	return s.expertID
}

func (s *hubSubscription) Close() error {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
		s.hub.logger.Debug("left expert topic", zap.String("expert_id", s.expertID))
	})
	return nil
}

func (s *hubSubscription) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *hubSubscription) enqueue(ev Event) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *hubSubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.notify:
		}

		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(ev)
		}
	}
}
