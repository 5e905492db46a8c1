// Package availability keeps one expert's calendar view in sync with the
// booking API and the expert's realtime topic.
//
// A Controller owns its slot registry for the lifetime of the view. Every
// mutation (snapshot landing, realtime event, viewer action, acknowledgment
// expiry) runs on the controller's single event loop.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/Domenick1991/expertbooking/internal/slots"
	"go.uber.org/zap"
)

const (
	DefaultAckDuration = 2 * time.Second
	// DefaultIntentTimeout bounds how long a selection waits for its
	// slot-booked event before it no longer raises the acknowledgment.
	DefaultIntentTimeout = 30 * time.Second
	maxEarlyEvents     = 1024
	commandBuffer      = 64
)

var (
	ErrClosed      = errors.New("availability view is closed")
	ErrNoSubmitter = errors.New("availability view cannot submit bookings")
	ErrWrongExpert = errors.New("booking request targets another expert")
)

type SnapshotFetcher interface {
	GetExpert(ctx context.Context, expertID string) (*domain.ExpertDetail, error)
}

type BookingSubmitter interface {
	CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error)
}

type Deps struct {
	Fetcher   SnapshotFetcher
	Channel   realtime.Channel
	Submitter BookingSubmitter
}

type Option func(*options)

type options struct {
	ackDuration   time.Duration
	intentTimeout time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
	onChange    func(View)
	now         func() time.Time
}

func WithAckDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ackDuration = d
		}
	}
}

// WithIntentTimeout sets how long a selection stays eligible for the
// acknowledgment.
func WithIntentTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.intentTimeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithOnChange registers a callback invoked on the event loop after every
// state change. It must not call back into the controller synchronously.
func WithOnChange(fn func(View)) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

type slotKey struct {
	date string
	time string
}

type selection struct {
	slotKey
	expiresAt time.Time
}

type pendingAck struct {
	marker Marker
	id     uint64
	timer  *time.Timer
}

type Controller struct {
	expertID string
	deps     Deps
	opts     options
	logger   *zap.Logger

	commands   chan func()
	done       chan struct{}
	loopExited chan struct{}
	closeOnce  sync.Once

	// Cancelled on Close; parent of every snapshot fetch.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	subMu  sync.Mutex
	joined bool
	sub    realtime.Subscription

	view atomic.Pointer[View]

	// Owned by the event loop.
	registry  *slots.Registry
	state     State
	err       error
	expert    *domain.Expert
	intent    *selection
	ack       *pendingAck
	ackSeq    uint64
	fetchSeq  uint64
	fetchStop context.CancelFunc
	early     []realtime.Event
}

// Open subscribes to the expert's topic and starts loading the snapshot.
// The subscription does not wait for the snapshot. The caller must Close the
// controller; WithView does so on every exit path.
func Open(ctx context.Context, expertID string, deps Deps, opts ...Option) (*Controller, error) {
	if deps.Fetcher == nil || deps.Channel == nil {
		return nil, errors.New("availability: fetcher and channel are required")
	}

	o := options{
		ackDuration:   DefaultAckDuration,
		intentTimeout: DefaultIntentTimeout,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	baseCtx, baseCancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &Controller{
		expertID:   expertID,
		deps:       deps,
		opts:       o,
		logger:     o.logger.With(zap.String("expert_id", expertID)),
		commands:   make(chan func(), commandBuffer),
		done:       make(chan struct{}),
		loopExited: make(chan struct{}),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		registry:   slots.Empty(expertID),
		state:      StateLoading,
	}
	c.publish()
	go c.run()

	if err := c.Join(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.enqueue(c.startFetch)
	return c, nil
}

// WithView opens a controller, runs fn and closes the controller however fn
// returns, panics included.
func WithView(ctx context.Context, expertID string, deps Deps, fn func(*Controller) error, opts ...Option) error {
	c, err := Open(ctx, expertID, deps, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func (c *Controller) ExpertID() string {
	return c.expertID
}

// Join subscribes to the expert's topic once; later calls while subscribed
// are no-ops so a re-rendered view never receives events twice.
func (c *Controller) Join(ctx context.Context) error {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if c.joined {
		return nil
	}

	sub, err := c.deps.Channel.Subscribe(ctx, c.expertID, c.onEvent)
	if err != nil {
		return fmt.Errorf("join expert %s: %w", c.expertID, err)
	}
	c.sub = sub
	c.joined = true
	c.logger.Debug("joined expert topic")
	return nil
}

// View returns the latest state. The returned value is never modified.
func (c *Controller) View() View {
	return *c.view.Load()
}

// Retry reloads the snapshot, typically after a failed load.
func (c *Controller) Retry() error {
	return c.do(c.startFetch)
}

// Select records the slot the viewer is about to book. A slot-booked event for
// it within the intent timeout raises the acknowledgment marker.
func (c *Controller) Select(date, slot string) error {
	return c.do(func() { c.selectSlot(slotKey{date: date, time: slot}) })
}

// ClearSelection drops the pending selection, e.g. when the caller stops
// waiting for its booking to be confirmed.
func (c *Controller) ClearSelection() error {
	return c.do(func() {
		c.intent = nil
	})
}

// Book validates req locally, selects its slot and submits it. Validation
// failures are returned without contacting the API. The slot flips to booked
// when the server's slot-booked event arrives, not on submission.
func (c *Controller) Book(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	if c.deps.Submitter == nil {
		return nil, ErrNoSubmitter
	}
	req = req.Normalize()
	if req.ExpertID == "" {
		req.ExpertID = c.expertID
	}
	if req.ExpertID != c.expertID {
		return nil, ErrWrongExpert
	}
	if err := req.Validate(c.opts.now()); err != nil {
		return nil, err
	}

	key := slotKey{date: req.Date, time: req.TimeSlot}
	if err := c.do(func() { c.selectSlot(key) }); err != nil {
		return nil, err
	}

	booking, err := c.deps.Submitter.CreateBooking(ctx, req)
	if err != nil {
		c.enqueue(func() {
			if c.intent != nil && c.intent.slotKey == key {
				c.intent = nil
			}
		})
		return nil, err
	}
	return booking, nil
}

// Close unsubscribes, cancels any pending acknowledgment expiry and discards
// the registry. It is idempotent.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.subMu.Lock()
		if c.sub != nil {
			err = c.sub.Close()
			c.sub = nil
		}
		c.joined = false
		close(c.done)
		c.subMu.Unlock()

		<-c.loopExited
		c.baseCancel()

		if c.ack != nil {
			c.ack.timer.Stop()
			c.ack = nil
		}
		c.registry = nil
		c.early = nil
		c.intent = nil
		c.view.Store(&View{ExpertID: c.expertID, State: StateClosed})
		c.logger.Debug("left expert topic")
	})
	return err
}

func (c *Controller) run() {
	defer close(c.loopExited)
	for {
		select {
		case <-c.done:
			return
		case fn := <-c.commands:
			fn()
		}
	}
}

// enqueue schedules fn on the event loop; it is dropped once the view is closed.
func (c *Controller) enqueue(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.commands <- fn:
		return true
	case <-c.done:
		return false
	}
}

// do runs fn on the event loop and waits for it.
func (c *Controller) do(fn func()) error {
	finished := make(chan struct{})
	if !c.enqueue(func() {
		fn()
		close(finished)
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

func (c *Controller) onEvent(ev realtime.Event) {
	c.enqueue(func() { c.apply(ev) })
}

func (c *Controller) apply(ev realtime.Event) {
	if ev.ExpertID != "" && ev.ExpertID != c.expertID {
		c.opts.metrics.ObserveRealtimeEvent(string(ev.Kind), "foreign")
		return
	}

	if c.state == StateLoading {
		if len(c.early) == maxEarlyEvents {
			c.early = c.early[1:]
		}
		c.early = append(c.early, ev)
	}

	var outcome slots.Outcome
	c.registry, outcome = c.registry.SetBooked(ev.Date, ev.TimeSlot, ev.Booked())
	c.opts.metrics.ObserveRealtimeEvent(string(ev.Kind), outcome.String())

	if c.intent != nil && !c.opts.now().Before(c.intent.expiresAt) {
		c.intent = nil
	}
	if ev.Booked() && c.intent != nil && c.intent.date == ev.Date && c.intent.time == ev.TimeSlot {
		c.intent = nil
		c.raiseAck(ev.Date, ev.TimeSlot)
	}

	c.logger.Debug("realtime event",
		zap.String("kind", string(ev.Kind)),
		zap.String("date", ev.Date),
		zap.String("time_slot", ev.TimeSlot),
		zap.Stringer("outcome", outcome),
	)
	c.publish()
}

func (c *Controller) selectSlot(key slotKey) {
	c.intent = &selection{slotKey: key, expiresAt: c.opts.now().Add(c.opts.intentTimeout)}
}

func (c *Controller) raiseAck(date, slot string) {
	c.cancelAck()

	c.ackSeq++
	id := c.ackSeq
	c.ack = &pendingAck{
		marker: Marker{Date: date, Time: slot, ExpiresAt: c.opts.now().Add(c.opts.ackDuration)},
		id:     id,
		timer: time.AfterFunc(c.opts.ackDuration, func() {
			c.enqueue(func() { c.expireAck(id) })
		}),
	}
	c.opts.metrics.ObserveAcknowledgment()
}

func (c *Controller) cancelAck() {
	if c.ack != nil {
		c.ack.timer.Stop()
		c.ack = nil
	}
}

func (c *Controller) expireAck(id uint64) {
	if c.ack == nil || c.ack.id != id {
		return
	}
	c.ack = nil
	c.publish()
}

func (c *Controller) startFetch() {
	if c.fetchStop != nil {
		c.fetchStop()
	}
	c.fetchSeq++
	seq := c.fetchSeq

	ctx, cancel := context.WithCancel(c.baseCtx)
	c.fetchStop = cancel
	c.state = StateLoading
	c.err = nil
	c.publish()

	go func() {
		detail, err := c.deps.Fetcher.GetExpert(ctx, c.expertID)
		c.enqueue(func() { c.finishFetch(seq, detail, err) })
	}()
}

func (c *Controller) finishFetch(seq uint64, detail *domain.ExpertDetail, err error) {
	if seq != c.fetchSeq {
		return
	}
	c.fetchStop()
	c.fetchStop = nil

	if err == nil && detail == nil {
		err = errors.New("empty expert snapshot")
	}
	var reg *slots.Registry
	if err == nil {
		reg, err = slots.New(c.expertID, detail.SlotsByDate)
	}
	if err != nil {
		c.state = StateFailed
		c.err = err
		c.early = nil
		c.logger.Warn("snapshot load failed", zap.Error(err))
		c.publish()
		return
	}

	// Events seen while loading may postdate the snapshot. Replay them in
	// arrival order on top of it.
	for _, ev := range c.early {
		reg, _ = reg.SetBooked(ev.Date, ev.TimeSlot, ev.Booked())
	}
	c.early = nil

	expert := detail.Expert
	c.expert = &expert
	c.registry = reg
	c.state = StateReady
	c.err = nil
	c.publish()
}

func (c *Controller) publish() {
	v := &View{
		ExpertID: c.expertID,
		State:    c.state,
		Err:      c.err,
		Expert:   c.expert,
		Registry: c.registry,
	}
	if c.ack != nil {
		m := c.ack.marker
		v.Ack = &m
	}
	c.view.Store(v)
	if c.opts.onChange != nil {
		c.opts.onChange(*v)
	}
}
