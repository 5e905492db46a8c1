package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/kafka"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSlotLocked    = errors.New("time slot is being booked by someone else")
	ErrInvalidEmail  = errors.New("a valid email is required")
	ErrInvalidStatus = errors.New("status is required")
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
}

type Cache interface {
	AcquireSlotLock(ctx context.Context, expertID, date, slot string, ttl time.Duration) (bool, error)
	ReleaseSlotLock(ctx context.Context, expertID, date, slot string) error
	InvalidateExpert(ctx context.Context, expertID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings     repository.BookingRepository
	cache        Cache
	producer     Producer
	bookingTopic string
	holdTTL      time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

// WithClock overrides the clock used for the past-date check.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, req domain.BookingRequest) (*domain.Booking, error) {
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}
	req = req.Normalize()

	if s.cache != nil {
		ok, err := s.cache.AcquireSlotLock(ctx, req.ExpertID, req.Date, req.TimeSlot, s.holdTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire slot lock: %w", err)
		}
		if !ok {
			return nil, ErrSlotLocked
		}
		defer func() {
			if err := s.cache.ReleaseSlotLock(context.WithoutCancel(ctx), req.ExpertID, req.Date, req.TimeSlot); err != nil {
				s.logger.Warn("release slot lock", zap.String("expert_id", req.ExpertID), zap.Error(err))
			}
		}()
	}

	booking := &domain.Booking{
		ID:       uuid.NewString(),
		ExpertID: req.ExpertID,
		UserName: req.UserName,
		Email:    req.Email,
		Phone:    req.Phone,
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
		Notes:    req.Notes,
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatusPending

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("expert_id", booking.ExpertID),
		zap.String("date", booking.Date),
		zap.String("time_slot", booking.TimeSlot))

	s.invalidate(ctx, booking.ExpertID)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	if !domain.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	return s.bookings.ListByEmail(ctx, email)
}

// UpdateStatus applies a lifecycle transition. Requesting the current status
// again returns the booking unchanged.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	if status == "" {
		return nil, ErrInvalidStatus
	}

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := domain.NextStatus(current.Status, status)
	if err != nil {
		return nil, err
	}
	if next == current.Status {
		return current, nil
	}

	var updated *domain.Booking
	if next == domain.BookingStatusCancelled {
		updated, err = s.bookings.CancelAndRelease(ctx, id, current.Status)
	} else {
		updated, err = s.bookings.UpdateStatus(ctx, id, current.Status, next)
	}
	if errors.Is(err, repository.ErrStatusChanged) {
		return s.lostTransition(ctx, id, current.Status, status)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveStatusTransition(string(current.Status), string(next))
	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)))

	if next == domain.BookingStatusCancelled {
		s.invalidate(ctx, updated.ExpertID)
	}
	s.publish(ctx, eventType(next), updated)
	return updated, nil
}

// lostTransition answers a request whose write found the booking no longer in
// the status it was read with. The request is judged again against the stored
// status; it never writes.
func (s *BookingService) lostTransition(ctx context.Context, id string, seen, requested domain.BookingStatus) (*domain.Booking, error) {
	latest, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking status changed concurrently",
		zap.String("booking_id", id),
		zap.String("seen", string(seen)),
		zap.String("stored", string(latest.Status)),
		zap.String("requested", string(requested)))

	if _, err := domain.NextStatus(latest.Status, requested); err != nil {
		return nil, err
	}
	if latest.Status == requested {
		return latest, nil
	}
	return nil, fmt.Errorf("%w: %s moved from %s to %s", domain.ErrInvalidTransition, id, seen, latest.Status)
}

func eventType(status domain.BookingStatus) string {
	switch status {
	case domain.BookingStatusConfirmed:
		return kafka.EventBookingConfirmed
	case domain.BookingStatusCompleted:
		return kafka.EventBookingCompleted
	case domain.BookingStatusCancelled:
		return kafka.EventBookingCancelled
	default:
		return kafka.EventBookingCreated
	}
}

func (s *BookingService) invalidate(ctx context.Context, expertID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateExpert(ctx, expertID); err != nil {
		s.logger.Warn("invalidate expert cache", zap.String("expert_id", expertID), zap.Error(err))
	}
}

// publish is best effort: the booking is committed whether or not the event
// reaches Kafka.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		ExpertID:   booking.ExpertID,
		Date:       booking.Date,
		TimeSlot:   booking.TimeSlot,
		Email:      booking.Email,
		Status:     string(booking.Status),
		OccurredAt: s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ExpertID, event); err != nil {
		s.logger.Warn("publish booking event",
			zap.String("type", eventType),
			zap.String("booking_id", booking.ID),
			zap.Error(err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
