// Package tracker keeps the list of a viewer's bookings and applies status
// changes only after the API accepted them.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrInvalidEmail   = errors.New("please enter a valid email address")
	ErrUnknownBooking = errors.New("booking is not in the current list")
)

type BookingsAPI interface {
	ListBookings(ctx context.Context, email string) ([]domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) (*domain.Booking, error)
}

// Notice is a non-blocking failure of a status change. The local list is
// left as it was.
type Notice struct {
	BookingID string
	Requested domain.BookingStatus
	Err       error
}

func (n *Notice) Error() string {
	return fmt.Sprintf("failed to update status: %v", n.Err)
}

func (n *Notice) Unwrap() error {
	return n.Err
}

type Tracker struct {
	api    BookingsAPI
	logger *zap.Logger

	mu       sync.RWMutex
	email    string
	bookings []domain.Booking
}

func New(api BookingsAPI, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{api: api, logger: logger}
}

// Lookup replaces the tracked list with the bookings made under email.
func (t *Tracker) Lookup(ctx context.Context, email string) ([]domain.Booking, error) {
	email = strings.TrimSpace(email)
	if !domain.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	bookings, err := t.api.ListBookings(ctx, email)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.email = email
	t.bookings = append([]domain.Booking(nil), bookings...)
	t.mu.Unlock()
	return t.Bookings(), nil
}

func (t *Tracker) Email() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.email
}

func (t *Tracker) Bookings() []domain.Booking {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Booking(nil), t.bookings...)
}

// Actions lists the statuses a viewer may request for b.
func Actions(b domain.Booking) []domain.BookingStatus {
	var out []domain.BookingStatus
	for _, next := range []domain.BookingStatus{
		domain.BookingStatusConfirmed,
		domain.BookingStatusCancelled,
		domain.BookingStatusCompleted,
	} {
		if b.Status.CanTransitionTo(next) {
			out = append(out, next)
		}
	}
	return out
}

// UpdateStatus asks the API to move a booking to status. Transitions the
// lifecycle forbids are refused locally. Resubmitting the current status is
// sent as-is and is not an error.
func (t *Tracker) UpdateStatus(ctx context.Context, bookingID string, status domain.BookingStatus) (domain.Booking, error) {
	current, ok := t.find(bookingID)
	if !ok {
		return domain.Booking{}, ErrUnknownBooking
	}
	if _, err := domain.NextStatus(current.Status, status); err != nil {
		return current, &Notice{BookingID: bookingID, Requested: status, Err: err}
	}

	updated, err := t.api.UpdateBookingStatus(ctx, bookingID, status)
	if err != nil {
		t.logger.Warn("status update rejected",
			zap.String("booking_id", bookingID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return current, &Notice{BookingID: bookingID, Requested: status, Err: err}
	}

	next := status
	if updated != nil && updated.Status != "" {
		next = updated.Status
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.bookings {
		if t.bookings[i].ID == bookingID {
			t.bookings[i].Status = next
			return t.bookings[i], nil
		}
	}
	return domain.Booking{}, ErrUnknownBooking
}

func (t *Tracker) find(bookingID string) (domain.Booking, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.bookings {
		if b.ID == bookingID {
			return b, true
		}
	}
	return domain.Booking{}, false
}
