package domain

import (
	"errors"
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var (
	ErrUnknownStatus     = errors.New("unknown booking status")
	ErrTerminalStatus    = errors.New("booking is already finalized")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// bookingTransitions lists the statuses reachable from each non-terminal status.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatus resolves a requested transition. Requesting the current status
// again is accepted and returns it unchanged.
func NextStatus(current, requested BookingStatus) (BookingStatus, error) {
	if !current.Valid() {
		return current, fmt.Errorf("%w: %q", ErrUnknownStatus, current)
	}
	if !requested.Valid() {
		return current, fmt.Errorf("%w: %q", ErrUnknownStatus, requested)
	}
	if current == requested {
		return current, nil
	}
	if current.Terminal() {
		return current, fmt.Errorf("%w: %s", ErrTerminalStatus, current)
	}
	if !current.CanTransitionTo(requested) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, requested)
	}
	return requested, nil
}

type Booking struct {
	ID        string        `json:"_id"`
	ExpertID  string        `json:"expertId"`
	UserName  string        `json:"userName"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Date      string        `json:"date"`
	TimeSlot  string        `json:"timeSlot"`
	Notes     string        `json:"notes,omitempty"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
