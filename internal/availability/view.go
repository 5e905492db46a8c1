package availability

import (
	"time"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/slots"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Marker highlights a slot the current viewer just caused to be booked.
type Marker struct {
	Date      string
	Time      string
	ExpiresAt time.Time
}

// View is an immutable picture of one calendar view.
type View struct {
	ExpertID string
	State    State
	// Err is set in StateFailed; the view stays subscribed and can Retry.
	Err      error
	Expert   *domain.Expert
	Registry *slots.Registry
	Ack      *Marker
}

func (v View) Slots(date string) []domain.Slot {
	if v.Registry == nil {
		return nil
	}
	return v.Registry.Get(date)
}

func (v View) Dates() []string {
	if v.Registry == nil {
		return nil
	}
	return v.Registry.Dates()
}

func (v View) IsBooked(date, slot string) bool {
	if v.Registry == nil {
		return false
	}
	s, ok := v.Registry.Lookup(date, slot)
	return ok && s.IsBooked
}

func (v View) IsAcknowledged(date, slot string) bool {
	return v.Ack != nil && v.Ack.Date == date && v.Ack.Time == slot
}
