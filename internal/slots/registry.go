// Package slots holds the per-expert slot registry used by a calendar view.
//
// A Registry is an immutable value: SetBooked returns a new Registry and
// leaves the receiver untouched, so a snapshot handed to a renderer is never
// modified afterwards.
package slots

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/Domenick1991/expertbooking/internal/domain"
)

var ErrDuplicateSlot = errors.New("duplicate slot time")

type Outcome int

const (
	Noop Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "noop"
}

type Registry struct {
	expertID string
	byDate   map[string][]domain.Slot
}

// New copies byDate into a fresh registry.
func New(expertID string, byDate map[string][]domain.Slot) (*Registry, error) {
	copied := make(map[string][]domain.Slot, len(byDate))
	for date, list := range byDate {
		seen := make(map[string]struct{}, len(list))
		for _, s := range list {
			if _, dup := seen[s.Time]; dup {
				return nil, fmt.Errorf("%w: %s %s", ErrDuplicateSlot, date, s.Time)
			}
			seen[s.Time] = struct{}{}
		}
		copied[date] = slices.Clone(list)
	}
	return &Registry{expertID: expertID, byDate: copied}, nil
}

// Empty returns a registry with no dates.
func Empty(expertID string) *Registry {
	return &Registry{expertID: expertID, byDate: map[string][]domain.Slot{}}
}

func (r *Registry) ExpertID() string {
	return r.expertID
}

// Get returns the slots of date in calendar order, or nil when the date is unknown.
func (r *Registry) Get(date string) []domain.Slot {
	return slices.Clone(r.byDate[date])
}

func (r *Registry) Lookup(date, time string) (domain.Slot, bool) {
	for _, s := range r.byDate[date] {
		if s.Time == time {
			return s, true
		}
	}
	return domain.Slot{}, false
}

func (r *Registry) Dates() []string {
	dates := make([]string, 0, len(r.byDate))
	for d := range r.byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (r *Registry) Len() int {
	n := 0
	for _, list := range r.byDate {
		n += len(list)
	}
	return n
}

// Snapshot returns a deep copy keyed by date.
func (r *Registry) Snapshot() map[string][]domain.Slot {
	out := make(map[string][]domain.Slot, len(r.byDate))
	for date, list := range r.byDate {
		out[date] = slices.Clone(list)
	}
	return out
}

// SetBooked returns a registry where (date, time) has the given booked flag.
// Unknown slots and slots already in the requested state yield the receiver
// and Noop.
func (r *Registry) SetBooked(date, time string, booked bool) (*Registry, Outcome) {
	list, ok := r.byDate[date]
	if !ok {
		return r, Noop
	}
	idx := slices.IndexFunc(list, func(s domain.Slot) bool { return s.Time == time })
	if idx < 0 || list[idx].IsBooked == booked {
		return r, Noop
	}

	replaced := slices.Clone(list)
	replaced[idx].IsBooked = booked

	next := make(map[string][]domain.Slot, len(r.byDate))
	for d, l := range r.byDate {
		next[d] = l
	}
	next[date] = replaced
	return &Registry{expertID: r.expertID, byDate: next}, Applied
}

// Equal reports whether both registries hold the same slots in the same order.
func (r *Registry) Equal(other *Registry) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.expertID != other.expertID || len(r.byDate) != len(other.byDate) {
		return false
	}
	for date, list := range r.byDate {
		if !slices.Equal(list, other.byDate[date]) {
			return false
		}
	}
	return true
}
