package slots

import (
	"testing"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed() map[string][]domain.Slot {
	return map[string][]domain.Slot{
		"2024-06-01": {{Time: "09:00"}, {Time: "10:00"}, {Time: "11:00", IsBooked: true}},
		"2024-06-02": {{Time: "09:00"}},
	}
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New("e1", seed())
	require.NoError(t, err)
	return r
}

func TestRegistry_GetUnknownDateIsEmpty(t *testing.T) {
	r := newRegistry(t)
	assert.Empty(t, r.Get("2030-01-01"))
	assert.Len(t, r.Get("2024-06-01"), 3)
}

func TestRegistry_NewRejectsDuplicateTimes(t *testing.T) {
	_, err := New("e1", map[string][]domain.Slot{
		"2024-06-01": {{Time: "09:00"}, {Time: "09:00"}},
	})
	assert.ErrorIs(t, err, ErrDuplicateSlot)
}

func TestRegistry_NewCopiesInput(t *testing.T) {
	in := seed()
	r, err := New("e1", in)
	require.NoError(t, err)

	in["2024-06-01"][0].IsBooked = true
	slot, ok := r.Lookup("2024-06-01", "09:00")
	require.True(t, ok)
	assert.False(t, slot.IsBooked)
}

func TestRegistry_SetBookedIsCopyOnWrite(t *testing.T) {
	r := newRegistry(t)
	handedOut := r.Get("2024-06-01")
	snapshot := r.Snapshot()

	next, outcome := r.SetBooked("2024-06-01", "09:00", true)
	require.Equal(t, Applied, outcome)

	slot, _ := next.Lookup("2024-06-01", "09:00")
	assert.True(t, slot.IsBooked)

	old, _ := r.Lookup("2024-06-01", "09:00")
	assert.False(t, old.IsBooked, "receiver must not change")
	assert.False(t, handedOut[0].IsBooked)
	assert.False(t, snapshot["2024-06-01"][0].IsBooked)
}

func TestRegistry_SetBookedIdempotent(t *testing.T) {
	r := newRegistry(t)

	once, outcome := r.SetBooked("2024-06-01", "09:00", true)
	require.Equal(t, Applied, outcome)

	twice, outcome := once.SetBooked("2024-06-01", "09:00", true)
	assert.Equal(t, Noop, outcome)
	assert.Same(t, once, twice)
	assert.True(t, once.Equal(twice))
}

func TestRegistry_ReleaseFreeSlotIsNoop(t *testing.T) {
	r := newRegistry(t)
	next, outcome := r.SetBooked("2024-06-01", "10:00", false)
	assert.Equal(t, Noop, outcome)
	assert.Same(t, r, next)
}

func TestRegistry_UnknownKeyIsNoop(t *testing.T) {
	r := newRegistry(t)
	before := r.Snapshot()

	for _, key := range [][2]string{{"2030-01-01", "09:00"}, {"2024-06-01", "23:00"}} {
		next, outcome := r.SetBooked(key[0], key[1], true)
		assert.Equal(t, Noop, outcome)
		assert.Same(t, r, next)
	}
	assert.Equal(t, before, r.Snapshot())
}

func TestRegistry_ReleaseBeforeSeedIsAbsorbed(t *testing.T) {
	early := Empty("e1")
	early, outcome := early.SetBooked("2024-06-01", "09:00", false)
	assert.Equal(t, Noop, outcome)
	assert.Zero(t, early.Len())

	// The seed replaces the empty registry wholesale; the early release left
	// nothing behind, so seed+booked matches the in-order application.
	reordered := newRegistry(t)
	reordered, _ = reordered.SetBooked("2024-06-01", "09:00", true)

	inOrder := newRegistry(t)
	inOrder, _ = inOrder.SetBooked("2024-06-01", "09:00", false)
	inOrder, _ = inOrder.SetBooked("2024-06-01", "09:00", true)

	assert.True(t, reordered.Equal(inOrder))
}

func TestRegistry_BookedThenReleasedRestoresSeed(t *testing.T) {
	r := newRegistry(t)
	r, _ = r.SetBooked("2024-06-01", "09:00", true)
	r, _ = r.SetBooked("2024-06-01", "09:00", false)
	assert.True(t, r.Equal(newRegistry(t)))
}

func TestRegistry_DatesSorted(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02"}, r.Dates())
	assert.Equal(t, 4, r.Len())
}
