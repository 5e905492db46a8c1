package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingsAPI struct {
	mock.Mock
}

func (m *MockBookingsAPI) ListBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingsAPI) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func loaded(t *testing.T, api *MockBookingsAPI, bookings ...domain.Booking) *Tracker {
	t.Helper()
	api.On("ListBookings", mock.Anything, "asha@example.com").Return(bookings, nil).Once()
	tr := New(api, nil)
	_, err := tr.Lookup(context.Background(), " asha@example.com ")
	require.NoError(t, err)
	return tr
}

func TestTracker_LookupRejectsBadEmail(t *testing.T) {
	api := &MockBookingsAPI{}
	tr := New(api, nil)

	_, err := tr.Lookup(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	api.AssertNotCalled(t, "ListBookings", mock.Anything, mock.Anything)
}

func TestTracker_UpdateStatusAfterServerConfirms(t *testing.T) {
	api := &MockBookingsAPI{}
	tr := loaded(t, api, domain.Booking{ID: "b1", Status: domain.BookingStatusPending})

	api.On("UpdateBookingStatus", mock.Anything, "b1", domain.BookingStatusConfirmed).
		Return(&domain.Booking{ID: "b1", Status: domain.BookingStatusConfirmed}, nil).Once()

	updated, err := tr.UpdateStatus(context.Background(), "b1", domain.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, domain.BookingStatusConfirmed, tr.Bookings()[0].Status)
	api.AssertExpectations(t)
}

func TestTracker_FailureLeavesStateUnchanged(t *testing.T) {
	api := &MockBookingsAPI{}
	tr := loaded(t, api, domain.Booking{ID: "b1", Status: domain.BookingStatusPending})

	api.On("UpdateBookingStatus", mock.Anything, "b1", domain.BookingStatusCancelled).
		Return(nil, errors.New("timeout")).Once()

	_, err := tr.UpdateStatus(context.Background(), "b1", domain.BookingStatusCancelled)
	var notice *Notice
	require.ErrorAs(t, err, &notice)
	assert.Equal(t, domain.BookingStatusCancelled, notice.Requested)
	assert.Equal(t, domain.BookingStatusPending, tr.Bookings()[0].Status)
}

func TestTracker_TerminalBookingRefusedLocally(t *testing.T) {
	api := &MockBookingsAPI{}
	tr := loaded(t, api, domain.Booking{ID: "b1", Status: domain.BookingStatusPending})

	api.On("UpdateBookingStatus", mock.Anything, "b1", domain.BookingStatusCancelled).
		Return(&domain.Booking{ID: "b1", Status: domain.BookingStatusCancelled}, nil).Once()

	_, err := tr.UpdateStatus(context.Background(), "b1", domain.BookingStatusCancelled)
	require.NoError(t, err)

	_, err = tr.UpdateStatus(context.Background(), "b1", domain.BookingStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrTerminalStatus)
	assert.Equal(t, domain.BookingStatusCancelled, tr.Bookings()[0].Status)
	api.AssertNumberOfCalls(t, "UpdateBookingStatus", 1)
}

func TestTracker_UnknownBooking(t *testing.T) {
	api := &MockBookingsAPI{}
	tr := loaded(t, api)

	_, err := tr.UpdateStatus(context.Background(), "missing", domain.BookingStatusConfirmed)
	assert.ErrorIs(t, err, ErrUnknownBooking)
}

func TestActions(t *testing.T) {
	assert.Equal(t, []domain.BookingStatus{domain.BookingStatusConfirmed, domain.BookingStatusCancelled},
		Actions(domain.Booking{Status: domain.BookingStatusPending}))
	assert.Equal(t, []domain.BookingStatus{domain.BookingStatusCompleted},
		Actions(domain.Booking{Status: domain.BookingStatusConfirmed}))
	assert.Empty(t, Actions(domain.Booking{Status: domain.BookingStatusCompleted}))
}
