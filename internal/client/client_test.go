package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetExpert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/experts/e1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id":"e1","name":"Dr. Mehta","hourlyRate":1500,
			"slotsByDate":{"2024-06-01":[{"time":"09:00","isBooked":false},{"time":"10:00","isBooked":true}]}}`))
	}))
	defer srv.Close()

	detail, err := New(srv.URL+"/api/", time.Second).GetExpert(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Mehta", detail.Name)
	assert.Equal(t, []domain.Slot{{Time: "09:00"}, {Time: "10:00", IsBooked: true}}, detail.SlotsByDate["2024-06-01"])
}

func TestClient_CreateBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req domain.BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "09:00", req.TimeSlot)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"booking": domain.Booking{ID: "b1", ExpertID: req.ExpertID, Status: domain.BookingStatusPending},
		})
	}))
	defer srv.Close()

	booking, err := New(srv.URL, 0).CreateBooking(context.Background(), domain.BookingRequest{ExpertID: "e1", TimeSlot: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
}

func TestClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"booking is already finalized: cancelled"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).UpdateBookingStatus(context.Background(), "b1", domain.BookingStatusConfirmed)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "booking is already finalized: cancelled", apiErr.Message)
}

func TestClient_ListBookingsEncodesEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a+b@example.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"bookings":[{"_id":"b1","status":"confirmed"}]}`))
	}))
	defer srv.Close()

	bookings, err := New(srv.URL, time.Second).ListBookings(context.Background(), "a+b@example.com")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, domain.BookingStatusConfirmed, bookings[0].Status)
}

func TestClient_ListExpertsEncodesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/experts", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tax & audit", q.Get("search"))
		assert.Equal(t, "Finance", q.Get("category"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "9", q.Get("limit"))
		_, _ = w.Write([]byte(`{"experts":[{"_id":"e1","name":"Dr. Mehta","category":"Finance"}],
			"pagination":{"currentPage":2,"totalPages":3,"totalExperts":19}}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, time.Second).ListExperts(context.Background(), domain.ExpertFilter{
		Search: "tax & audit", Category: "Finance", Page: 2, Limit: 9,
	})
	require.NoError(t, err)
	require.Len(t, page.Experts, 1)
	assert.Equal(t, "Dr. Mehta", page.Experts[0].Name)
	assert.Equal(t, domain.Pagination{CurrentPage: 2, TotalPages: 3, TotalExperts: 19}, page.Pagination)
}

func TestClient_ListExpertsOmitsZeroFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"experts":[],"pagination":{"currentPage":1,"totalPages":0,"totalExperts":0}}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, time.Second).ListExperts(context.Background(), domain.ExpertFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Experts)
}
