package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/expertbooking/api"
	"github.com/Domenick1991/expertbooking/config"
	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/metrics"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubExperts struct{}

func (stubExperts) List(context.Context, domain.ExpertFilter) (*domain.ExpertPage, error) {
	return &domain.ExpertPage{Experts: []domain.Expert{}}, nil
}

func (stubExperts) GetByID(context.Context, string) (*domain.ExpertDetail, error) {
	return &domain.ExpertDetail{Expert: domain.Expert{ID: "exp-1"}}, nil
}

type stubBookings struct{}

func (stubBookings) CreateBooking(context.Context, domain.BookingRequest) (*domain.Booking, error) {
	return &domain.Booking{ID: "b-1"}, nil
}

func (stubBookings) ListByEmail(context.Context, string) ([]domain.Booking, error) {
	return []domain.Booking{}, nil
}

func (stubBookings) UpdateStatus(context.Context, string, domain.BookingStatus) (*domain.Booking, error) {
	return &domain.Booking{ID: "b-1"}, nil
}

func newTestRouter(checks map[string]api.Pinger) http.Handler {
	cfg := config.Default()
	hub := realtime.NewHub()
	return NewRouter(&cfg, Services{
		Experts:  stubExperts{},
		Bookings: stubBookings{},
		Realtime: hub,
		Metrics:  metrics.New(),
		Checks:   checks,
	}, zap.NewNop())
}

func TestRouter_mountsRoutes(t *testing.T) {
	router := newTestRouter(nil)

	for _, target := range []string{"/api/experts", "/api/experts/exp-1", "/api/bookings?email=a@b.co", "/healthz"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, w.Code, target)
	}
}

func TestRouter_metricsExposeRequests(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/experts", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/experts",status="200"} 1`)
}

func TestRouter_healthReportsFailingDependency(t *testing.T) {
	router := newTestRouter(map[string]api.Pinger{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
}
