package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExpertUseCase struct {
	mock.Mock
}

func (m *MockExpertUseCase) List(ctx context.Context, filter domain.ExpertFilter) (*domain.ExpertPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpertPage), args.Error(1)
}

func (m *MockExpertUseCase) GetByID(ctx context.Context, id string) (*domain.ExpertDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpertDetail), args.Error(1)
}

func newExpertRouter(service *MockExpertUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewExpertHandler(service, nil).Register(router.Group("/experts"))
	return router
}

func TestExpertHandler_list(t *testing.T) {
	service := &MockExpertUseCase{}
	router := newExpertRouter(service)

	page := &domain.ExpertPage{
		Experts:    []domain.Expert{{ID: "exp-1", Name: "Asha"}},
		Pagination: domain.Pagination{CurrentPage: 2, TotalPages: 3, TotalExperts: 19},
	}
	filter := domain.ExpertFilter{Search: "asha", Category: "Legal", Page: 2, Limit: 9}
	service.On("List", mock.Anything, filter).Return(page, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experts?page=2&limit=9&search=asha&category=Legal", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp domain.ExpertPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, page.Pagination, resp.Pagination)
	assert.Equal(t, "exp-1", resp.Experts[0].ID)
	service.AssertExpectations(t)
}

func TestExpertHandler_list_InvalidPage(t *testing.T) {
	service := &MockExpertUseCase{}
	router := newExpertRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experts?page=two", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestExpertHandler_get(t *testing.T) {
	service := &MockExpertUseCase{}
	router := newExpertRouter(service)

	detail := &domain.ExpertDetail{
		Expert:      domain.Expert{ID: "exp-1", Name: "Asha"},
		SlotsByDate: map[string][]domain.Slot{"2024-06-10": {{Time: "10:00", IsBooked: true}}},
	}
	service.On("GetByID", mock.Anything, "exp-1").Return(detail, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experts/exp-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp domain.ExpertDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Asha", resp.Name)
	assert.True(t, resp.SlotsByDate["2024-06-10"][0].IsBooked)
}

func TestExpertHandler_get_NotFound(t *testing.T) {
	service := &MockExpertUseCase{}
	router := newExpertRouter(service)
	service.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/experts/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}
