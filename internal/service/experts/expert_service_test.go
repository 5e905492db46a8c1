package experts

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockExpertRepository struct {
	mock.Mock
}

func (m *MockExpertRepository) List(ctx context.Context, filter domain.ExpertFilter) ([]domain.Expert, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Expert), args.Int(1), args.Error(2)
}

func (m *MockExpertRepository) GetByID(ctx context.Context, id string) (*domain.Expert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expert), args.Error(1)
}

func (m *MockExpertRepository) SlotsByDate(ctx context.Context, expertID string) (map[string][]domain.Slot, error) {
	args := m.Called(ctx, expertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.Slot), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetExpert(ctx context.Context, expertID string) (*domain.ExpertDetail, error) {
	args := m.Called(ctx, expertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpertDetail), args.Error(1)
}

func (m *MockCache) SetExpert(ctx context.Context, detail *domain.ExpertDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func TestExpertService_ListAppliesDefaults(t *testing.T) {
	repo := &MockExpertRepository{}
	service := NewExpertService(repo, nil, 9, nil)
	ctx := context.Background()

	experts := []domain.Expert{{ID: "exp-1", Name: "Asha"}, {ID: "exp-2", Name: "Ben"}}
	repo.On("List", ctx, domain.ExpertFilter{Category: "Legal", Page: 1, Limit: 9}).Return(experts, 19, nil).Once()

	page, err := service.List(ctx, domain.ExpertFilter{Category: "Legal"})

	require.NoError(t, err)
	assert.Equal(t, experts, page.Experts)
	assert.Equal(t, domain.Pagination{CurrentPage: 1, TotalPages: 3, TotalExperts: 19}, page.Pagination)
	repo.AssertExpectations(t)
}

func TestExpertService_ListCapsLimit(t *testing.T) {
	repo := &MockExpertRepository{}
	service := NewExpertService(repo, nil, 9, nil)
	ctx := context.Background()

	repo.On("List", ctx, domain.ExpertFilter{Page: 2, Limit: maxPageSize}).Return([]domain.Expert{}, 0, nil).Once()

	page, err := service.List(ctx, domain.ExpertFilter{Page: 2, Limit: 1000})

	require.NoError(t, err)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	repo.AssertExpectations(t)
}

func TestExpertService_GetByID_CacheHit(t *testing.T) {
	repo := &MockExpertRepository{}
	cache := &MockCache{}
	service := NewExpertService(repo, cache, 9, nil)
	ctx := context.Background()

	cached := &domain.ExpertDetail{Expert: domain.Expert{ID: "exp-1"}}
	cache.On("GetExpert", ctx, "exp-1").Return(cached, nil).Once()

	detail, err := service.GetByID(ctx, "exp-1")

	require.NoError(t, err)
	assert.Same(t, cached, detail)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestExpertService_GetByID_CacheMissLoadsAndStores(t *testing.T) {
	repo := &MockExpertRepository{}
	cache := &MockCache{}
	service := NewExpertService(repo, cache, 9, nil)
	ctx := context.Background()

	slots := map[string][]domain.Slot{"2024-06-10": {{Time: "10:00"}, {Time: "11:00", IsBooked: true}}}
	cache.On("GetExpert", ctx, "exp-1").Return(nil, nil).Once()
	repo.On("GetByID", ctx, "exp-1").Return(&domain.Expert{ID: "exp-1", Name: "Asha"}, nil).Once()
	repo.On("SlotsByDate", ctx, "exp-1").Return(slots, nil).Once()
	cache.On("SetExpert", ctx, mock.MatchedBy(func(d *domain.ExpertDetail) bool { return d.ID == "exp-1" })).Return(nil).Once()

	detail, err := service.GetByID(ctx, "exp-1")

	require.NoError(t, err)
	assert.Equal(t, "Asha", detail.Name)
	assert.Equal(t, slots, detail.SlotsByDate)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestExpertService_GetByID_CacheErrorFallsBackToRepository(t *testing.T) {
	repo := &MockExpertRepository{}
	cache := &MockCache{}
	service := NewExpertService(repo, cache, 9, nil)
	ctx := context.Background()

	cache.On("GetExpert", ctx, "exp-1").Return(nil, errors.New("redis down")).Once()
	repo.On("GetByID", ctx, "exp-1").Return(&domain.Expert{ID: "exp-1"}, nil).Once()
	repo.On("SlotsByDate", ctx, "exp-1").Return(map[string][]domain.Slot{}, nil).Once()
	cache.On("SetExpert", ctx, mock.Anything).Return(errors.New("redis down")).Once()

	detail, err := service.GetByID(ctx, "exp-1")

	require.NoError(t, err)
	assert.Equal(t, "exp-1", detail.ID)
}

func TestExpertService_GetByID_NotFound(t *testing.T) {
	repo := &MockExpertRepository{}
	service := NewExpertService(repo, nil, 9, nil)
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, repository.ErrNotFound).Once()

	_, err := service.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
