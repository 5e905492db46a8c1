package experts

import (
	"context"

	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/repository"
	"go.uber.org/zap"
)

const maxPageSize = 50

type ExpertUseCase interface {
	List(ctx context.Context, filter domain.ExpertFilter) (*domain.ExpertPage, error)
	GetByID(ctx context.Context, id string) (*domain.ExpertDetail, error)
}

type Cache interface {
	GetExpert(ctx context.Context, expertID string) (*domain.ExpertDetail, error)
	SetExpert(ctx context.Context, detail *domain.ExpertDetail) error
}

type ExpertService struct {
	repo        repository.ExpertRepository
	cache       Cache
	defaultSize int
	logger      *zap.Logger
}

func NewExpertService(repo repository.ExpertRepository, cache Cache, defaultSize int, logger *zap.Logger) *ExpertService {
	if defaultSize <= 0 {
		defaultSize = 9
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpertService{repo: repo, cache: cache, defaultSize: defaultSize, logger: logger}
}

func (s *ExpertService) List(ctx context.Context, filter domain.ExpertFilter) (*domain.ExpertPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = s.defaultSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	experts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &domain.ExpertPage{
		Experts: experts,
		Pagination: domain.Pagination{
			CurrentPage:  filter.Page,
			TotalPages:   (total + filter.Limit - 1) / filter.Limit,
			TotalExperts: total,
		},
	}, nil
}

// GetByID returns the profile with its calendar, read through the cache.
func (s *ExpertService) GetByID(ctx context.Context, id string) (*domain.ExpertDetail, error) {
	if s.cache != nil {
		cached, err := s.cache.GetExpert(ctx, id)
		if err != nil {
			s.logger.Warn("expert cache read", zap.String("expert_id", id), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	expert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.SlotsByDate(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &domain.ExpertDetail{Expert: *expert, SlotsByDate: slots}
	if s.cache != nil {
		if err := s.cache.SetExpert(ctx, detail); err != nil {
			s.logger.Warn("expert cache write", zap.String("expert_id", id), zap.Error(err))
		}
	}
	return detail, nil
}

var _ ExpertUseCase = (*ExpertService)(nil)
