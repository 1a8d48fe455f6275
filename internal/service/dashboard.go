package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// DashboardService computes back-office statistics behind a short-lived cache.
type DashboardService struct {
	repo   repository.DashboardRepository
	cache  repository.DashboardCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(repo repository.DashboardRepository, cache repository.DashboardCache, ttl time.Duration, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Stats returns order counts per status and the best-selling products.
// Cache failures degrade to a fresh computation.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard cache read failed", slog.String("error", err.Error()))
	} else if ok {
		return cached, nil
	}

	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard status counts: %w", err)
	}
	sellers, err := s.repo.BestSellers(ctx, domain.BestSellerLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard best sellers: %w", err)
	}

	stats := &domain.DashboardStats{BestSellingProducts: sellers}
	stats.ApplyStatusCounts(counts)

	if err := s.cache.Set(ctx, stats, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed", slog.String("error", err.Error()))
	}
	return stats, nil
}
