package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func TestDashboardStats_CacheHit(t *testing.T) {
	repo := new(mockDashboardRepository)
	cache := new(mockDashboardCache)
	svc := NewDashboardService(repo, cache, time.Minute, newTestLogger())
	ctx := context.Background()

	cached := &domain.DashboardStats{TotalOrders: 9}
	cache.On("Get", ctx).Return(cached, true, nil)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Same(t, cached, stats)
	repo.AssertNotCalled(t, "StatusCounts", mock.Anything)
}

func TestDashboardStats_ComputesAndCaches(t *testing.T) {
	repo := new(mockDashboardRepository)
	cache := new(mockDashboardCache)
	svc := NewDashboardService(repo, cache, time.Minute, newTestLogger())
	ctx := context.Background()

	cache.On("Get", ctx).Return(nil, false, nil)
	repo.On("StatusCounts", ctx).Return(map[string]int{
		domain.OrderStatusPending:   2,
		domain.OrderStatusDelivered: 5,
		domain.OrderStatusCancelled: 1,
	}, nil)
	repo.On("BestSellers", ctx, domain.BestSellerLimit).Return([]domain.BestSeller{
		{ID: 7, Name: "Brass Lamp", Quantity: 12, Price: 150},
	}, nil)
	cache.On("Set", ctx, mock.AnythingOfType("*domain.DashboardStats"), time.Minute).Return(nil)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalOrders)
	assert.Equal(t, 2, stats.PendingOrders)
	assert.Equal(t, 0, stats.ProcessingOrders)
	assert.Equal(t, 5, stats.DeliveredOrders)
	assert.Equal(t, 1, stats.CancelledOrders)
	require.Len(t, stats.BestSellingProducts, 1)
	cache.AssertExpectations(t)
}

func TestDashboardStats_CacheErrorsDegrade(t *testing.T) {
	repo := new(mockDashboardRepository)
	cache := new(mockDashboardCache)
	svc := NewDashboardService(repo, cache, time.Minute, newTestLogger())
	ctx := context.Background()

	cache.On("Get", ctx).Return(nil, false, errors.New("redis down"))
	repo.On("StatusCounts", ctx).Return(map[string]int{}, nil)
	repo.On("BestSellers", ctx, domain.BestSellerLimit).Return([]domain.BestSeller{}, nil)
	cache.On("Set", ctx, mock.Anything, time.Minute).Return(errors.New("redis down"))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
}

func TestDashboardStats_RepositoryError(t *testing.T) {
	repo := new(mockDashboardRepository)
	cache := new(mockDashboardCache)
	svc := NewDashboardService(repo, cache, time.Minute, newTestLogger())
	ctx := context.Background()

	cache.On("Get", ctx).Return(nil, false, nil)
	repo.On("StatusCounts", ctx).Return(nil, errors.New("db down"))

	_, err := svc.Stats(ctx)
	require.Error(t, err)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}
