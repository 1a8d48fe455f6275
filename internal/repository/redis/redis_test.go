package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

func TestCartRepository_Get_MissingReturnsEmpty(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	cart, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.NotNil(t, cart.Lines)
	assert.True(t, cart.IsEmpty())
}

func TestCartRepository_SaveAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	cart := domain.NewCart("user-1")
	require.NoError(t, cart.AddToCart(7, 2))
	require.NoError(t, cart.AddToCart(8, 1))

	require.NoError(t, repo.Save(context.Background(), cart))
	assert.True(t, mr.Exists("cart:user-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:user-1"))

	raw, err := mr.Get("cart:user-1")
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Contains(t, stored, "items")

	got, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 2, got.Quantity(7))
	assert.Equal(t, 1, got.Quantity(8))
}

func TestCartRepository_Save_EmptyDeletes(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	require.NoError(t, mr.Set("cart:user-1", `{"userId":"user-1","items":[{"productId":7,"quantity":1}]}`))

	require.NoError(t, repo.Save(context.Background(), domain.NewCart("user-1")))
	assert.False(t, mr.Exists("cart:user-1"))
}

func TestCartRepository_Get_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Hour)

	require.NoError(t, mr.Set("cart:user-bad", "{{not-valid-json"))

	got, err := repo.Get(context.Background(), "user-bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_ExpiredAfterTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewCartRepository(client, time.Minute)

	cart := domain.NewCart("user-1")
	require.NoError(t, cart.AddToCart(7, 1))
	require.NoError(t, repo.Save(context.Background(), cart))

	mr.FastForward(2 * time.Minute)

	got, err := repo.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

// ---------------------------------------------------------------------------
// OTP
// ---------------------------------------------------------------------------

func TestOTPRepository_SaveGetIncrement(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewOTPRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "Asha@Example.com", "hash-1", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL("otp:asha@example.com"))

	code, attempts, err := repo.Get(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", code)
	assert.Equal(t, 0, attempts)

	n, err := repo.IncrementAttempts(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A new code resets the counter.
	require.NoError(t, repo.Save(ctx, "asha@example.com", "hash-2", 5*time.Minute))
	code, attempts, err = repo.Get(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-2", code)
	assert.Equal(t, 0, attempts)
}

func TestOTPRepository_Get_Missing(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewOTPRepository(client)

	_, _, err := repo.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOTPRepository_IncrementAttempts_ExpiredCode(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewOTPRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "asha@example.com", "hash", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := repo.IncrementAttempts(ctx, "asha@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, mr.Exists("otp:asha@example.com"))
}

func TestOTPRepository_Delete(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewOTPRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "asha@example.com", "hash", time.Minute))
	require.NoError(t, repo.Delete(ctx, "asha@example.com"))
	assert.False(t, mr.Exists("otp:asha@example.com"))
}

// ---------------------------------------------------------------------------
// Idempotency
// ---------------------------------------------------------------------------

func TestIdempotencyRepository_ReserveLifecycle(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewIdempotencyRepository(client)
	ctx := context.Background()

	reserved, existing, err := repo.Reserve(ctx, "user-1:key-1", "fp-a", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Empty(t, existing.OrderID)

	// Second request while the first is in flight.
	reserved, existing, err = repo.Reserve(ctx, "user-1:key-1", "fp-a", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "fp-a", existing.Fingerprint)
	assert.Empty(t, existing.OrderID)

	require.NoError(t, repo.Complete(ctx, "user-1:key-1", "fp-a", "order-42", 24*time.Hour))

	reserved, existing, err = repo.Reserve(ctx, "user-1:key-1", "fp-a", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "fp-a", existing.Fingerprint)
	assert.Equal(t, "order-42", existing.OrderID)
	assert.Equal(t, 24*time.Hour, mr.TTL("idempotency:user-1:key-1"))
}

func TestIdempotencyRepository_ReportsOriginalFingerprint(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewIdempotencyRepository(client)
	ctx := context.Background()

	_, _, err := repo.Reserve(ctx, "k", "fp-a", time.Hour)
	require.NoError(t, err)
	require.NoError(t, repo.Complete(ctx, "k", "fp-a", "order-1", time.Hour))

	reserved, existing, err := repo.Reserve(ctx, "k", "fp-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "fp-a", existing.Fingerprint)
	assert.Equal(t, "order-1", existing.OrderID)
}

func TestIdempotencyRepository_ReleaseAllowsRetry(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewIdempotencyRepository(client)
	ctx := context.Background()

	reserved, _, err := repo.Reserve(ctx, "k", "fp-a", time.Hour)
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, repo.Release(ctx, "k"))

	reserved, _, err = repo.Reserve(ctx, "k", "fp-b", time.Hour)
	require.NoError(t, err)
	assert.True(t, reserved)
}

// ---------------------------------------------------------------------------
// Dashboard cache
// ---------------------------------------------------------------------------

func TestDashboardCache_RoundTripAndInvalidate(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewDashboardCache(client)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	stats := &domain.DashboardStats{
		TotalOrders:   3,
		PendingOrders: 2,
		BestSellingProducts: []domain.BestSeller{
			{ID: 7, Name: "Brass Lamp", Quantity: 4, Price: 150},
		},
	}
	require.NoError(t, cache.Set(ctx, stats, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("dashboard:stats"))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.TotalOrders)
	require.Len(t, got.BestSellingProducts, 1)
	assert.Equal(t, "Brass Lamp", got.BestSellingProducts[0].Name)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Event store
// ---------------------------------------------------------------------------

func TestEventStore_SeenAfterMark(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewEventStore(client, time.Hour)
	ctx := context.Background()

	seen, err := store.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.MarkSeen(ctx, "evt-1"))

	seen, err = store.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Hour)
	seen, err = store.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}
