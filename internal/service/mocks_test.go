package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/payment"
	"github.com/utafrali/storefront/internal/repository"
)

// --- Catalog ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, perPage int) ([]domain.Product, int, error) {
	args := m.Called(ctx, query, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) List(ctx context.Context, publishedOnly bool) ([]domain.Category, error) {
	args := m.Called(ctx, publishedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockGridRepository struct {
	mock.Mock
}

func (m *mockGridRepository) List(ctx context.Context, visibleOnly bool) ([]domain.CategoryGrid, error) {
	args := m.Called(ctx, visibleOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryGrid), args.Error(1)
}

func (m *mockGridRepository) GetByID(ctx context.Context, id int64) (*domain.CategoryGrid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryGrid), args.Error(1)
}

func (m *mockGridRepository) Create(ctx context.Context, g *domain.CategoryGrid) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockGridRepository) Update(ctx context.Context, g *domain.CategoryGrid) error {
	return m.Called(ctx, g).Error(0)
}

func (m *mockGridRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockGridRepository) Reorder(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

type mockSectionRepository struct {
	mock.Mock
}

func (m *mockSectionRepository) List(ctx context.Context, activeOnly bool) ([]domain.HomepageSection, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HomepageSection), args.Error(1)
}

func (m *mockSectionRepository) GetByID(ctx context.Context, id int64) (*domain.HomepageSection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HomepageSection), args.Error(1)
}

func (m *mockSectionRepository) Create(ctx context.Context, s *domain.HomepageSection) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSectionRepository) Update(ctx context.Context, s *domain.HomepageSection) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSectionRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// --- Accounts ---

type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockCustomerRepository) List(ctx context.Context, page, perPage int) ([]domain.Customer, int, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Customer), args.Int(1), args.Error(2)
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCustomerRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type mockStaffRepository struct {
	mock.Mock
}

func (m *mockStaffRepository) Create(ctx context.Context, s *domain.Staff) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStaffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockStaffRepository) GetByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Staff), args.Error(1)
}

func (m *mockStaffRepository) List(ctx context.Context) ([]domain.Staff, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Staff), args.Error(1)
}

func (m *mockStaffRepository) Update(ctx context.Context, s *domain.Staff) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStaffRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStaffRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStaffRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockAddressRepository struct {
	mock.Mock
}

func (m *mockAddressRepository) Create(ctx context.Context, a *domain.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAddressRepository) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Update(ctx context.Context, a *domain.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAddressRepository) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockAddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

// --- Orders ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *mockOrderRepository) SetGatewayOrderID(ctx context.Context, id, gatewayOrderID string) error {
	return m.Called(ctx, id, gatewayOrderID).Error(0)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, id, gatewayPaymentID string) error {
	return m.Called(ctx, id, gatewayPaymentID).Error(0)
}

func (m *mockOrderRepository) MarkPaymentFailed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return m.Called(ctx, cart).Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockIdempotencyRepository struct {
	mock.Mock
}

func (m *mockIdempotencyRepository) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, repository.IdempotencyRecord, error) {
	args := m.Called(ctx, key, fingerprint, ttl)
	return args.Bool(0), args.Get(1).(repository.IdempotencyRecord), args.Error(2)
}

func (m *mockIdempotencyRepository) Complete(ctx context.Context, key, fingerprint, orderID string, ttl time.Duration) error {
	return m.Called(ctx, key, fingerprint, orderID, ttl).Error(0)
}

func (m *mockIdempotencyRepository) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *mockPublisher) PublishOrderStatusChanged(ctx context.Context, o *domain.Order, from string) error {
	return m.Called(ctx, o, from).Error(0)
}

// --- Dashboard ---

type mockDashboardRepository struct {
	mock.Mock
}

func (m *mockDashboardRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockDashboardRepository) BestSellers(ctx context.Context, limit int) ([]domain.BestSeller, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BestSeller), args.Error(1)
}

type mockDashboardCache struct {
	mock.Mock
}

func (m *mockDashboardCache) Get(ctx context.Context) (*domain.DashboardStats, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.DashboardStats), args.Bool(1), args.Error(2)
}

func (m *mockDashboardCache) Set(ctx context.Context, stats *domain.DashboardStats, ttl time.Duration) error {
	return m.Called(ctx, stats, ttl).Error(0)
}

func (m *mockDashboardCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// --- Payments ---

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string  { return "test" }
func (m *mockGateway) KeyID() string { return "key_test" }

func (m *mockGateway) CreateOrder(ctx context.Context, input *payment.CreateOrderInput) (*payment.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *mockGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return m.Called(gatewayOrderID, paymentID, signature).Bool(0)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func int64Ptr(n int64) *int64 {
	return &n
}

func intPtr(n int) *int {
	return &n
}
