package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/media"
	paymock "github.com/utafrali/storefront/internal/payment/mock"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
)

const (
	testUserID    = "11111111-1111-1111-1111-111111111111"
	testAddressID = "22222222-2222-2222-2222-222222222222"
	testOrderID   = "33333333-3333-3333-3333-333333333333"
	testStaffID   = "44444444-4444-4444-4444-444444444444"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv is the full router over mocked Postgres repositories and a
// miniredis-backed cart, OTP and idempotency store.
type testEnv struct {
	router      http.Handler
	products    *mockProductRepository
	addresses   *mockAddressRepository
	orders      *mockOrderRepository
	customers   *mockCustomerRepository
	staff       *mockStaffRepository
	redis       *miniredis.Miniredis
	shopTokens  *auth.SessionManager
	adminTokens *auth.SessionManager
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		products:    &mockProductRepository{},
		addresses:   &mockAddressRepository{},
		orders:      &mockOrderRepository{},
		customers:   &mockCustomerRepository{},
		staff:       &mockStaffRepository{},
		redis:       mr,
		shopTokens:  auth.NewSessionManager("shop-secret-for-tests-0123456789", auth.AudienceShop, time.Hour),
		adminTokens: auth.NewSessionManager("admin-secret-for-tests-012345678", auth.AudienceAdmin, time.Hour),
	}

	logger := testLogger()
	hasher := auth.NewHasher(4)
	carts := redisrepo.NewCartRepository(client, time.Hour)

	authSvc := service.NewAuthService(env.customers, env.staff, redisrepo.NewOTPRepository(client), hasher,
		env.shopTokens, env.adminTokens, auth.NewLogSender(logger),
		service.OTPConfig{TTL: 5 * time.Minute, MaxAttempts: 5}, logger)
	catalogSvc := service.NewCatalogService(env.products, nil, nil, nil, logger)
	cartSvc := service.NewCartService(carts, env.products, logger)
	orderSvc := service.NewOrderService(env.orders, env.addresses, env.products, carts,
		redisrepo.NewIdempotencyRepository(client), 0, event.NewProducer(nil, logger), logger)
	addressSvc := service.NewAddressService(env.addresses, logger)
	paymentSvc := service.NewPaymentService(env.orders, paymock.NewGateway(), "INR", logger)
	adminSvc := service.NewAdminService(env.customers, env.staff, hasher, logger)
	mediaSvc := service.NewMediaService(media.Disabled{}, "storefront", logger)

	shopAuth := NewSessionAuth(env.shopTokens, ShopCookie, false, logger)
	adminAuth := NewSessionAuth(env.adminTokens, AdminCookie, false, logger)

	env.router = NewRouter(Handlers{
		Auth:    NewAuthHandler(authSvc, shopAuth, adminAuth, logger),
		Catalog: NewCatalogHandler(catalogSvc, logger),
		Cart:    NewCartHandler(cartSvc, logger),
		Order:   NewOrderHandler(orderSvc, logger),
		Address: NewAddressHandler(addressSvc, logger),
		Payment: NewPaymentHandler(paymentSvc, logger),
		Admin:   NewAdminHandler(adminSvc, nil, logger),
		Media:   NewMediaHandler(mediaSvc, logger),
	}, RouterConfig{
		ShopAuth:    shopAuth,
		AdminAuth:   adminAuth,
		AuthLimiter: limiter,
		Health:      health.NewHandler(),
		Logger:      logger,
	})
	return env
}

func (e *testEnv) shopToken(t *testing.T, id string) string {
	t.Helper()
	s, err := domain.NewUserSession(id)
	require.NoError(t, err)
	token, _, err := e.shopTokens.Issue(s)
	require.NoError(t, err)
	return token
}

func (e *testEnv) adminToken(t *testing.T, id, role string) string {
	t.Helper()
	s, err := domain.NewAdminSession(id, role)
	require.NoError(t, err)
	token, _, err := e.adminTokens.Issue(s)
	require.NoError(t, err)
	return token
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the {"data": ...} envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func brassLamp() *domain.Product {
	return &domain.Product{ID: 7, Name: "Brass Lamp", Slug: "brass-lamp", Price: 150, Stock: 10, Images: []string{"lamp.jpg"}}
}

func testAddress() *domain.Address {
	return &domain.Address{
		ID:           testAddressID,
		UserID:       testUserID,
		FullName:     "Asha Rao",
		PhoneNumber:  "9999999999",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "KA",
		PostalCode:   "560001",
		IsDefault:    true,
		AddressLabel: domain.AddressLabelHome,
	}
}
