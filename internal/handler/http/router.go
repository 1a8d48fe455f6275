package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// publicCacheMaxAge is the Cache-Control max-age of anonymous catalog reads.
const publicCacheMaxAge = 60 * time.Second

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Address *AddressHandler
	Payment *PaymentHandler
	Admin   *AdminHandler
	Media   *MediaHandler
}

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	ShopAuth       *SessionAuth
	AdminAuth      *SessionAuth
	AuthLimiter    *middleware.RateLimiter
	Health         *health.Handler
	CORSOrigins    []string
	PprofCIDRs     []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter creates a chi router with every storefront route registered.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins}))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogging(cfg.Logger))

	// Health check endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.MountPprof(r, cfg.PprofCIDRs, cfg.Logger)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Metrics("admin"))
		r.Use(middleware.NoStore)
		mountAdmin(r, h, cfg)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Metrics("shop"))
		mountShop(r, h, cfg)
	})

	return r
}

func mountShop(r chi.Router, h Handlers, cfg RouterConfig) {
	// Anonymous catalog reads
	r.Group(func(r chi.Router) {
		r.Use(middleware.CacheControl(publicCacheMaxAge))

		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{id}", h.Catalog.GetProduct)
		r.Get("/search", h.Catalog.Search)
		r.Get("/categories", h.Catalog.CategoryTree)
		r.Get("/categories/{id}/products", h.Catalog.CategoryProducts)
		r.Get("/category-grids", h.Catalog.VisibleGrids)
		r.Get("/homepage-sections", h.Catalog.HomepageSections)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.RequireJSON)

		r.With(limit(cfg.AuthLimiter)).Post("/auth/register", h.Auth.Register)
		r.With(limit(cfg.AuthLimiter)).Post("/auth/login", h.Auth.Login)
		r.With(limit(cfg.AuthLimiter)).Post("/auth/otp/request", h.Auth.RequestOTP)
		r.With(limit(cfg.AuthLimiter)).Post("/auth/otp/verify", h.Auth.VerifyOTP)
		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/cart-products", h.Catalog.CartProducts)

		// Shop session required
		r.Group(func(r chi.Router) {
			r.Use(cfg.ShopAuth.Require)

			r.Get("/auth/session", h.Auth.Session)

			r.Get("/cart", h.Cart.GetCart)
			r.Delete("/cart", h.Cart.ClearCart)
			r.Put("/cart/items", h.Cart.SetItem)
			r.Get("/cart/items/{productId}", h.Cart.ItemQuantity)

			r.Post("/checkout", h.Order.Checkout)
			r.Get("/orders", h.Order.ListMyOrders)
			r.Get("/orders/{id}", h.Order.GetMyOrder)
			r.Get("/orders/{id}/invoice", h.Order.Invoice)

			r.Get("/addresses", h.Address.ListAddresses)
			r.Post("/addresses", h.Address.CreateAddress)
			r.Patch("/addresses/{id}", h.Address.UpdateAddress)
			r.Delete("/addresses/{id}", h.Address.DeleteAddress)
			r.Put("/addresses/{id}/default", h.Address.SetDefault)

			r.Post("/payments/razorpay/orders", h.Payment.CreateGatewayOrder)
			r.Post("/payments/razorpay/verify", h.Payment.VerifyPayment)
		})
	})
}

func mountAdmin(r chi.Router, h Handlers, cfg RouterConfig) {
	r.With(middleware.RequireJSON, limit(cfg.AuthLimiter)).Post("/auth/login", h.Auth.AdminLogin)
	r.Post("/auth/logout", h.Auth.AdminLogout)

	r.Group(func(r chi.Router) {
		r.Use(cfg.AdminAuth.Require)

		// Multipart, so outside RequireJSON.
		r.Post("/media", h.Media.Upload)
		r.Delete("/media", h.Media.Delete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON)

			r.Get("/auth/session", h.Auth.AdminSession)
			r.Get("/dashboard", h.Admin.Dashboard)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Catalog.ListProducts)
				r.Post("/", h.Catalog.CreateProduct)
				r.Get("/{id}", h.Catalog.GetProduct)
				r.Put("/{id}", h.Catalog.UpdateProduct)
				r.Delete("/{id}", h.Catalog.DeleteProduct)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Catalog.ListCategories)
				r.Post("/", h.Catalog.CreateCategory)
				r.Get("/{id}", h.Catalog.GetCategory)
				r.Put("/{id}", h.Catalog.UpdateCategory)
				r.Delete("/{id}", h.Catalog.DeleteCategory)
			})

			r.Route("/category-grids", func(r chi.Router) {
				r.Get("/", h.Catalog.ListGrids)
				r.Post("/", h.Catalog.CreateGrid)
				r.Post("/reorder", h.Catalog.ReorderGrids)
				r.Patch("/{id}", h.Catalog.UpdateGrid)
				r.Delete("/{id}", h.Catalog.DeleteGrid)
			})

			r.Route("/homepage-sections", func(r chi.Router) {
				r.Get("/", h.Catalog.ListSections)
				r.Post("/", h.Catalog.CreateSection)
				r.Put("/{id}", h.Catalog.UpdateSection)
				r.Delete("/{id}", h.Catalog.DeleteSection)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.Admin.ListCustomers)
				r.Post("/bulk-delete", h.Admin.DeleteCustomers)
				r.Delete("/{id}", h.Admin.DeleteCustomer)
			})

			r.Route("/staff", func(r chi.Router) {
				r.Use(RequireRole(domain.RoleSuperAdmin))
				r.Get("/", h.Admin.ListStaff)
				r.Post("/", h.Admin.CreateStaff)
				r.Post("/bulk-delete", h.Admin.DeleteStaffMembers)
				r.Patch("/{id}", h.Admin.UpdateStaff)
				r.Delete("/{id}", h.Admin.DeleteStaff)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Order.ListOrders)
				r.Get("/{id}", h.Order.GetOrder)
				r.Patch("/{id}/status", h.Order.UpdateStatus)
			})
		})
	})
}

// limit applies rl when it is configured.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Handler
}
