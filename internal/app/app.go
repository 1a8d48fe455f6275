package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/media"
	"github.com/utafrali/storefront/internal/payment"
	paymock "github.com/utafrali/storefront/internal/payment/mock"
	"github.com/utafrali/storefront/internal/payment/razorpay"
	pgrepo "github.com/utafrali/storefront/internal/repository/postgres"
	redisrepo "github.com/utafrali/storefront/internal/repository/redis"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	serviceName = "storefront"

	// Handled event IDs are remembered this long for consumer deduplication.
	eventDedupTTL = 24 * time.Hour

	// bcrypt work factor for customer and staff passwords.
	passwordCost = 12
)

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	consumer   *pkgkafka.Consumer
	limiter    *middleware.RateLimiter
	stopLimit  context.CancelFunc
	tracing    tracing.ShutdownFunc
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracing = shutdownTracing

	// PostgreSQL
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{
		URL:             cfg.PostgresDSN(),
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	}, logger)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// Redis
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.rdb = rdb
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka is optional. Without brokers order events are not published.
	var publisher pkgkafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{Brokers: cfg.KafkaBrokers}, logger)
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("no kafka brokers configured, order events disabled")
	}

	// Repositories
	products := pgrepo.NewProductRepository(pool)
	categories := pgrepo.NewCategoryRepository(pool)
	grids := pgrepo.NewCategoryGridRepository(pool)
	sections := pgrepo.NewHomepageSectionRepository(pool)
	customers := pgrepo.NewCustomerRepository(pool)
	staff := pgrepo.NewStaffRepository(pool)
	addresses := pgrepo.NewAddressRepository(pool)
	orders := pgrepo.NewOrderRepository(pool)
	dashboardRepo := pgrepo.NewDashboardRepository(pool)

	carts := redisrepo.NewCartRepository(rdb, cfg.CartTTL)
	otps := redisrepo.NewOTPRepository(rdb)
	idempotency := redisrepo.NewIdempotencyRepository(rdb)
	dashboardCache := redisrepo.NewDashboardCache(rdb)

	// Sessions
	hasher := auth.NewHasher(passwordCost)
	shopTokens := auth.NewSessionManager(cfg.ShopJWTSecret, auth.AudienceShop, cfg.ShopSessionTTL)
	adminTokens := auth.NewSessionManager(cfg.AdminJWTSecret, auth.AudienceAdmin, cfg.AdminSessionTTL)

	// Services
	producer := event.NewProducer(publisher, logger)
	authService := service.NewAuthService(customers, staff, otps, hasher, shopTokens, adminTokens,
		auth.NewLogSender(logger), service.OTPConfig{TTL: cfg.OTPTTL, MaxAttempts: cfg.OTPMaxAttempts}, logger)
	catalogService := service.NewCatalogService(products, categories, grids, sections, logger)
	cartService := service.NewCartService(carts, products, logger)
	orderService := service.NewOrderService(orders, addresses, products, carts, idempotency,
		cfg.IdempotencyTTL, producer, logger)
	addressService := service.NewAddressService(addresses, logger)
	paymentService := service.NewPaymentService(orders, newGateway(cfg, logger), cfg.Currency, logger)
	adminService := service.NewAdminService(customers, staff, hasher, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, dashboardCache, cfg.DashboardCacheTTL, logger)
	mediaService := service.NewMediaService(newMediaStore(cfg, logger), cfg.MediaRootFolder, logger)

	created, err := authService.BootstrapAdmin(ctx, cfg.AdminBootstrapPassword)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Warn("bootstrap admin account created, change its password",
			slog.String("username", service.BootstrapUsername),
		)
	}

	// Order events invalidate the cached dashboard.
	if len(cfg.KafkaBrokers) > 0 {
		orderEvents := event.NewConsumer(dashboardCache, logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaConsumerGroup,
			Topics:  orderEvents.Topics(),
		}, pkgkafka.IdempotentHandler(redisrepo.NewEventStore(rdb, eventDedupTTL), orderEvents.Handle, logger),
			a.dlq, logger)
	}

	// Health checks
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	limiterCtx, stopLimit := context.WithCancel(context.Background())
	a.stopLimit = stopLimit
	a.limiter = middleware.NewRateLimiter(limiterCtx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger)

	shopAuth := handler.NewSessionAuth(shopTokens, handler.ShopCookie, cfg.CookieSecure, logger)
	adminAuth := handler.NewSessionAuth(adminTokens, handler.AdminCookie, cfg.CookieSecure, logger)

	router := handler.NewRouter(handler.Handlers{
		Auth:    handler.NewAuthHandler(authService, shopAuth, adminAuth, logger),
		Catalog: handler.NewCatalogHandler(catalogService, logger),
		Cart:    handler.NewCartHandler(cartService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
		Address: handler.NewAddressHandler(addressService, logger),
		Payment: handler.NewPaymentHandler(paymentService, logger),
		Admin:   handler.NewAdminHandler(adminService, dashboardService, logger),
		Media:   handler.NewMediaHandler(mediaService, logger),
	}, handler.RouterConfig{
		ShopAuth:       shopAuth,
		AdminAuth:      adminAuth,
		AuthLimiter:    a.limiter,
		Health:         healthHandler,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

func newGateway(cfg *config.Config, logger *slog.Logger) payment.Gateway {
	if !cfg.PaymentsConfigured() {
		logger.Warn("razorpay credentials not set, using the mock payment gateway")
		return paymock.NewGateway()
	}
	return razorpay.New(razorpay.Config{
		BaseURL:   cfg.RazorpayBaseURL,
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
	}, logger)
}

func newMediaStore(cfg *config.Config, logger *slog.Logger) media.Store {
	if !cfg.MediaConfigured() {
		logger.Warn("media host credentials not set, uploads are disabled")
		return media.Disabled{}
	}
	return media.NewCloudinary(media.CloudinaryConfig{
		BaseURL:   cfg.MediaBaseURL,
		CloudName: cfg.MediaCloudName,
		APIKey:    cfg.MediaAPIKey,
		APISecret: cfg.MediaAPISecret,
	}, logger)
}

// Run starts the HTTP server and the event consumer and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.consumer != nil {
		go func() {
			a.logger.Info("starting order event consumer",
				slog.String("group", a.cfg.KafkaConsumerGroup),
			)
			if err := a.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("event consumer: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		}
	}

	a.closeAll()

	if a.tracing != nil {
		if err := a.tracing(shutdownCtx); err != nil {
			a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// closeAll releases whatever NewApp managed to open.
func (a *App) closeAll() {
	if a.stopLimit != nil {
		a.stopLimit()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
