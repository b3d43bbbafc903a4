// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"travelhub/docs"
	"travelhub/internal/admin"
	"travelhub/internal/auth"
	"travelhub/internal/bookings"
	"travelhub/internal/catalog"
	"travelhub/internal/checkout"
	"travelhub/internal/coupons"
	"travelhub/internal/history"
	"travelhub/internal/jobs"
	"travelhub/internal/notifications"
	"travelhub/internal/payments"
	"travelhub/internal/profiles"
	"travelhub/internal/receipts"
	"travelhub/internal/seats"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/database"
	"travelhub/internal/shared/middleware"
	"travelhub/internal/shared/session"
	"travelhub/internal/users"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router owns the service graph and mounts every feature's routes.
type Router struct {
	config    *config.Config
	db        *database.DB
	log       *logger.Logger
	publisher notifications.Publisher
	guards    middleware.Guards
	broker    *session.Broker

	users    users.Service
	profiles profiles.Service
	catalog  catalog.Service
	seats    seats.Service
	coupons  coupons.Service
	bookings bookings.Service
	payments payments.Service

	auth     auth.Service
	checkout checkout.Service
	history  history.Service
	receipts receipts.Service
	admin    admin.Service
}

// itemResolver lets seats be built before the catalog it reads from.
type itemResolver struct {
	catalog.Service
}

func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher, log *logger.Logger) *Router {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	r := &Router{config: cfg, db: db, log: log, publisher: publisher}
	r.wire()
	return r
}

func (r *Router) wire() {
	pg, cfg := r.db.PostgreSQL, r.config
	cacheSvc := cache.NewService(r.db.Redis, r.log)
	r.broker = session.NewBroker(16)

	r.users = users.NewService(users.NewRepository(pg))
	r.guards = middleware.NewGuards(cfg, r.users, r.log)
	r.profiles = profiles.NewService(profiles.NewRepository(pg), r.broker, r.log)
	r.auth = auth.NewService(users.NewRepository(pg), r.profiles, cacheSvc, r.broker, cfg, r.log)

	items := &itemResolver{}
	r.seats = seats.NewService(
		seats.NewRepository(pg),
		seats.NewHoldStore(r.db.Redis, cfg.Redis.SeatHoldTTL),
		seats.NewGenerator(cfg.Inventory.Seed, cfg.Inventory.AvailabilityRatio),
		items,
		cacheSvc,
		cfg.Inventory.LayoutCacheTTL,
		r.log,
	)
	r.catalog = catalog.NewService(pg, catalog.NewRepository(pg), r.seats, cacheSvc, r.log)
	items.Service = r.catalog

	r.coupons = coupons.NewService(coupons.NewRepository(pg), r.log)
	r.bookings = bookings.NewService(pg, bookings.NewRepository(pg), r.seats, cacheSvc, r.publisher, cfg.Jobs, r.log)
	r.payments = payments.NewService(pg, payments.NewRepository(pg), r.bookings, cacheSvc, r.publisher, cfg, r.log)

	r.checkout = checkout.NewService(checkout.Deps{
		DB:        pg,
		Items:     r.catalog,
		Inventory: r.seats,
		Coupons:   r.coupons,
		Bookings:  r.bookings,
		Payments:  r.payments,
		Members:   r.profiles,
		Cache:     cacheSvc,
		Publisher: r.publisher,
		ReplayTTL: cfg.Redis.IdempotencyTTL,
		Log:       r.log,
	})
	r.history = history.NewService(r.bookings, cacheSvc, cfg.Redis.HistoryTTL, r.log)
	r.receipts = receipts.NewService(r.bookings, r.catalog, r.log)
	r.admin = admin.NewService(
		pg,
		r.payments,
		r.bookings,
		admin.NewRedisLocker(r.db.Redis, cfg.Redis.RefundLockTTL),
		cacheSvc,
		r.publisher,
		r.log,
	)
}

// JobHandlers exposes the lifecycle sweeps to the background runner.
func (r *Router) JobHandlers() *jobs.Handlers {
	return &jobs.Handlers{Bookings: r.bookings, Profiles: r.profiles, Log: r.log}
}

// Close shuts down the session event broker; open subscriptions end.
func (r *Router) Close() error {
	return r.broker.Close()
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.SetupAuthRoutes(api, auth.NewController(r.auth), r.guards)
		profiles.SetupProfileRoutes(api, profiles.NewController(r.profiles), r.guards)

		catalog.SetupCatalogRoutes(api, catalog.NewController(r.catalog))
		seats.SetupSeatRoutes(api, seats.NewController(r.seats), r.guards)
		coupons.SetupCouponRoutes(api, coupons.NewController(r.coupons))

		checkout.SetupCheckoutRoutes(api, checkout.NewController(r.checkout), r.guards.Optional)
		payments.SetupPaymentRoutes(api, payments.NewController(r.payments), r.guards)

		history.SetupHistoryRoutes(api, history.NewController(r.history), r.guards)
		bookings.SetupBookingRoutes(api, bookings.NewController(r.bookings), r.guards)
		receipts.SetupReceiptRoutes(api, receipts.NewController(r.receipts), r.guards)

		admin.SetupAdminRoutes(api, admin.NewController(r.admin, r.users, r.payments, r.catalog, r.coupons), r.guards)
	}
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "travelhub-api",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "travelhub-api",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
