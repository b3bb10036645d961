package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aldenputra/tixgate/config"
	"github.com/aldenputra/tixgate/internal/handlers"
	"github.com/aldenputra/tixgate/internal/logging"
	"github.com/aldenputra/tixgate/internal/middleware"
	"github.com/aldenputra/tixgate/internal/services"
	"github.com/aldenputra/tixgate/internal/store"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	log := logging.NewLogger(cfg.Mode)
	defer log.Sync()

	redisClient, err := config.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ticketStore := store.NewGormStore(db)
	codes := services.NewCodeGenerator(cfg.CodeSecret)
	notifier := services.NewLogNotifier(log)

	reservations := services.NewReservationService(ticketStore, cfg.ReservationTTL, log)
	reconciler := services.NewReconcileService(ticketStore, codes, notifier, redisClient, cfg.PayoutGrace, log)
	verify := services.NewVerifyService(ticketStore, codes, log)
	payouts := services.NewPayoutService(ticketStore, cfg.PayoutGrace, cfg.RefundRateThreshold, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go reservations.RunExpirySweeper(ctx, cfg.SweepInterval)
	go payouts.RunSweeper(ctx, cfg.SweepInterval)

	r := gin.Default()

	setupRoutes(r, routeDeps{
		cfg:          cfg,
		auth:         handlers.NewAuthHandler(db),
		events:       handlers.NewEventHandler(db),
		templates:    handlers.NewTemplateHandler(db),
		coupons:      handlers.NewCouponHandler(db),
		checkout:     handlers.NewCheckoutHandler(db, reservations, cfg.DokuClientID, cfg.DokuSecretKey, cfg.DokuBaseURL, log),
		webhook:      handlers.NewWebhookHandler(reconciler, log),
		verification: handlers.NewVerifyHandler(db, verify),
		tickets:      handlers.NewTicketHandler(db, payouts),
		rateLimiter:  middleware.NewRateLimiter(redisClient, cfg.VerifyRateLimit),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

type routeDeps struct {
	cfg          *config.Config
	auth         *handlers.AuthHandler
	events       *handlers.EventHandler
	templates    *handlers.TemplateHandler
	coupons      *handlers.CouponHandler
	checkout     *handlers.CheckoutHandler
	webhook      *handlers.WebhookHandler
	verification *handlers.VerifyHandler
	tickets      *handlers.TicketHandler
	rateLimiter  *middleware.RateLimiter
}

func setupRoutes(r *gin.Engine, deps routeDeps) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/v1")
	{
		public.POST("/register", deps.auth.Register)
		public.POST("/login", deps.auth.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", deps.events.ListEvents)
			eventPublic.GET("/:id", deps.events.GetEvent)
			eventPublic.GET("/:id/templates", deps.templates.ListTemplatesForEvent)
		}
		public.GET("/templates/:id", deps.templates.GetTemplate)
	}

	// Processor notifications come in signed, not authenticated as users.
	r.POST("/v1/payments/notifications",
		middleware.WebhookSignatureMiddleware(deps.cfg.DokuSecretKey),
		deps.webhook.HandlePaymentNotification,
	)

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.POST("/events", deps.events.CreateEvent)
		protected.POST("/events/:id/dispute", middleware.RequireRole("admin"), deps.events.FlagDispute)
		protected.POST("/templates", deps.templates.CreateTemplate)

		protected.POST("/checkout", deps.checkout.StartCheckout)

		protected.GET("/tickets", deps.tickets.ListMyTickets)
		protected.GET("/tickets/:id/qr", deps.tickets.TicketQR)
		protected.POST("/tickets/:id/refund", deps.tickets.RefundTicket)

		protected.POST("/events/:id/check-in", deps.rateLimiter.Limit(), deps.verification.CheckIn)

		protected.POST("/coupons", middleware.RequireRole("admin"), deps.coupons.CreateCoupon)
		protected.POST("/coupons/claim", deps.coupons.ClaimCoupon)
	}
}
