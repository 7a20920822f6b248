package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/schoolerp/backend/internal/application/billing"
	examsapp "github.com/schoolerp/backend/internal/application/exams"
	"github.com/schoolerp/backend/internal/infrastructure/auth"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/schoolerp/backend/internal/infrastructure/logger"
	"github.com/schoolerp/backend/internal/infrastructure/persistence"
	"github.com/schoolerp/backend/internal/interfaces/http/handler"
	"github.com/schoolerp/backend/internal/interfaces/http/middleware"
	"github.com/schoolerp/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting School ERP Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	feeHeadRepo := persistence.NewGormFeeHeadRepository(db.DB)
	feeStructureRepo := persistence.NewGormFeeStructureRepository(db.DB)
	overrideRepo := persistence.NewGormStudentFeeStructureRepository(db.DB)
	discountRepo := persistence.NewGormDiscountRepository(db.DB)
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	kinshipRepo := persistence.NewGormKinshipRepository(db.DB)
	parentRepo := persistence.NewGormParentRepository(db.DB)
	examRepo := persistence.NewGormExamRepository(db.DB)
	markRepo := persistence.NewGormMarkRepository(db.DB)
	gradingScaleRepo := persistence.NewGormGradingScaleRepository(db.DB)

	// Initialize application services
	invoiceService := billing.NewInvoiceService(
		invoiceRepo, feeHeadRepo, feeStructureRepo, overrideRepo, discountRepo, studentRepo,
	)
	paymentService := billing.NewPaymentService(invoiceRepo, paymentRepo, kinshipRepo, parentRepo)
	catalogService := billing.NewCatalogService(
		feeHeadRepo, feeStructureRepo, overrideRepo, discountRepo, studentRepo,
	)
	gazetteService := examsapp.NewGazetteService(examRepo, markRepo, gradingScaleRepo, studentRepo)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Start overdue sweeper so unpaid invoices past their due date get
	// flagged without waiting for a read
	overdueSweeper := billing.NewOverdueSweeper(invoiceRepo, cfg.Billing.OverdueCheckInterval, log)
	if err := overdueSweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start overdue sweeper", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := overdueSweeper.Stop(stopCtx); err != nil {
			log.Error("Error stopping overdue sweeper", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	billingHandler := handler.NewBillingHandler(invoiceService, paymentService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	parentHandler := handler.NewParentHandler(paymentService)
	gazetteHandler := handler.NewGazetteHandler(gazetteService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", systemHandler.Healthz)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication to API routes. Tokens are issued by the
	// school's identity provider. Without a configured secret (local
	// development) tenancy falls back to the X-Tenant-ID header.
	if cfg.JWT.Secret != "" {
		jwtConfig := middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			SkipPaths: []string{
				"/api/v1/ping",
				"/api/v1/system/ping",
				"/api/v1/system/info",
			},
			Logger: log,
		}
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	} else {
		log.Warn("JWT secret not configured, API authentication disabled")
	}

	r.Register(billingHandler).
		Register(catalogHandler).
		Register(parentHandler).
		Register(gazetteHandler).
		Register(systemHandler)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
