package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amoralabs/amora/internal/bonus"
	"github.com/amoralabs/amora/internal/booking"
	"github.com/amoralabs/amora/internal/infra/postgres"
	infraRedis "github.com/amoralabs/amora/internal/infra/redis"
	"github.com/amoralabs/amora/internal/ledger"
	"github.com/amoralabs/amora/internal/module/bookingpay"
	"github.com/amoralabs/amora/internal/module/funding"
	"github.com/amoralabs/amora/internal/module/transactions"
	"github.com/amoralabs/amora/internal/notification"
	"github.com/amoralabs/amora/internal/referral"
	"github.com/amoralabs/amora/internal/tips"
	"github.com/amoralabs/amora/internal/transport/httpapi"
	"github.com/amoralabs/amora/internal/transport/httpapi/handler"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/internal/user"
	"github.com/amoralabs/amora/internal/vip"
	"github.com/amoralabs/amora/internal/wallet"
	"github.com/amoralabs/amora/pkg/config"
	"github.com/amoralabs/amora/pkg/logger"
	"github.com/amoralabs/amora/pkg/metrics"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault(cfg.Env)
	log.Info("Starting Amora API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Initialize database connection pool
	dbCfg := postgres.Config{
		URL: cfg.DatabaseURL,
	}
	db, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Initialize Redis client for bonus claims and realtime notifications
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established")

	// Initialize metrics collector
	collector := metrics.NewCollector()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db.Pool)
	walletRepo := postgres.NewWalletRepository(db.Pool)
	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	bookingRepo := postgres.NewBookingRepository(db.Pool)
	notificationRepo := postgres.NewNotificationRepository(db.Pool)
	bonusStore := infraRedis.NewBonusStore(redisClient, log)
	publisher := infraRedis.NewPublisher(redisClient, log)

	// Initialize handler registry for transaction types
	handlerRegistry := ledger.NewRegistry()

	// Initialize services
	userSvc := user.NewService(userRepo, log)
	jwtSvc := middleware.NewJWTService(cfg.JWTSecret)
	ledgerSvc := ledger.NewService(ledgerRepo, handlerRegistry, log, collector)
	walletSvc := wallet.NewService(walletRepo)
	notificationSvc := notification.NewService(notificationRepo, publisher, log)

	// Register transaction handlers with the registry
	handlerRegistry.Register(funding.NewDepositHandler())
	handlerRegistry.Register(funding.NewWithdrawHandler(walletSvc))
	handlerRegistry.Register(bookingpay.NewPaymentHandler())
	handlerRegistry.Register(bookingpay.NewRefundHandler())
	handlerRegistry.Register(bookingpay.NewPayoutHandler(int64(cfg.PlatformFeePercent)))
	handlerRegistry.Register(bookingpay.NewExtendHandler())
	handlerRegistry.Register(tips.NewHandler())
	handlerRegistry.Register(vip.NewHandler())
	handlerRegistry.Register(referral.NewHandler())
	handlerRegistry.Register(bonus.NewHandler())
	log.Info("Registered transaction handlers")

	// Marketplace services built on top of the ledger
	referralSvc := referral.NewService(userRepo, ledgerSvc, notificationSvc, log)
	vipSvc := vip.NewService(userRepo, ledgerSvc, notificationSvc, log)
	bonusSvc := bonus.NewService(bonusStore, ledgerSvc, notificationSvc, log, collector,
		cfg.DailyBonusAmount, cfg.DailyStreakBonus, cfg.DailyStreakLength)
	bookingSvc := booking.NewService(bookingRepo, userRepo, ledgerSvc, referralSvc,
		notificationSvc, log, collector, cfg.BookingConfirmTTL, cfg.BookingPollInterval)
	transactionSvc := transactions.NewService(ledgerSvc, log)
	log.Info("Marketplace services initialized")

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(userSvc, jwtSvc, walletSvc)
	walletHandler := handler.NewWalletHandler(walletSvc, ledgerSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc, ledgerSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	referralHandler := handler.NewReferralHandler(referralSvc, userSvc)
	bonusHandler := handler.NewBonusHandler(bonusSvc)
	vipHandler := handler.NewVIPHandler(vipSvc)
	tipsHandler := handler.NewTipsHandler(ledgerSvc, userSvc, notificationSvc)
	healthHandler := handler.NewHealthHandler(db)

	// Create JWT middleware
	jwtMiddleware := middleware.JWT(jwtSvc)

	// Determine allowed origins for CORS
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if cfg.IsProduction() {
		if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
			allowedOrigins = []string{origins}
		}
	}

	// Create HTTP router
	routerCfg := httpapi.Config{
		Logger:              log,
		AllowedOrigins:      allowedOrigins,
		AuthHandler:         authHandler,
		WalletHandler:       walletHandler,
		TransactionHandler:  transactionHandler,
		BookingHandler:      bookingHandler,
		NotificationHandler: notificationHandler,
		ReferralHandler:     referralHandler,
		BonusHandler:        bonusHandler,
		VIPHandler:          vipHandler,
		TipsHandler:         tipsHandler,
		HealthHandler:       healthHandler,
		MetricsHandler:      collector.Handler(),
		JWTMiddleware:       jwtMiddleware,
	}
	r := httpapi.NewRouter(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the booking watcher: expires unconfirmed bookings and
	// completes meetings that ran out of paid time
	go bookingSvc.Run(ctx)
	log.Info("Booking watcher started", "poll_interval", cfg.BookingPollInterval)

	// Start the VIP expiry sweep
	go vipSvc.Run(ctx)
	log.Info("VIP expiry sweep started")

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
