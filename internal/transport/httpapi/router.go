package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/amoralabs/amora/internal/transport/httpapi/handler"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
	"github.com/amoralabs/amora/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string

	AuthHandler         *handler.AuthHandler
	WalletHandler       *handler.WalletHandler
	TransactionHandler  *handler.TransactionHandler
	BookingHandler      *handler.BookingHandler
	NotificationHandler *handler.NotificationHandler
	ReferralHandler     *handler.ReferralHandler
	BonusHandler        *handler.BonusHandler
	VIPHandler          *handler.VIPHandler
	TipsHandler         *handler.TipsHandler
	HealthHandler       *handler.HealthHandler

	MetricsHandler http.Handler
	JWTMiddleware  func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit())

	// Health and metrics (no authentication required)
	r.Get("/health", handler.GetHealth)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes (public)
		if cfg.AuthHandler != nil {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
		}

		// Protected routes
		if cfg.JWTMiddleware != nil {
			r.Group(func(r chi.Router) {
				r.Use(cfg.JWTMiddleware)

				if cfg.WalletHandler != nil {
					r.Get("/wallet", cfg.WalletHandler.GetBalances)
					r.Post("/wallet/deposit", cfg.WalletHandler.Deposit)
					r.Post("/wallet/withdraw", cfg.WalletHandler.Withdraw)
				}

				if cfg.TransactionHandler != nil {
					r.Get("/transactions", cfg.TransactionHandler.List)
					r.Get("/transactions/stats", cfg.TransactionHandler.Stats)
					r.Get("/transactions/export", cfg.TransactionHandler.Export)
					r.Get("/transactions/{id}", cfg.TransactionHandler.Get)
					r.Post("/transactions/{id}/complete", cfg.TransactionHandler.Complete)
					r.Post("/transactions/{id}/cancel", cfg.TransactionHandler.Cancel)
				}

				if cfg.BookingHandler != nil {
					r.Route("/bookings", func(r chi.Router) {
						r.Post("/", cfg.BookingHandler.Create)
						r.Get("/", cfg.BookingHandler.List)
						r.Get("/{id}", cfg.BookingHandler.Get)
						r.Get("/{id}/escrow", cfg.BookingHandler.Escrow)
						r.Post("/{id}/confirm", cfg.BookingHandler.Confirm)
						r.Post("/{id}/reject", cfg.BookingHandler.Reject)
						r.Post("/{id}/ready", cfg.BookingHandler.Ready)
						r.Post("/{id}/start", cfg.BookingHandler.Start)
						r.Post("/{id}/extend", cfg.BookingHandler.Extend)
						r.Post("/{id}/complete", cfg.BookingHandler.Complete)
						r.Post("/{id}/cancel", cfg.BookingHandler.Cancel)
					})
				}

				if cfg.NotificationHandler != nil {
					r.Get("/notifications", cfg.NotificationHandler.List)
					r.Get("/notifications/unread", cfg.NotificationHandler.UnreadCount)
					r.Post("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
					r.Post("/notifications/{id}/read", cfg.NotificationHandler.MarkRead)
				}

				if cfg.ReferralHandler != nil {
					r.Get("/referrals/tree", cfg.ReferralHandler.Tree)
					r.Get("/referrals/code", cfg.ReferralHandler.Code)
				}

				if cfg.BonusHandler != nil {
					r.Post("/bonus/claim", cfg.BonusHandler.Claim)
					r.Get("/bonus/status", cfg.BonusHandler.Status)
				}

				if cfg.VIPHandler != nil {
					r.Get("/vip/plans", cfg.VIPHandler.Plans)
					r.Post("/vip/purchase", cfg.VIPHandler.Purchase)
				}

				if cfg.TipsHandler != nil {
					r.Post("/tips", cfg.TipsHandler.Send)
				}
			})
		}
	})

	return r
}
