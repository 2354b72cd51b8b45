package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"voyago/internal/auth"
	"voyago/internal/config"
	"voyago/internal/domain"
	"voyago/internal/export"
	"voyago/internal/models"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Server is the storefront HTTP API.
type Server struct {
	cfg      config.Config
	catalog  domain.CatalogService
	bookings domain.BookingService
	payments domain.PaymentService
	users    domain.UserService
	tokens   *auth.TokenManager
	exporter *export.Exporter
	server   *http.Server
	logger   *zerolog.Logger
}

func NewServer(cfg config.Config, catalog domain.CatalogService, bookings domain.BookingService, payments domain.PaymentService, users domain.UserService, tokens *auth.TokenManager, exporter *export.Exporter, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		catalog:  catalog,
		bookings: bookings,
		payments: payments,
		users:    users,
		tokens:   tokens,
		exporter: exporter,
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return s
}

// Handler builds the full middleware chain; exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Catalog, public.
	mux.HandleFunc("GET /api/hotels", s.handleListHotels)
	mux.HandleFunc("GET /api/hotels/featured", featuredOnly(s.handleListHotels))
	mux.HandleFunc("GET /api/tours", s.handleListTours)
	mux.HandleFunc("GET /api/tours/featured", featuredOnly(s.handleListTours))
	mux.HandleFunc("GET /api/packages", s.handleListPackages)
	mux.HandleFunc("GET /api/packages/featured", featuredOnly(s.handleListPackages))
	mux.HandleFunc("GET /api/special-offers", s.handleListSpecialOffers)
	mux.HandleFunc("GET /api/special-offers/featured", featuredOnly(s.handleListSpecialOffers))

	// Auth.
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.authenticate(s.handleMe))

	// Bookings, authenticated.
	mux.HandleFunc("POST /api/bookings", s.authenticate(s.handleCreateBooking))
	mux.HandleFunc("GET /api/bookings", s.authenticate(s.handleMyBookings))
	mux.HandleFunc("GET /api/bookings/{id}", s.authenticate(s.handleGetBooking))
	mux.HandleFunc("POST /api/bookings/{id}/cancel", s.authenticate(s.handleCancelBooking))

	// Payments.
	mux.HandleFunc("GET /api/payments/config", s.handlePaymentConfig)
	mux.HandleFunc("POST /api/payments/create-intent", s.authenticate(s.handleCreateIntent))
	mux.HandleFunc("POST /api/payments/verify", s.handleVerifyPayment)
	mux.HandleFunc("POST /api/payments/webhook", s.handleWebhook)

	// Admin area.
	mux.HandleFunc("GET /api/admin/bookings", s.requireRoles(s.handleAdminListBookings, models.RoleAdmin))
	mux.HandleFunc("PATCH /api/admin/bookings/{id}/status", s.requireRoles(s.handleAdminSetStatus, models.RoleAdmin))
	mux.HandleFunc("GET /api/admin/stats", s.requireRoles(s.handleAdminStats, models.RoleAgent, models.RoleAdmin))
	mux.HandleFunc("GET /api/admin/export", s.requireRoles(s.handleAdminExport, models.RoleAdmin))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	limiter := newRateLimiter(s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst)
	return loggingMiddleware(s.logger, limiter.wrap(c.Handler(mux)))
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
