package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/studiopass/internal/auth"
	"github.com/dukerupert/studiopass/internal/email"
	"github.com/dukerupert/studiopass/internal/handler"
	"github.com/dukerupert/studiopass/internal/ledger"
	"github.com/dukerupert/studiopass/internal/middleware"
	"github.com/dukerupert/studiopass/internal/store"
	studiostripe "github.com/dukerupert/studiopass/internal/stripe"
	ws "github.com/dukerupert/studiopass/internal/websocket"
)

type Config struct {
	Stripe      studiostripe.Config
	EmailClient *email.Client
	StaffTokens auth.StaffTokens
	WSOrigins   []string

	// Gateway and Verifier replace the Stripe client when set.
	Gateway  ledger.Gateway
	Verifier ledger.EventVerifier
}

type Server struct {
	db          *sqlx.DB
	hub         *ws.Hub
	credits     *ledger.CreditManager
	checkoutH   *handler.CheckoutHandler
	webhookH    *handler.WebhookHandler
	staffH      *handler.StaffHandler
	staffTokens auth.StaffTokens
	wsOrigins   []string
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

var (
	checkoutCORS = middleware.CORS{
		Methods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		Headers: []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey"},
	}
	webhookCORS = middleware.CORS{
		Methods: []string{"POST", "OPTIONS"},
		Headers: []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey", "Stripe-Signature"},
	}
)

func New(db *sqlx.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)
	st := store.New(db)

	opts := []ledger.Option{ledger.WithLogger(logger), ledger.WithPublisher(hub)}
	if cfg.EmailClient != nil && cfg.EmailClient.Configured() {
		opts = append(opts, ledger.WithNotifier(cfg.EmailClient))
	}

	gateway, verifier := cfg.Gateway, cfg.Verifier
	if cfg.Stripe.SecretKey != "" {
		sc := studiostripe.NewClient(cfg.Stripe, logger)
		if gateway == nil {
			gateway = sc
		}
		if verifier == nil {
			verifier = sc
		}
	}

	s := &Server{
		db:          db,
		hub:         hub,
		credits:     ledger.NewCreditManager(st, opts...),
		staffTokens: cfg.StaffTokens,
		wsOrigins:   cfg.WSOrigins,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
	s.staffH = handler.NewStaffHandler(s.credits, logger)

	if gateway != nil {
		ci := ledger.NewCheckoutInitiator(st, gateway, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, opts...)
		s.checkoutH = handler.NewCheckoutHandler(ci, logger)
	}
	if verifier != nil {
		rc := ledger.NewReconciler(st, verifier, opts...)
		s.webhookH = handler.NewWebhookHandler(rc, logger)
	}
	if s.checkoutH == nil || s.webhookH == nil {
		logger.Warn("payment gateway not configured, checkout or webhook routes disabled")
	}
	return s
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health(s.db))

	if s.checkoutH != nil {
		limit := middleware.RateLimit(s.rateLimiter, middleware.ByIP("checkout"), 10, time.Minute)
		mux.HandleFunc("OPTIONS /checkout", checkoutCORS.Preflight)
		mux.Handle("POST /checkout", checkoutCORS.Wrap(limit(http.HandlerFunc(s.checkoutH.Create))))
	}
	if s.webhookH != nil {
		mux.HandleFunc("OPTIONS /webhook", webhookCORS.Preflight)
		mux.Handle("POST /webhook", webhookCORS.Wrap(http.HandlerFunc(s.webhookH.HandleStripeWebhook)))
	}

	staff := middleware.RequireStaff(s.staffTokens)
	mux.Handle("POST /api/owners/{ownerID}/packages", staff(http.HandlerFunc(s.staffH.GrantPackage)))
	mux.Handle("POST /api/owners/{ownerID}/sessions", staff(http.HandlerFunc(s.staffH.RecordSession)))
	mux.Handle("GET /api/owners/{ownerID}/ledger", staff(http.HandlerFunc(s.staffH.Ledger)))
	mux.Handle("DELETE /api/owners/{ownerID}", staff(http.HandlerFunc(s.staffH.DeleteOwner)))
	mux.Handle("GET /api/stats", staff(http.HandlerFunc(s.staffH.Stats)))
	mux.Handle("GET /ws", staff(ws.HandleWebSocket(s.hub, s.wsOrigins, s.logger)))

	return middleware.RequestLogger(s.logger)(middleware.Trace(mux))
}
