package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/studiopass/internal/auth"
	"github.com/dukerupert/studiopass/internal/config"
	"github.com/dukerupert/studiopass/internal/database"
	"github.com/dukerupert/studiopass/internal/email"
	"github.com/dukerupert/studiopass/internal/logging"
	"github.com/dukerupert/studiopass/internal/server"
	studiostripe "github.com/dukerupert/studiopass/internal/stripe"
	"github.com/dukerupert/studiopass/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	shutdownTracing, err := telemetry.Setup(context.Background(), "studiopass", cfg.OTelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.StudioName)
	if !emailClient.Configured() {
		slog.Warn("postmark not configured, payment receipts disabled")
	}
	if len(cfg.StaffTokens) == 0 {
		slog.Warn("no staff tokens configured, staff API is unreachable")
	}

	srv := server.New(db, server.Config{
		Stripe: studiostripe.Config{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.SuccessURL(),
			CancelURL:     cfg.CancelURL(),
		},
		EmailClient: emailClient,
		StaffTokens: auth.StaffTokens(cfg.StaffTokens),
		WSOrigins:   cfg.WSOrigins,
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("studiopass starting", "addr", httpServer.Addr, "db_driver", cfg.DBDriver, "payments", cfg.PaymentsEnabled())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down", "ws_clients", srv.Hub().ClientCount())
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}
}
