package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/studiofisyo/ledger/internal/app"
	"github.com/studiofisyo/ledger/internal/config"
	"github.com/studiofisyo/ledger/internal/reminder"
	"github.com/studiofisyo/ledger/pkg/authn"
	"github.com/studiofisyo/ledger/pkg/jsonutil"
	"github.com/studiofisyo/ledger/pkg/observability"
	"github.com/studiofisyo/ledger/pkg/secrets"
)

const serviceName = "reminders"

func setupRoutes(dispatch http.Handler, subs *SubscriptionHandler, verifier *authn.Verifier) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonutil.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "active",
			"service": serviceName,
		})
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.Handle("/api/send-reminders", dispatch).Methods("GET")

	if verifier != nil {
		api := r.PathPrefix("/api/push").Subrouter()
		api.Use(verifier.Middleware)
		api.HandleFunc("/subscriptions", subs.Upsert).Methods("POST")
		api.HandleFunc("/subscriptions", subs.Delete).Methods("DELETE")
	}

	return r
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	logger := observability.NewLogger(serviceName)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.VAPID.SecretID != "" {
		loader, err := secrets.NewLoader(ctx)
		if err != nil {
			logger.Error("Failed to init secrets loader", "error", err)
			os.Exit(1)
		}
		if err := cfg.LoadSecrets(ctx, loader); err != nil {
			logger.Error("Failed to load secrets", "error", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(ctx, observability.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Endpoint:       cfg.OTel.Endpoint,
		Environment:    os.Getenv("ENVIRONMENT"),
	})
	if err != nil {
		logger.Warn("Failed to init tracer", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close connections", "error", err)
		}
	}()

	var verifier *authn.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = authn.NewVerifier(cfg.Auth.JWTSecret)
	} else {
		logger.Warn("auth.jwt_secret not set, subscription API disabled")
	}
	if cfg.Dispatch.CronSecret == "" {
		logger.Warn("dispatch.cron_secret not set, trigger endpoint is open")
	}

	router := setupRoutes(
		reminder.NewHandler(a.Dispatcher, cfg.Dispatch.CronSecret),
		&SubscriptionHandler{store: a.Store, logger: logger},
		verifier,
	)

	if cfg.Dispatch.Interval > 0 {
		go reminder.NewScheduler(a.Dispatcher, cfg.Dispatch.Interval, logger).Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           otelhttp.NewHandler(router, "reminders-request"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Reminders service starting", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down reminders service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Reminders service stopped")
}
