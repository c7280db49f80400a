package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/camadvisory/forecast-impact-service/internal/circuitbreaker"
	"github.com/camadvisory/forecast-impact-service/internal/config"
	"github.com/camadvisory/forecast-impact-service/internal/extract"
	"github.com/camadvisory/forecast-impact-service/internal/fetch"
	httphandler "github.com/camadvisory/forecast-impact-service/internal/http"
	"github.com/camadvisory/forecast-impact-service/internal/impact"
	"github.com/camadvisory/forecast-impact-service/internal/lifecycle"
	"github.com/camadvisory/forecast-impact-service/internal/observability"
	"github.com/camadvisory/forecast-impact-service/internal/relay"
	"github.com/camadvisory/forecast-impact-service/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	startCtx := context.Background()
	extractor, err := extract.NewGeminiExtractor(startCtx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractTimeout)
	if err != nil {
		logger.Fatal("extractor", zap.Error(err))
	}

	if cfg.CircuitBreakerEnabled {
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
			Component:        "model_provider",
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition("model_provider", from.String(), to.String())
				observability.SetCircuitBreakerStateGauge("model_provider", int(to))
			},
		})
		extractor.SetCircuitBreaker(cb)
		observability.SetCircuitBreakerStateGauge("model_provider", 0)
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	var operationalStore store.Store
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := store.NewPostgresStore(cfg.StoreDSN)
		if err != nil {
			logger.Fatal("postgres store", zap.Error(err))
		}
		operationalStore = pg
		logger.Info("store backend: postgres")
	default:
		operationalStore = store.NewMemoryStore()
		logger.Warn("store backend: memory; operational records are not persisted")
	}

	normalizer := fetch.NewHTTPNormalizer(cfg.FetchTimeout)
	resolver := impact.NewResolver(operationalStore, cfg.StoreQueryTimeout)
	erpRelay := relay.NewERPRelay(cfg.ERPEndpoint, cfg.RelayTimeout)
	if cfg.ERPEndpoint == "" {
		logger.Warn("no ERP endpoint configured; relay acknowledges locally")
	}

	handler := httphandler.NewHandler(normalizer, extractor, resolver, erpRelay, operationalStore, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/", handler.GetHome).Methods("GET")
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.NewRoute().Subrouter()
	api.Use(httphandler.RateLimitMiddleware(limiter))
	api.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	api.HandleFunc("/check_blog", handler.CheckBlog).Methods("POST")
	api.HandleFunc("/get_impacted_shipments", handler.GetImpactedShipments).Methods("POST")
	api.HandleFunc("/get_impacted_bookings", handler.GetImpactedBookings).Methods("POST")
	api.HandleFunc("/get_customer_contacts", handler.GetCustomerContacts).Methods("POST")
	api.HandleFunc("/d365", handler.RelayToERP).Methods("POST")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if err := operationalStore.Close(); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
