package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DukeRupert/socialflow/internal"
	"github.com/DukeRupert/socialflow/internal/automation"
	"github.com/DukeRupert/socialflow/internal/dictionary"
	"github.com/DukeRupert/socialflow/internal/handler"
	"github.com/DukeRupert/socialflow/internal/locale"
	"github.com/DukeRupert/socialflow/internal/metrics"
	"github.com/DukeRupert/socialflow/internal/middleware"
	"github.com/DukeRupert/socialflow/internal/storage"
	"github.com/DukeRupert/socialflow/internal/store"
	"github.com/DukeRupert/socialflow/internal/telegram"
	"github.com/DukeRupert/socialflow/internal/telemetry"
)

// metricsRoutes are the paths reported individually in HTTP metrics.
var metricsRoutes = []string{
	"/", "/accounts", "/posts", "/automations", "/analytics", "/settings",
	"/login", "/logout", "/locale", "/locale/toggle", "/webhooks/twitter", "/health",
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	isSecure := cfg.IsSecure()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "socialflow",
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("tracing initialization failed: %w", err)
	}
	if cfg.OTLPEndpoint != "" {
		logger.Info("Tracing enabled", "endpoint", cfg.OTLPEndpoint)
	}

	// ==========================================================================
	// Optional infrastructure
	// ==========================================================================

	var events *store.Queries
	if cfg.DatabaseUrl != "" {
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		events = store.New(db)
		logger.Info("Database ready")
	}

	archive, err := storage.New(storage.Config{
		Provider: cfg.ArchiveProvider,
		Local:    storage.LocalConfig{BasePath: cfg.ArchiveLocalPath},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("archive storage initialization failed: %w", err)
	}

	var bot *telegram.Client
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.New(telegram.Config{
			Token:   cfg.TelegramBotToken,
			BaseURL: cfg.TelegramAPIURL,
			Timeout: cfg.TelegramHTTPTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("telegram client initialization failed: %w", err)
		}
	}

	dict, err := dictionary.New(cfg.LocalesDir, logger)
	if err != nil {
		return fmt.Errorf("dictionary initialization failed: %w", err)
	}

	// ==========================================================================
	// Webhook processing chain
	// ==========================================================================

	var processors []automation.Processor
	if events != nil {
		processors = append(processors, automation.NewRecorder(events))
	}
	if archive != nil {
		processors = append(processors, automation.NewArchiver(archive))
	}
	if bot != nil && cfg.TelegramChatID != "" {
		processors = append(processors, automation.NewTelegramForwarder(bot, cfg.TelegramChatID))
	}
	if len(processors) == 0 {
		processors = append(processors, automation.LogProcessor{Logger: logger})
	}
	chain := automation.NewChain(logger, processors...)
	logger.Info("Webhook processors configured", "count", chain.Len())

	// ==========================================================================
	// Handlers and middleware
	// ==========================================================================

	var eventLister handler.EventLister
	if events != nil {
		eventLister = events
	}
	dashboardHandler := handler.NewDashboardHandler(eventLister, []handler.Integration{
		{Key: "integration_twitter", Configured: cfg.TwitterConsumerSecret != ""},
		{Key: "integration_telegram", Configured: bot != nil && cfg.TelegramChatID != ""},
		{Key: "integration_recorder", Configured: events != nil},
		{Key: "integration_archive", Configured: archive != nil},
	}, logger, isSecure)
	logoutHandler := handler.NewLogoutHandler(cfg.AppOrigin(), logger)
	webhookHandler := handler.NewWebhookHandler(cfg.TwitterConsumerSecret, chain, logger)

	localeProvider := locale.NewProvider(dict, logger, isSecure)
	formLimiter := middleware.NewRateLimiter(30, time.Minute)
	formLimit := middleware.NewRateLimitMiddleware(formLimiter, logger).Limit
	logoutLimiter := middleware.NewRateLimiter(300, time.Minute)
	logoutLimit := middleware.NewRateLimitMiddleware(logoutLimiter, logger).Limit
	metricsAuth := middleware.NewBasicAuthMiddleware("metrics", cfg.MetricsUsername, cfg.MetricsPassword)
	if !metricsAuth.Enabled() {
		logger.Warn("Metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	pages := http.NewServeMux()
	dashboardHandler.RegisterRoutes(pages, formLimit)

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Machine endpoints: no locale session
	webhookHandler.RegisterRoutes(mux)
	logoutHandler.RegisterRoutes(mux, logoutLimit)

	// Everything else renders with a locale session
	mux.Handle("/", localeProvider.Handler(pages))

	stack := middleware.Stack(
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		metrics.Middleware(metricsRoutes...),
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
	)

	// ==========================================================================
	// Background services
	// ==========================================================================

	var wg sync.WaitGroup
	goBackground := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Background service stopped", "service", name, "error", err)
			}
		}()
	}

	goBackground("rate-limiter", func(ctx context.Context) error {
		formLimiter.Run(ctx)
		return nil
	})
	goBackground("logout-rate-limiter", func(ctx context.Context) error {
		logoutLimiter.Run(ctx)
		return nil
	})
	if cfg.LocalesDir != "" {
		goBackground("dictionary-watch", func(ctx context.Context) error {
			return dict.Watch(ctx, cfg.LocalesDir)
		})
	}
	if cfg.AutoStartServices {
		poller := telegram.NewPoller(bot, telegram.PollerConfig{Timeout: cfg.TelegramPollTimeout}, logger)
		goBackground("telegram-poller", poller.Run)
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           otelhttp.NewHandler(stack(mux), "socialflow"),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	wg.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		log.Fatal(err)
	}
}
