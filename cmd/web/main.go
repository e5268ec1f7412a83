package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profit-dashboard/internal/config"
	"profit-dashboard/internal/dataset"
	"profit-dashboard/internal/middleware"
	"profit-dashboard/internal/observability"
	"profit-dashboard/internal/server"
	"profit-dashboard/internal/services"
	"profit-dashboard/internal/ui/templates"
)

const (
	renderTimeout       = 10 * time.Second
	limiterEvictionTick = time.Minute
	pageCacheControl    = "no-cache"
)

// dashboardHandler renders the shell page seeded with the loaded dataset's
// filter options. Sections are filled by the first SSE refresh.
func dashboardHandler(analytics *services.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		opts, err := analytics.Options()
		if err != nil {
			http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
			return
		}

		page := templates.PageData{
			Divisions:       opts.Divisions,
			MinDate:         opts.MinDate,
			MaxDate:         opts.MaxDate,
			MarginThreshold: opts.MarginThreshold,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", pageCacheControl)
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			slog.ErrorContext(ctx, "render dashboard", "error", err)
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(cfg *config.Config, analytics *services.Analytics, metrics *observability.Metrics, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, metrics, logger, &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics),
	})

	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(srv.Mux()),
		middleware.Logger(logger),
		middleware.Metrics(metrics, srv.Mux()),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
	}
	if cfg.Security.EnableRateLimit {
		chain = append(chain, middleware.RateLimit(limiter, logger))
	}
	return middleware.Chain(chain...)(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_file", cfg.Data.File,
		"policy", cfg.Policy.KPI(),
	)

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, os.Stderr, logger)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	analytics := services.NewAnalytics(cfg.Policy.KPI(), metrics, logger)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Data.LoadTimeout)
	start := time.Now()
	err = analytics.LoadFromFile(loadCtx, cfg.Data.File, cfg.Data.Sheet)
	cancelLoad()
	if err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error("dataset does not match the expected schema", "error", schemaErr)
		} else {
			logger.Error("failed to load dataset", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("dataset loaded", "duration", time.Since(start), "source", cfg.Data.File)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	limiter := middleware.NewRateLimiter(cfg.Security)
	go limiter.Run(limiterCtx, limiterEvictionTick)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, metrics, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server.ShutdownTimeout)
	gracefulServer.RegisterShutdownHook("tracing", func(ctx context.Context) error {
		return shutdownTracing(ctx)
	})
	gracefulServer.RegisterShutdownHook("rate-limiter", func(context.Context) error {
		stopLimiter()
		return nil
	})

	if err := gracefulServer.Run(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
