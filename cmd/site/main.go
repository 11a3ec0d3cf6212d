package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wolfman30/appointment-ai-site/internal/api/router"
	"github.com/wolfman30/appointment-ai-site/internal/app/bootstrap"
	appconfig "github.com/wolfman30/appointment-ai-site/internal/config"
	httpmiddleware "github.com/wolfman30/appointment-ai-site/internal/http/middleware"
	"github.com/wolfman30/appointment-ai-site/internal/observability/metrics"
	"github.com/wolfman30/appointment-ai-site/internal/render"
	"github.com/wolfman30/appointment-ai-site/internal/site"
	"github.com/wolfman30/appointment-ai-site/internal/webchat"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting appointment-ai-site server",
		"env", cfg.Env,
		"port", cfg.Port,
		"assistant_endpoint", cfg.AssistantEndpoint,
	)

	if cfg.IsProduction() && slices.Contains(cfg.CORSAllowedOrigins, "*") {
		logger.Warn("CORS allows any origin in production")
	}

	metricsHandler, chatMetrics, webchatMetrics := setupMetrics()

	// Demo chat core
	assistant, err := bootstrap.BuildAssistant(cfg, logger)
	if err != nil {
		logger.Error("failed to configure assistant", "error", err)
		os.Exit(1)
	}
	registry := webchat.NewRegistry(
		bootstrap.BuildSessionFactory(cfg, assistant, chatMetrics, logger),
		webchat.WithIdleTTL(cfg.DemoSessionIdleTTL),
		webchat.WithRegistryMetrics(webchatMetrics),
		webchat.WithRegistryLogger(logger),
	)

	submitLimiter := httpmiddleware.NewRateLimiter(cfg.DemoRateLimitRPS, cfg.DemoRateLimitBurst)
	defer submitLimiter.Close()
	sessionLimiter := httpmiddleware.NewRateLimiter(cfg.DemoRateLimitRPS, cfg.DemoRateLimitBurst)
	defer sessionLimiter.Close()

	// Initialize handlers
	renderer := render.MustRenderer()
	siteHandler, err := site.NewHandler(registry, renderer,
		site.WithLogger(logger),
		site.WithPublicBaseURL(cfg.PublicBaseURL),
	)
	if err != nil {
		logger.Error("failed to initialize site", "error", err)
		os.Exit(1)
	}
	webchatHandler := webchat.NewHandler(registry, renderer,
		webchat.WithLogger(logger),
		webchat.WithMetrics(webchatMetrics),
		webchat.WithLimiter(submitLimiter),
	)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Site:               siteHandler,
		Webchat:            webchatHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SessionLimiter:     sessionLimiter,
	}
	r := router.New(routerCfg)

	// Create HTTP server. No read/write timeouts: they would also apply to
	// hijacked WebSocket connections.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go registry.Run(sweepCtx, time.Minute)

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopSweep()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the demo metrics on a dedicated registry alongside
// the Go runtime and process collectors.
func setupMetrics() (http.Handler, *metrics.ChatMetrics, *metrics.WebchatMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return handler, metrics.NewChatMetrics(reg), metrics.NewWebchatMetrics(reg)
}
