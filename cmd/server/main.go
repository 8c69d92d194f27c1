package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"luncho-service/internal/adapter/cache"
	httpRouter "luncho-service/internal/adapter/http"
	"luncho-service/internal/adapter/locale"
	"luncho-service/internal/adapter/repository"
	"luncho-service/internal/config"
	"luncho-service/internal/domain/model"
	"luncho-service/internal/metrics"
	"luncho-service/internal/service"
	"luncho-service/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Starting luncho service", "luncho_api", cfg.LunchoAPI.BaseURL, "locale", cfg.Locale)

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)
	store := cache.NewMemoryCache(log)
	localizer := locale.NewDisplayLocalizer(cfg.Locale)

	fetcher := repository.NewLunchoAPI(
		cfg.LunchoAPI.BaseURL,
		cfg.LunchoAPI.Timeout,
		cfg.LunchoAPI.MaxRetries,
		log,
	)

	lunchoService := service.NewLunchoService(fetcher, store, localizer, appMetrics, log,
		service.WithReferenceCountry(model.CountryCode(cfg.Cache.ReferenceCountry)),
		service.WithFetchTimeout(cfg.Cache.FetchTimeout),
	)
	handler := httpRouter.NewHandler(lunchoService, log)

	router := httpRouter.NewRouter(handler, log, appMetrics, prometheus.DefaultGatherer)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancelRefresh := context.WithCancel(context.Background())
	if cfg.LunchoAPI.RefreshRate > 0 {
		go warmAllLunchoData(ctx, lunchoService, cfg.LunchoAPI.RefreshRate, log)
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancelRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

// warmAllLunchoData keeps the all-country cache populated so per-country
// requests are served without a fetch. Calls made while the bulk data is
// still fresh return without touching the network.
func warmAllLunchoData(ctx context.Context, svc *service.LunchoService, interval time.Duration, log *logger.Logger) {
	if _, err := svc.GetAllLunchoData(ctx, true); err != nil {
		log.Error("Failed to load luncho data at startup", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := svc.GetAllLunchoData(ctx, true); err != nil {
				log.Error("Failed to refresh luncho data", "error", err)
			}
		case <-ctx.Done():
			log.Info("Stopping luncho data refresh goroutine")
			return
		}
	}
}
