package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/vetbook-api/internal/app"
	"github.com/jwalitptl/vetbook-api/internal/config"
	"github.com/jwalitptl/vetbook-api/internal/handler/health"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/service/notification"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
)

func setupHealthCheck(port int, h *health.Handler, logger *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recovery(logger))
	h.RegisterRoutes(engine.Group(""))

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger := app.NewLogger(cfg.Logging).With("service", "worker")
	m, registry := app.NewMetrics("worker")

	if !cfg.Redis.Enabled {
		// An in-process feed here would reach no API subscriber.
		logger.Fatal(errors.New("redis disabled"), "The worker needs redis; without it the API runs background jobs itself")
	}

	repos, err := app.OpenRepositories(cfg, logger)
	if err != nil {
		logger.Fatal(err, "Failed to open repositories")
	}
	defer repos.Close()

	feed, err := app.NewFeed(cfg, logger, m)
	if err != nil {
		logger.Fatal(err, "Failed to create change feed")
	}
	defer feed.Close()

	emailSvc := app.NewEmail(cfg.SMTP, logger)
	notificationSvc := notification.NewService(repos.Notifications, feed, logger)
	bg := app.NewBackground(cfg, repos, feed, notificationSvc, emailSvc, logger, m)

	healthH := health.NewHandler(map[string]health.Check{"database": repos.Ping}, registry)
	healthSrv := setupHealthCheck(cfg.Worker.HealthPort, healthH, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down...")
		cancel()
	}()

	logger.Info("Worker started", "health_port", cfg.Worker.HealthPort)
	bg.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Health server forced to shutdown")
	}
	logger.Info("Worker exited")
}
