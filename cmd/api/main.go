package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/vetbook-api/internal/app"
	"github.com/jwalitptl/vetbook-api/internal/config"
	appointmentHandler "github.com/jwalitptl/vetbook-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/vetbook-api/internal/handler/auth"
	availabilityHandler "github.com/jwalitptl/vetbook-api/internal/handler/availability"
	clinicHandler "github.com/jwalitptl/vetbook-api/internal/handler/clinic"
	"github.com/jwalitptl/vetbook-api/internal/handler/health"
	notificationHandler "github.com/jwalitptl/vetbook-api/internal/handler/notification"
	petHandler "github.com/jwalitptl/vetbook-api/internal/handler/pet"
	veterinarianHandler "github.com/jwalitptl/vetbook-api/internal/handler/veterinarian"
	"github.com/jwalitptl/vetbook-api/internal/middleware"
	"github.com/jwalitptl/vetbook-api/internal/router"
	appointmentService "github.com/jwalitptl/vetbook-api/internal/service/appointment"
	authService "github.com/jwalitptl/vetbook-api/internal/service/auth"
	availabilityService "github.com/jwalitptl/vetbook-api/internal/service/availability"
	clinicService "github.com/jwalitptl/vetbook-api/internal/service/clinic"
	eventService "github.com/jwalitptl/vetbook-api/internal/service/event"
	notificationService "github.com/jwalitptl/vetbook-api/internal/service/notification"
	petService "github.com/jwalitptl/vetbook-api/internal/service/pet"
	veterinarianService "github.com/jwalitptl/vetbook-api/internal/service/veterinarian"
	"github.com/jwalitptl/vetbook-api/pkg/auth"
	"github.com/jwalitptl/vetbook-api/pkg/security"
	"github.com/jwalitptl/vetbook-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := app.NewLogger(cfg.Logging)
	m, registry := app.NewMetrics("api")

	if err := validator.Register(); err != nil {
		logger.Fatal(err, "Failed to register validators")
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
	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)

	// Services
	eventSvc := eventService.NewService(repos.Outbox, logger)
	slotSvc := availabilityService.NewService(repos.Clinics, repos.Veterinarians, repos.Appointments, availabilityService.Config{
		Step:         cfg.Booking.Step,
		MinLead:      cfg.Booking.MinLead,
		Location:     cfg.Booking.Location(),
		DefaultHours: cfg.Booking.DefaultHours,
		CacheTTL:     cfg.Cache.ClinicTTL,
		CacheCleanup: cfg.Cache.CleanupPeriod,
	}, m)
	authSvc := authService.NewService(repos.Users, repos.Veterinarians, repos.Clinics,
		security.NewBcryptHasher(bcrypt.DefaultCost), tokens, emailSvc, eventSvc, logger)
	clinicSvc := clinicService.NewService(repos.Clinics, repos.Veterinarians, slotSvc, eventSvc, cfg.Booking.DefaultHours, logger)
	vetSvc := veterinarianService.NewService(repos.Veterinarians, eventSvc, logger)
	petSvc := petService.NewService(repos.Pets)
	appointmentSvc := appointmentService.NewService(repos.Appointments, repos.Pets, repos.Veterinarians, slotSvc, eventSvc, logger, m)
	notificationSvc := notificationService.NewService(repos.Notifications, feed, logger)

	// Handlers
	handlers := []router.Handler{
		authHandler.NewHandler(authSvc),
		clinicHandler.NewHandler(clinicSvc),
		veterinarianHandler.NewHandler(vetSvc),
		petHandler.NewHandler(petSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		availabilityHandler.NewHandler(slotSvc),
		notificationHandler.NewHandler(notificationSvc, notificationHandler.DefaultKeepAlive),
	}
	healthH := health.NewHandler(map[string]health.Check{"database": repos.Ping}, registry)

	r := router.NewRouter(middleware.NewAuthMiddleware(tokens), healthH, handlers, logger, m, router.RouterConfig{
		Mode:             cfg.Server.Mode,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        cfg.RateLimit.RequestsPerSecond,
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig(cfg.CORS),
		Timeout:          cfg.Server.RequestTimeout,
		MaxBodySize:      middleware.DefaultMaxBodySize,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without redis nothing else can see the in-process feed, so the
	// outbox processor and dispatcher run here.
	var wg sync.WaitGroup
	if !feed.Distributed() {
		bg := app.NewBackground(cfg, repos, feed, notificationSvc, emailSvc, logger, m)
		wg.Add(1)
		go func() {
			defer wg.Done()
			bg.Run(ctx)
		}()
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Server forced to shutdown")
	}

	cancel()
	wg.Wait()
	logger.Info("Server exited properly")
}

func corsConfig(cfg config.CORSConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		c.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		c.AllowHeaders = cfg.AllowedHeaders
	}
	return c
}
