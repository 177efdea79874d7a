// Package app assembles the long-lived dependencies shared by the api and
// worker binaries.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/vetbook-api/internal/config"
	"github.com/jwalitptl/vetbook-api/internal/email"
	"github.com/jwalitptl/vetbook-api/internal/repository"
	"github.com/jwalitptl/vetbook-api/internal/repository/postgres"
	"github.com/jwalitptl/vetbook-api/internal/repository/supabase"
	"github.com/jwalitptl/vetbook-api/pkg/logger"
	"github.com/jwalitptl/vetbook-api/pkg/messaging"
	"github.com/jwalitptl/vetbook-api/pkg/messaging/redis"
	"github.com/jwalitptl/vetbook-api/pkg/metrics"
	"github.com/jwalitptl/vetbook-api/pkg/realtime"
)

const metricsNamespace = "vetbook"

func NewLogger(cfg config.LoggingConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       cfg.JSON,
	})
}

// NewMetrics registers the service metrics plus the Go runtime collectors
// on a fresh registry, which doubles as the /metrics gatherer.
func NewMetrics(subsystem string) (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.NewMetrics(metricsNamespace, subsystem, reg), reg
}

// Repositories is every store the services use. Users, pets, veterinarians,
// notifications and the outbox always live in postgres; clinics and
// appointments follow storage.driver.
type Repositories struct {
	DB            *sqlx.DB
	Clinics       repository.ClinicRepository
	Veterinarians repository.VeterinarianRepository
	Users         repository.UserRepository
	Pets          repository.PetRepository
	Appointments  repository.AppointmentRepository
	Notifications repository.NotificationRepository
	Outbox        repository.OutboxRepository
}

func OpenRepositories(cfg *config.Config, log *logger.Logger) (*Repositories, error) {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	base := postgres.NewBaseRepository(db)

	repos := &Repositories{
		DB:            db,
		Clinics:       postgres.NewClinicRepository(base),
		Veterinarians: postgres.NewVeterinarianRepository(base),
		Users:         postgres.NewUserRepository(base),
		Pets:          postgres.NewPetRepository(base),
		Appointments:  postgres.NewAppointmentRepository(base),
		Notifications: postgres.NewNotificationRepository(base),
		Outbox:        postgres.NewOutboxRepository(base),
	}

	if cfg.Storage.Driver == config.StorageSupabase {
		client, err := supabase.NewClient(cfg.Supabase)
		if err != nil {
			db.Close()
			return nil, err
		}
		repos.Clinics = supabase.NewClinicRepository(client)
		repos.Appointments = supabase.NewAppointmentRepository(client)
		log.Info("Using supabase for clinics and appointments", "url", cfg.Supabase.URL)
	}
	return repos, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// Ping reports whether the database answers.
func (r *Repositories) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// Feed is the change feed plus whatever must be closed with it.
type Feed struct {
	realtime.Feed
	broker messaging.Broker
}

// Distributed reports whether changes cross process boundaries. When false
// the outbox processor and dispatcher must run next to the API.
func (f *Feed) Distributed() bool { return f.broker != nil }

func (f *Feed) Close() error {
	if f.broker == nil {
		return nil
	}
	return f.broker.Close()
}

// NewFeed uses redis pub/sub when enabled and an in-process feed otherwise.
func NewFeed(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*Feed, error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, using in-process change feed")
		return &Feed{Feed: realtime.NewMemoryFeed()}, nil
	}
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), log.ZL, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis broker: %w", err)
	}
	return &Feed{Feed: realtime.NewBrokerFeed(broker, log.ZL), broker: broker}, nil
}

func NewEmail(cfg config.SMTPConfig, log *logger.Logger) email.Service {
	if !cfg.Enabled {
		return email.NewNopService()
	}
	return email.NewSMTPService(email.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	}, log.ZL)
}
