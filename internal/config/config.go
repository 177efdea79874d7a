package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/vetbook-api/pkg/messaging/redis"
	"github.com/jwalitptl/vetbook-api/pkg/worker"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Booking   BookingConfig   `mapstructure:"booking"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// StorageConfig selects the backend for clinics and appointments.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

const (
	StoragePostgres = "postgres"
	StorageSupabase = "supabase"
)

type SupabaseConfig struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// BookingConfig drives slot generation.
type BookingConfig struct {
	Step         time.Duration `mapstructure:"step"`
	MinLead      time.Duration `mapstructure:"min_lead"`
	Timezone     string        `mapstructure:"timezone"`
	DefaultHours string        `mapstructure:"default_hours"`
}

// Location resolves Timezone, falling back to UTC.
func (c BookingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxDeliveries   int           `mapstructure:"max_deliveries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupEvery    time.Duration `mapstructure:"cleanup_every"`
}

type CacheConfig struct {
	ClinicTTL     time.Duration `mapstructure:"clinic_ttl"`
	CleanupPeriod time.Duration `mapstructure:"cleanup_period"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// secrets are read from the environment only, never from the config file.
type secrets struct {
	JWTSecret    string `envconfig:"JWT_SECRET"`
	DBPassword   string `envconfig:"DB_PASSWORD"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SupabaseKey  string `envconfig:"SUPABASE_KEY"`
}

const envPrefix = "VETBOOK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "vetbook")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("storage.driver", StoragePostgres)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("jwt.issuer", "vetbook")
	v.SetDefault("jwt.expiry", 24*time.Hour)

	v.SetDefault("booking.step", 30*time.Minute)
	v.SetDefault("booking.min_lead", 30*time.Minute)
	v.SetDefault("booking.timezone", "UTC")
	v.SetDefault("booking.default_hours", "08:00-17:00")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@vetbook.local")

	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 500*time.Millisecond)
	v.SetDefault("outbox.max_deliveries", 10)
	v.SetDefault("outbox.retry_backoff", 5*time.Second)
	v.SetDefault("outbox.max_retry_backoff", 5*time.Minute)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_every", time.Hour)

	v.SetDefault("cache.clinic_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_period", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", true)

	v.SetDefault("worker.health_port", 8081)
}

// LoadConfig reads config.yml from the usual locations (or CONFIG_FILE),
// layers environment variables on top and validates the result. A missing
// file is not an error; every key has a default.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	cfg.applySecrets(s)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(s secrets) {
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.DBPassword != "" {
		c.Database.Password = s.DBPassword
	}
	if s.SMTPPassword != "" {
		c.SMTP.Password = s.SMTPPassword
	}
	if s.SupabaseKey != "" {
		c.Supabase.Key = s.SupabaseKey
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (set %s_JWT_SECRET)", envPrefix)
	}
	switch c.Storage.Driver {
	case StoragePostgres:
	case StorageSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return fmt.Errorf("supabase storage requires supabase.url and %s_SUPABASE_KEY", envPrefix)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Booking.Step <= 0 {
		return fmt.Errorf("booking.step must be positive")
	}
	// The calculator treats a zero lead as unset, so 0 would quietly mean 30m.
	if c.Booking.MinLead <= 0 {
		return fmt.Errorf("booking.min_lead must be positive")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid booking.timezone %q: %w", c.Booking.Timezone, err)
	}
	if c.SMTP.Enabled && c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required when smtp is enabled")
	}
	return nil
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:       c.BatchSize,
		PollInterval:    c.PollInterval,
		RetryAttempts:   c.RetryAttempts,
		RetryDelay:      c.RetryDelay,
		MaxDeliveries:   c.MaxDeliveries,
		RetryBackoff:    c.RetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
