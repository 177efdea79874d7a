package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndSecrets(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("VETBOOK_JWT_SECRET", "s3cret")
	t.Setenv("VETBOOK_DB_PASSWORD", "pw")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "pw", cfg.Database.Password)
	assert.Equal(t, 30*time.Minute, cfg.Booking.Step)
	assert.Equal(t, 30*time.Minute, cfg.Booking.MinLead)
	assert.Equal(t, "08:00-17:00", cfg.Booking.DefaultHours)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, time.UTC, cfg.Booking.Location())
	assert.Equal(t, 10, cfg.Outbox.MaxDeliveries)
	assert.Equal(t, 10, cfg.Outbox.ToWorkerConfig().MaxDeliveries)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  port: 9090
booking:
  step: 15m
  timezone: Asia/Tokyo
database:
  host: db.internal
`), 0o600))

	t.Setenv("CONFIG_FILE", file)
	t.Setenv("VETBOOK_JWT_SECRET", "s3cret")
	t.Setenv("VETBOOK_DATABASE_HOST", "db.override")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Booking.Step)
	assert.Equal(t, "Asia/Tokyo", cfg.Booking.Location().String())
	assert.Equal(t, "db.override", cfg.Database.Host)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			JWT:     JWTConfig{Secret: "x"},
			Storage: StorageConfig{Driver: StoragePostgres},
			Booking: BookingConfig{Step: 30 * time.Minute, MinLead: 30 * time.Minute, Timezone: "UTC"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, false},
		{"supabase without key", func(c *Config) { c.Storage.Driver = StorageSupabase; c.Supabase.URL = "http://x" }, false},
		{"supabase complete", func(c *Config) {
			c.Storage.Driver = StorageSupabase
			c.Supabase.URL = "http://x"
			c.Supabase.Key = "k"
		}, true},
		{"zero step", func(c *Config) { c.Booking.Step = 0 }, false},
		{"zero min lead", func(c *Config) { c.Booking.MinLead = 0 }, false},
		{"negative min lead", func(c *Config) { c.Booking.MinLead = -time.Minute }, false},
		{"bad timezone", func(c *Config) { c.Booking.Timezone = "Mars/Base" }, false},
		{"smtp without host", func(c *Config) { c.SMTP.Enabled = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
