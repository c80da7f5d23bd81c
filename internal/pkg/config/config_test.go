package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server:     ServerConfig{Port: 8080, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
		Database:   DatabaseConfig{Host: "localhost", Port: 5432, User: "geo", DBName: "geo"},
		Storage:    StorageConfig{Driver: "postgres"},
		NATS:       NATSConfig{URL: "nats://localhost:4222", Enabled: true},
		Valkey:     ValkeyConfig{Addr: "localhost:6379", Enabled: true},
		RateLimit:  RateLimitConfig{Enabled: true, Limit: 100, Window: time.Minute},
		Validation: ValidationConfig{EstimatedValueCeiling: 2_000_000_000},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MemoryDriverSkipsDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "memory"
	cfg.Database = DatabaseConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Storage.Driver = "sqlite"
	cfg.RateLimit.Limit = 0
	cfg.Validation.EstimatedValueCeiling = 0
	cfg.Log = LogConfig{Level: "chatty", Format: "xml"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "ratelimit.limit")
	assert.Contains(t, err.Error(), "validation.estimated_value_ceiling")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
}

func TestValidate_DisabledDepsNeedNoAddress(t *testing.T) {
	cfg := validConfig()
	cfg.NATS = NATSConfig{}
	cfg.Valkey = ValkeyConfig{}
	cfg.RateLimit = RateLimitConfig{}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEOPORTFOLIO_STORAGE_DRIVER", "memory")
	t.Setenv("GEOPORTFOLIO_RATELIMIT_LIMIT", "5")
	t.Setenv("GEOPORTFOLIO_SERVER_PORT", "9090")

	cfg, err := Load("api-test")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, int64(2_000_000_000), cfg.Validation.EstimatedValueCeiling)
	assert.Equal(t, "api-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, "geoportfolio:", cfg.Valkey.KeyPrefix)
	assert.Equal(t, 30*time.Second, cfg.Valkey.LocalTTL)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestDatabaseConfig_DSNEscapesCredentials(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, User: "geo", Password: "p@ss/word",
		DBName: "geoportfolio", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://geo:p%40ss%2Fword@db:5432/geoportfolio?sslmode=disable", d.DSN())
}
