package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, DriverMySQL, cfg.StoreDriver)
	assert.Equal(t, 6*time.Hour, cfg.AdminTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.TeacherTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "password123", cfg.TeacherDefaultPassword)
	assert.False(t, cfg.NoLogs)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("ADMIN_TOKEN_TTL", "30m")
	t.Setenv("NO_LOGS", "true")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.AdminTokenTTL)
	assert.True(t, cfg.NoLogs)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestValidate(t *testing.T) {
	valid := Config{
		JWTSecret:              "secret",
		StoreDriver:            DriverMongo,
		AdminTokenTTL:          time.Hour,
		TeacherTokenTTL:        time.Hour,
		TeacherDefaultPassword: "password123",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"zero ttl", func(c *Config) { c.TeacherTokenTTL = 0 }},
		{"short default password", func(c *Config) { c.TeacherDefaultPassword = "short" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
