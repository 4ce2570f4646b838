package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// ErrMissingJWTSecret is returned by Load when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds application level configuration. Every key can come from config.yaml or from
// the upper-cased environment variable of the same name (SERVER_PORT, JWT_SECRET, ...).
type Config struct {
	Environment string `mapstructure:"environment"`
	ServerPort  string `mapstructure:"server_port"`
	SwaggerHost string `mapstructure:"swagger_host"`
	NoLogs      bool   `mapstructure:"no_logs"`

	StoreDriver   string `mapstructure:"store_driver"`
	MySQLDSN      string `mapstructure:"mysql_dsn"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
	// ResetDB drops the account tables or collections before migrating.
	ResetDB bool `mapstructure:"reset_db"`

	JWTSecret              string        `mapstructure:"jwt_secret"`
	AdminTokenTTL          time.Duration `mapstructure:"admin_token_ttl"`
	TeacherTokenTTL        time.Duration `mapstructure:"teacher_token_ttl"`
	BcryptCost             int           `mapstructure:"bcrypt_cost"`
	TeacherDefaultPassword string        `mapstructure:"teacher_default_password"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Bootstrap administrator created by cmd/seed.
	SeedAdminName     string `mapstructure:"seed_admin_name"`
	SeedAdminEmail    string `mapstructure:"seed_admin_email"`
	SeedAdminPhone    string `mapstructure:"seed_admin_phone"`
	SeedAdminPassword string `mapstructure:"seed_admin_password"`
}

// Load builds Config from config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	switch c.StoreDriver {
	case DriverMySQL, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.AdminTokenTTL <= 0 || c.TeacherTokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if len(c.TeacherDefaultPassword) < 8 {
		return errors.New("teacher default password must be at least 8 characters")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server_port", "3000")
	v.SetDefault("swagger_host", "")
	v.SetDefault("no_logs", false)

	v.SetDefault("store_driver", DriverMySQL)
	v.SetDefault("mysql_dsn", "user:password@tcp(localhost:3306)/smp?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "smp")
	v.SetDefault("reset_db", false)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("admin_token_ttl", "6h")
	v.SetDefault("teacher_token_ttl", "168h") // 1 week
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("teacher_default_password", "password123")

	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("seed_admin_name", "")
	v.SetDefault("seed_admin_email", "")
	v.SetDefault("seed_admin_phone", "")
	v.SetDefault("seed_admin_password", "")
}
