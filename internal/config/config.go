package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Env names the runtime environment.
type Env string

const (
	EnvLocal      Env = "local"
	EnvProduction Env = "production"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       Env    `mapstructure:"env"`
	HTTPAddr  string `mapstructure:"http_addr"`
	PublicURL string `mapstructure:"public_url"`

	DB   DB   `mapstructure:"database"`
	Auth Auth `mapstructure:"auth"`

	CORSOrigins []string `mapstructure:"cors_origins"`

	AssetBasePath string `mapstructure:"asset_base_path"`
}

// DB contains database-related configuration parameters.
type DB struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"-"`      // loaded from DATABASE_URL
}

// Auth contains token issuing parameters.
type Auth struct {
	HMACSecret string        `mapstructure:"-"` // loaded from AUTH_HMAC_SECRET
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	OTPTTL     time.Duration `mapstructure:"otp_ttl"`
	ResetTTL   time.Duration `mapstructure:"reset_ttl"`
}

var ErrMissingSecret = errors.New("AUTH_HMAC_SECRET is required")

// Load reads configuration from an optional config file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("auth.token_ttl", "8h")
	v.SetDefault("auth.otp_ttl", "10m")
	v.SetDefault("auth.reset_ttl", "30m")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("asset_base_path", "./data")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http_addr", "HTTP_ADDR")
	_ = v.BindEnv("public_url", "PUBLIC_URL")
	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("auth_hmac_secret", "AUTH_HMAC_SECRET")
	_ = v.BindEnv("asset_base_path", "ASSET_BASE_PATH")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.DB.DSN = v.GetString("database_url")
	cfg.Auth.HMACSecret = v.GetString("auth_hmac_secret")
	if cfg.Auth.HMACSecret == "" {
		if cfg.Env == EnvProduction {
			return nil, ErrMissingSecret
		}
		cfg.Auth.HMACSecret = "openlingo-dev-secret"
	}

	return &cfg, nil
}
