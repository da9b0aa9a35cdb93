package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	Env     string
	AppPort string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret string
	TokenTTL  time.Duration

	RabbitMQURL string

	LogLevel  string
	LogFormat string

	// DecrementStock makes order writes consume product stock inside the
	// order transaction instead of only checking it.
	DecrementStock bool
	PageSize       int

	UserRateLimit       int
	LoginRateLimit      int
	LoginEmailRateLimit int

	AdminEmail    string
	AdminPassword string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=orderdesk port=5432 sslmode=disable")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("ORDER_DECREMENT_STOCK", false)
	v.SetDefault("PAGE_SIZE", 15)
	v.SetDefault("RATE_LIMIT_USER_PER_MINUTE", 5)
	v.SetDefault("RATE_LIMIT_LOGIN_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_LOGIN_EMAIL_PER_MINUTE", 3)
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that file.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Env:                 v.GetString("APP_ENV"),
		AppPort:             v.GetString("APP_PORT"),
		DatabaseDriver:      v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		DecrementStock:      v.GetBool("ORDER_DECREMENT_STOCK"),
		PageSize:            v.GetInt("PAGE_SIZE"),
		UserRateLimit:       v.GetInt("RATE_LIMIT_USER_PER_MINUTE"),
		LoginRateLimit:      v.GetInt("RATE_LIMIT_LOGIN_PER_MINUTE"),
		LoginEmailRateLimit: v.GetInt("RATE_LIMIT_LOGIN_EMAIL_PER_MINUTE"),
		AdminEmail:          v.GetString("ADMIN_EMAIL"),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and sane.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}
	if c.UserRateLimit <= 0 || c.LoginRateLimit <= 0 || c.LoginEmailRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
