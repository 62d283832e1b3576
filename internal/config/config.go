package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Stream    StreamConfig    `mapstructure:"stream"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Cors      CorsConfig      `mapstructure:"cors"`
	Settings  SettingsConfig  `mapstructure:"settings"`
}

type ServerConfig struct {
	Environment     string        `mapstructure:"environment"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type BackendConfig struct {
	// BaseURL includes the API prefix, e.g. http://localhost:8080/api/v1.
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	// Store is "memory" or "redis".
	Store         string        `mapstructure:"store"`
	Name          string        `mapstructure:"name"`
	TTL           time.Duration `mapstructure:"ttl"`
	SecureCookies bool          `mapstructure:"secure_cookies"`
	// WatchInterval enables the background expiry watcher when > 0.
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GuardConfig struct {
	PublicRoutes  []string `mapstructure:"public_routes"`
	AdminPrefixes []string `mapstructure:"admin_prefixes"`
	AdminRole     string   `mapstructure:"admin_role"`
}

type StreamConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HistorySize       int           `mapstructure:"history_size"`
}

type RateLimitConfig struct {
	SignInPerSecond int `mapstructure:"signin_per_second"`
}

type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type SettingsConfig struct {
	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.port", ":3000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("backend.base_url", "http://localhost:8080/api/v1")
	v.SetDefault("backend.timeout", 15*time.Second)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.name", "accessToken")
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.secure_cookies", false)
	v.SetDefault("session.watch_interval", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("guard.public_routes", []string{"/signin", "/terms", "/privacy"})
	v.SetDefault("guard.admin_prefixes", []string{"/admin"})
	v.SetDefault("guard.admin_role", "ADMIN")

	v.SetDefault("stream.heartbeat_interval", 30*time.Second)
	v.SetDefault("stream.history_size", 256)

	v.SetDefault("ratelimit.signin_per_second", 5)
	v.SetDefault("settings.low_stock_threshold", 10)
}

// Load reads config.yaml from . or ./config, then CONSOLE_* environment
// overrides (server.port is CONSOLE_SERVER_PORT).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", c.Session.Store)
	}
	if c.Settings.LowStockThreshold < 0 {
		return errors.New("settings.low_stock_threshold must not be negative")
	}
	return nil
}
