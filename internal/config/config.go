package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "VEDISPEAK"

// Config holds runtime configuration values for the reference activity API.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	RealtimeChannel   string
	DashboardCacheTTL time.Duration
	SessionMaxAge     time.Duration
	SweepInterval     time.Duration
	RateLimit         int
	RateLimitWindow   time.Duration
	CORSOrigins       string
	DefaultUserID     uint
	LogLevel          string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// Load reads the server configuration from environment variables and an
// optional .env file.
func Load() (Config, error) {
	v := newViper()

	v.SetDefault("app.name", "VediSpeak Activity API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "file:vedispeak.db?cache=shared")
	v.SetDefault("realtime.channel", "vedispeak:realtime")
	v.SetDefault("dashboard.cache_ttl", "1m")
	v.SetDefault("session.max_age", "4h")
	v.SetDefault("session.sweep_interval", "10m")
	v.SetDefault("rate_limit.max", 120)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("default_user_id", 1)
	v.SetDefault("log.level", "info")

	ttl, err := parseDuration(v, "dashboard.cache_ttl", "1m")
	if err != nil {
		return Config{}, err
	}
	maxAge, err := parseDuration(v, "session.max_age", "4h")
	if err != nil {
		return Config{}, err
	}
	sweep, err := parseDuration(v, "session.sweep_interval", "10m")
	if err != nil {
		return Config{}, err
	}
	window, err := parseDuration(v, "rate_limit.window", "1m")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		RealtimeChannel:   v.GetString("realtime.channel"),
		DashboardCacheTTL: ttl,
		SessionMaxAge:     maxAge,
		SweepInterval:     sweep,
		RateLimit:         v.GetInt("rate_limit.max"),
		RateLimitWindow:   window,
		CORSOrigins:       v.GetString("cors.origins"),
		DefaultUserID:     v.GetUint("default_user_id"),
		LogLevel:          strings.ToLower(v.GetString("log.level")),
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 120
	}
	if cfg.DefaultUserID == 0 {
		cfg.DefaultUserID = 1
	}

	return cfg, nil
}

// ClientConfig configures the learner client.
type ClientConfig struct {
	APIBaseURL       string        `validate:"required,url"`
	RealtimeURL      string        `validate:"omitempty,url"`
	UserID           int           `validate:"gte=1"`
	ModuleID         int           `validate:"gte=0"`
	Page             string        `validate:"oneof=module dashboard"`
	RequestTimeout   time.Duration `validate:"gt=0"`
	PollInterval     time.Duration `validate:"gt=0"`
	RefreshDelay     time.Duration `validate:"gt=0"`
	ToastDuration    time.Duration `validate:"gt=0"`
	SimulatePlayback bool
	LogLevel         string
}

// LoadClient reads and validates the learner client configuration.
func LoadClient() (ClientConfig, error) {
	v := newViper()

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("user_id", 1)
	v.SetDefault("module_id", 1)
	v.SetDefault("page", "module")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("refresh_delay", "1s")
	v.SetDefault("toast_duration", "3s")
	v.SetDefault("simulate_playback", true)
	v.SetDefault("log.level", "info")

	timeout, err := parseDuration(v, "request_timeout", "10s")
	if err != nil {
		return ClientConfig{}, err
	}
	poll, err := parseDuration(v, "poll_interval", "30s")
	if err != nil {
		return ClientConfig{}, err
	}
	refresh, err := parseDuration(v, "refresh_delay", "1s")
	if err != nil {
		return ClientConfig{}, err
	}
	toast, err := parseDuration(v, "toast_duration", "3s")
	if err != nil {
		return ClientConfig{}, err
	}

	cfg := ClientConfig{
		APIBaseURL:       strings.TrimRight(v.GetString("api.base_url"), "/"),
		RealtimeURL:      v.GetString("realtime.url"),
		UserID:           v.GetInt("user_id"),
		ModuleID:         v.GetInt("module_id"),
		Page:             strings.ToLower(v.GetString("page")),
		RequestTimeout:   timeout,
		PollInterval:     poll,
		RefreshDelay:     refresh,
		ToastDuration:    toast,
		SimulatePlayback: v.GetBool("simulate_playback"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("invalid client config: %w", err)
	}

	return cfg, nil
}
