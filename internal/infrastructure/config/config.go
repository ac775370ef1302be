package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Server ServerConfig   `mapstructure:"server"`
	API    RatehawkConfig `mapstructure:"api"`
	Cache  CacheConfig    `mapstructure:"cache"`
	Log    LoggingConfig  `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type RatehawkConfig struct {
	// AuthKey is the combined `<key_id>:<api_key>` credential pair.
	AuthKey         string  `mapstructure:"auth_key"`
	BaseURL         string  `mapstructure:"base_url"`
	DefaultLanguage string  `mapstructure:"default_language"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	BurstLimit      int     `mapstructure:"burst_limit"`
	Sandbox         bool    `mapstructure:"sandbox"`
}

type CacheConfig struct {
	// Path of the SQLite cache file. Empty disables the whole subsystem.
	Path string `mapstructure:"path"`
	// InfoBudget caps upstream Hotel Info calls per search: negative means
	// unlimited, zero disables enrichment fetches entirely.
	InfoBudget        int    `mapstructure:"info_budget"`
	BatchSize         int    `mapstructure:"batch_size"`
	EnrichConcurrency int    `mapstructure:"enrich_concurrency"`
	WarmupOnStart     bool   `mapstructure:"warmup_on_start"`
	RefreshHours      uint64 `mapstructure:"refresh_hours"`
	DumpPath          string `mapstructure:"dump_path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (r RatehawkConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// AuthPair splits the combined credential into key id and secret.
func (r RatehawkConfig) AuthPair() (string, string, error) {
	keyID, apiKey, found := strings.Cut(r.AuthKey, ":")
	if !found || keyID == "" || apiKey == "" {
		return "", "", fmt.Errorf("PAPI_AUTH_KEY must contain `<key_id>:<api_key>`")
	}
	return keyID, apiKey, nil
}

// LoadConfig reads config.yaml when present, overlaid with PAPI_* environment
// variables (a .env file is honored the same way the original service did).
func LoadConfig() (*Config, error) {
	if err := gotenv.Load(".env"); err != nil {
		_ = gotenv.Load()
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "90s")

	v.SetDefault("api.base_url", "https://api.worldota.net")
	v.SetDefault("api.default_language", "en")
	v.SetDefault("api.timeout_seconds", 30)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst_limit", 20)
	v.SetDefault("api.sandbox", false)

	v.SetDefault("cache.path", "./.cache/hotel_info.sqlite")
	v.SetDefault("cache.info_budget", 25)
	v.SetDefault("cache.batch_size", 500)
	v.SetDefault("cache.enrich_concurrency", 8)
	v.SetDefault("cache.warmup_on_start", false)
	v.SetDefault("cache.refresh_hours", 0)
	v.SetDefault("cache.dump_path", "./.cache/hotel_dump.json.zst")

	v.SetDefault("log.level", "info")
}

func bindEnv(v *viper.Viper) {
	// Env names kept from the original deployment.
	_ = v.BindEnv("api.auth_key", "PAPI_AUTH_KEY")
	_ = v.BindEnv("api.base_url", "PAPI_BASE_PATH")
	_ = v.BindEnv("api.default_language", "PAPI_DEFAULT_LANGUAGE")
	_ = v.BindEnv("api.timeout_seconds", "PAPI_TIMEOUT_SECONDS")
	_ = v.BindEnv("api.sandbox", "PAPI_SANDBOX")
	_ = v.BindEnv("cache.info_budget", "PAPI_INFO_BUDGET")
	_ = v.BindEnv("cache.path", "PAPI_HOTEL_CACHE_PATH")
	_ = v.BindEnv("cache.warmup_on_start", "PAPI_CACHE_WARMUP")
	_ = v.BindEnv("cache.refresh_hours", "PAPI_CACHE_REFRESH_HOURS")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

// Validate rejects configurations the service cannot start with. Credentials
// are not required here: enrichment and warm-up check them at use time so a
// cache-only deployment still boots.
func (c *Config) Validate() error {
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path must be set")
	}
	if c.Cache.BatchSize <= 0 {
		return fmt.Errorf("cache.batch_size must be positive")
	}
	if c.Cache.EnrichConcurrency <= 0 {
		return fmt.Errorf("cache.enrich_concurrency must be positive")
	}
	if c.API.AuthKey != "" {
		if _, _, err := c.API.AuthPair(); err != nil {
			return err
		}
	}
	return nil
}
