// Package config loads and validates job-extractor configuration via Viper.
//
// Values come from defaults, an optional YAML or JSON file, and environment
// variables prefixed with JOB_EXTRACTOR_ (dots become underscores, so
// cache.backend is JOB_EXTRACTOR_CACHE_BACKEND). Secrets are also read from
// their conventional names such as FIRECRAWL_API_KEY.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/job-extractor/internal/cache"
	"github.com/jonathan/job-extractor/internal/extractor"
	"github.com/jonathan/job-extractor/internal/fetch"
	"github.com/jonathan/job-extractor/internal/firecrawl"
	"github.com/jonathan/job-extractor/internal/ingestion"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JOB_EXTRACTOR"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config captures all configuration knobs.
type Config struct {
	Firecrawl FirecrawlConfig `mapstructure:"firecrawl"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	LLM       LLMConfig       `mapstructure:"llm"`
	DB        DBConfig        `mapstructure:"db"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// FirecrawlConfig configures the primary extraction API. An empty APIKey disables it.
type FirecrawlConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	WaitFor         time.Duration `mapstructure:"wait_for" validate:"gte=0"`
	OnlyMainContent bool          `mapstructure:"only_main_content"`
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BaseDelay       time.Duration `mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay        time.Duration `mapstructure:"max_delay" validate:"gte=0"`
}

// FallbackConfig configures direct fetching and parsing.
type FallbackConfig struct {
	Disabled     bool          `mapstructure:"disabled"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent    string        `mapstructure:"user_agent" validate:"required"`
	MaxRedirects int           `mapstructure:"max_redirects" validate:"min=0,max=20"`
	HostRate     float64       `mapstructure:"host_rate" validate:"gte=0"`
	HostBurst    int           `mapstructure:"host_burst" validate:"gte=0"`
	PingURL      string        `mapstructure:"ping_url" validate:"required,url"`
}

// CacheConfig selects and sizes the primary-result cache.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend" validate:"oneof=memory redis"`
	MaxEntries int           `mapstructure:"max_entries" validate:"min=1"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	RedisURL   string        `mapstructure:"redis_url"`
}

// BatchConfig bounds batch extraction.
type BatchConfig struct {
	DefaultConcurrency int `mapstructure:"default_concurrency" validate:"min=1"`
	MaxConcurrency     int `mapstructure:"max_concurrency" validate:"min=1"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// RateLimitConfig configures per-client request limits on the HTTP API.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit" validate:"min=0"`
	DefaultWindow   time.Duration `mapstructure:"default_window" validate:"gt=0"`
	ExtractLimit    int           `mapstructure:"extract_limit" validate:"min=0"`
	BatchLimit      int           `mapstructure:"batch_limit" validate:"min=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gte=0"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// LLMConfig toggles Gemini enrichment of fallback extractions.
type LLMConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// DBConfig points at the PostgreSQL extraction store. An empty URL disables persistence.
type DBConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// AuthConfig enables bearer-token verification on the HTTP API when JWTSecret is set.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	Issuer          string `mapstructure:"issuer"`
	ExpirationHours int    `mapstructure:"expiration_hours" validate:"min=1"`
}

// Enabled reports whether bearer tokens are required.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// conventional env names read in addition to the prefixed ones.
var secretEnv = map[string]string{
	"firecrawl.api_key": "FIRECRAWL_API_KEY",
	"llm.api_key":       "GEMINI_API_KEY",
	"db.url":            "DATABASE_URL",
	"auth.jwt_secret":   "JWT_SECRET",
	"cache.redis_url":   "REDIS_URL",
}

// Load builds a Config from defaults, the optional file at path, and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, name := range secretEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("firecrawl.api_key", "")
	v.SetDefault("firecrawl.base_url", firecrawl.DefaultBaseURL)
	v.SetDefault("firecrawl.timeout", firecrawl.DefaultTimeout)
	v.SetDefault("firecrawl.wait_for", firecrawl.DefaultWaitFor)
	v.SetDefault("firecrawl.only_main_content", true)
	v.SetDefault("firecrawl.max_attempts", firecrawl.DefaultMaxAttempts)
	v.SetDefault("firecrawl.base_delay", firecrawl.DefaultBaseDelay)
	v.SetDefault("firecrawl.max_delay", firecrawl.DefaultMaxDelay)

	v.SetDefault("fallback.disabled", false)
	v.SetDefault("fallback.timeout", fetch.DefaultTimeout)
	v.SetDefault("fallback.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("fallback.max_redirects", fetch.DefaultMaxRedirects)
	v.SetDefault("fallback.host_rate", 1.0)
	v.SetDefault("fallback.host_burst", 2)
	v.SetDefault("fallback.ping_url", ingestion.DefaultPingURL)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.max_entries", cache.DefaultMaxEntries)
	v.SetDefault("cache.ttl", cache.DefaultTTL)
	v.SetDefault("cache.redis_url", "")

	v.SetDefault("batch.default_concurrency", extractor.DefaultConcurrency)
	v.SetDefault("batch.max_concurrency", extractor.MaxConcurrency)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.default_limit", 600)
	v.SetDefault("ratelimit.default_window", time.Minute)
	v.SetDefault("ratelimit.extract_limit", 60)
	v.SetDefault("ratelimit.batch_limit", 10)
	v.SetDefault("ratelimit.cleanup_interval", 5*time.Minute)
	v.SetDefault("ratelimit.whitelist", []string{})
	v.SetDefault("ratelimit.blacklist", []string{})

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.1)

	v.SetDefault("db.url", "")
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("logging.development", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "job-extractor")
	v.SetDefault("auth.expiration_hours", 24)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate enforces field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if c.Batch.DefaultConcurrency > c.Batch.MaxConcurrency {
		return fmt.Errorf("config error: batch.default_concurrency (%d) exceeds batch.max_concurrency (%d)",
			c.Batch.DefaultConcurrency, c.Batch.MaxConcurrency)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("config error: cache.redis_url must be set when cache.backend is redis")
	}
	if c.LLM.Enabled {
		if c.LLM.APIKey == "" {
			return fmt.Errorf("config error: llm.api_key must be set when llm is enabled")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("config error: llm.model must be set when llm is enabled")
		}
	}
	if c.Fallback.Disabled && c.Firecrawl.APIKey == "" {
		return fmt.Errorf("config error: fallback is disabled and firecrawl.api_key is empty; no extraction path is available")
	}
	return nil
}
