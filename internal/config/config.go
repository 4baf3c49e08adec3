// Package config loads service configuration from an optional YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jonathan/interview-kit/internal/llm"
)

// Config holds all configuration for the interview agent.
// Environment variables always override file values. Secrets only come from the environment.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Platform     PlatformConfig     `yaml:"platform"`
	LLM          LLMConfig          `yaml:"llm"`
	Auth         AuthConfig         `yaml:"auth"`
	Sync         SyncConfig         `yaml:"sync"`
	Regeneration RegenerationConfig `yaml:"regeneration"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         int           `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"5m"`
}

// DatabaseConfig holds the PostgreSQL connection URL.
type DatabaseConfig struct {
	URL string `yaml:"-" env:"DATABASE_URL"` // Secret - not in YAML
}

// RedisConfig configures the sync lock backend. An empty host selects the in-process lock.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"SYNC_LOCK_TTL" env-default:"2m"`
}

// PlatformConfig configures the recruiting platform client.
type PlatformConfig struct {
	BaseURL string        `yaml:"base_url" env:"PLATFORM_BASE_URL" env-default:""`
	Token   string        `yaml:"-" env:"PLATFORM_TOKEN"` // Secret - not in YAML
	Timeout time.Duration `yaml:"timeout" env:"PLATFORM_TIMEOUT" env-default:"30s"`
}

// LLMConfig selects the question generator.
type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"gemini"`
	APIKey      string        `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	BaseURL     string        `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model       string        `yaml:"model" env:"LLM_MODEL" env-default:""`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"60s"`
	Temperature float32       `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.4"`
}

// AuthConfig configures bearer authentication of the HTTP API. An empty secret disables it.
type AuthConfig struct {
	JWTSecret       string `yaml:"-" env:"JWT_SECRET"` // Secret - not in YAML
	ExpirationHours int    `yaml:"expiration_hours" env:"JWT_EXPIRATION_HOURS" env-default:"24"`
}

// SyncConfig tunes the batched applier.
type SyncConfig struct {
	ChunkSize   int `yaml:"chunk_size" env:"SYNC_CHUNK_SIZE" env-default:"25"`
	Concurrency int `yaml:"concurrency" env:"SYNC_CONCURRENCY" env-default:"1"`
}

// RegenerationConfig tunes question regeneration.
type RegenerationConfig struct {
	Strategy    string `yaml:"strategy" env:"REGENERATION_STRATEGY" env-default:"retire"`
	Tier        string `yaml:"tier" env:"REGENERATION_TIER" env-default:"standard"`
	Concurrency int    `yaml:"concurrency" env:"REGENERATION_CONCURRENCY" env-default:"4"`
}

// RateLimitConfig throttles the HTTP routes that reach the generator or the platform, per caller.
type RateLimitConfig struct {
	Enabled          bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	GeneratorPerHour int  `yaml:"generator_per_hour" env:"RATE_LIMIT_GENERATOR_PER_HOUR" env-default:"120"`
	SyncPerMinute    int  `yaml:"sync_per_minute" env:"RATE_LIMIT_SYNC_PER_MINUTE" env-default:"30"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEVELOPMENT" env-default:"false"`
}

// Load reads configuration from path (YAML or JSON) with environment overrides.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations. Presence of the database URL, platform URL
// and API keys is checked by the commands that need them.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Sync.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("sync.chunk_size must be at least 1, got %d", c.Sync.ChunkSize))
	}
	if c.Sync.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("sync.concurrency must be at least 1, got %d", c.Sync.Concurrency))
	}
	if c.Regeneration.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("regeneration.concurrency must be at least 1, got %d", c.Regeneration.Concurrency))
	}
	switch c.Regeneration.Strategy {
	case "retire", "in_place":
	default:
		errs = append(errs, fmt.Errorf("regeneration.strategy must be retire or in_place, got %q", c.Regeneration.Strategy))
	}
	switch llm.ModelTier(c.Regeneration.Tier) {
	case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
	default:
		errs = append(errs, fmt.Errorf("regeneration.tier must be lite, standard or advanced, got %q", c.Regeneration.Tier))
	}
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderGemini, llm.ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be gemini or openai, got %q", c.LLM.Provider))
	}
	if c.RateLimit.Enabled && (c.RateLimit.GeneratorPerHour < 1 || c.RateLimit.SyncPerMinute < 1) {
		errs = append(errs, fmt.Errorf("rate_limit budgets must be at least 1 when enabled"))
	}
	if c.Auth.ExpirationHours < 1 {
		errs = append(errs, fmt.Errorf("auth.expiration_hours must be at least 1, got %d", c.Auth.ExpirationHours))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config error: %w", errors.Join(errs...))
	}
	return nil
}

// LLMSettings builds the generator configuration for the configured provider.
func (c *Config) LLMSettings() *llm.Config {
	var out *llm.Config
	if llm.Provider(c.LLM.Provider) == llm.ProviderOpenAI {
		out = llm.DefaultOpenAIConfig()
	} else {
		out = llm.DefaultGeminiConfig()
	}
	out.BaseURL = c.LLM.BaseURL
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	if c.LLM.Temperature > 0 {
		out.Temperature = c.LLM.Temperature
	}
	if c.LLM.Model != "" {
		out = out.WithModel(llm.ModelTier(c.Regeneration.Tier), c.LLM.Model)
	}
	return out
}
