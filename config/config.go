// Package config carrega a configuração do gateway.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"content-gateway/middleware/ratelimit/domain"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Gemini        GeminiConfig        `mapstructure:"gemini"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	TrustXFF           bool          `mapstructure:"trust_xff"`
	CORSOrigins        []string      `mapstructure:"cors_origins"`
	ConcurrencyMax     int           `mapstructure:"concurrency_max"`
	ConcurrencyTimeout time.Duration `mapstructure:"concurrency_timeout"`
	GenerationTimeout  time.Duration `mapstructure:"generation_timeout"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string { return ":" + strconv.Itoa(s.Port) }

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api_key"`
	DefaultModel string  `mapstructure:"default_model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	TopP         float64 `mapstructure:"top_p"`
	BaseURL      string  `mapstructure:"base_url"`
	// MaxRPS <= 0 desliga o pacing de saída.
	MaxRPS float64 `mapstructure:"max_rps"`
	Burst  int     `mapstructure:"burst"`
}

type RateLimitConfig struct {
	// RequestsPerMinute <= 0 usa os fallbacks (global 5, tiers 5/10/15).
	RequestsPerMinute int               `mapstructure:"requests_per_minute"`
	Tiers             TierConfig        `mapstructure:"tiers"`
	TierHeader        string            `mapstructure:"tier_header"`
	ClientTiers       map[string]string `mapstructure:"client_tiers"`
	CleanupEvery      time.Duration     `mapstructure:"cleanup_every"`
	Stats             StatsConfig       `mapstructure:"stats"`
}

// TierConfig sobrescreve o teto de um tier quando > 0.
type TierConfig struct {
	Free    int `mapstructure:"free"`
	Basic   int `mapstructure:"basic"`
	Premium int `mapstructure:"premium"`
}

type StatsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	Bucket        string        `mapstructure:"bucket"`
	TrackKeys     bool          `mapstructure:"track_keys"`
}

type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

// TierLimits resolve os tetos por tier da rota de geração.
func (r RateLimitConfig) TierLimits() domain.TierLimits {
	return domain.NewTierLimits(r.RequestsPerMinute, domain.TierLimits{
		Free:    r.Tiers.Free,
		Basic:   r.Tiers.Basic,
		Premium: r.Tiers.Premium,
	})
}

// ClientTierMap converte client_tiers (id → nome do tier).
func (r RateLimitConfig) ClientTierMap() (map[string]domain.Tier, error) {
	out := make(map[string]domain.Tier, len(r.ClientTiers))
	for id, name := range r.ClientTiers {
		t, ok := domain.ParseTier(name)
		if !ok {
			return nil, fmt.Errorf("rate_limit.client_tiers.%s: unknown tier %q", id, name)
		}
		out[strings.TrimSpace(id)] = t
	}
	return out, nil
}

// Validate rejeita valores impossíveis; o resto fica com os defaults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Server.ConcurrencyMax < 0 {
		return fmt.Errorf("server.concurrency_max: must be >= 0, got %d", c.Server.ConcurrencyMax)
	}
	if c.Server.GenerationTimeout < 0 {
		return fmt.Errorf("server.generation_timeout: must be >= 0")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key: required (set GEMINI_API_KEY)")
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return fmt.Errorf("gemini.temperature: %v out of range [0, 2]", c.Gemini.Temperature)
	}
	if c.Gemini.TopP < 0 || c.Gemini.TopP > 1 {
		return fmt.Errorf("gemini.top_p: %v out of range [0, 1]", c.Gemini.TopP)
	}
	if c.RateLimit.CleanupEvery <= 0 {
		return fmt.Errorf("rate_limit.cleanup_every: must be > 0")
	}
	if _, err := c.RateLimit.ClientTierMap(); err != nil {
		return err
	}
	if c.RateLimit.Stats.Enabled && c.RateLimit.Stats.RedisAddr == "" {
		return fmt.Errorf("rate_limit.stats.redis_addr: required when stats are enabled")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir: required")
	}
	return nil
}
