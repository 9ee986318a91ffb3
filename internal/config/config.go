// Package config provides configuration management for narcosignal.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lvonguyen/narcosignal/internal/api/gateway"
	"github.com/lvonguyen/narcosignal/internal/investigation"
	"github.com/lvonguyen/narcosignal/internal/osint"
	"github.com/lvonguyen/narcosignal/internal/scoring"
)

// Config holds all narcosignal configuration.
type Config struct {
	Server    ServerConfig            `yaml:"server"`
	Redis     RedisConfig             `yaml:"redis"`
	Lexicon   LexiconConfig           `yaml:"lexicon"`
	Scoring   ScoringConfig           `yaml:"scoring"`
	Intel     IntelConfig             `yaml:"intel"`
	RateLimit gateway.RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig           `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxBatchSize caps the item count of one batch analysis request.
	MaxBatchSize int `yaml:"max_batch_size"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	PasswordEnv string        `yaml:"password_env"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// LexiconConfig holds the term lexicon settings.
type LexiconConfig struct {
	Path string `yaml:"path"`
}

// ScoringConfig holds suspicion scoring settings.
type ScoringConfig struct {
	Weights    scoring.Weights    `yaml:"weights"`
	Indicators scoring.Indicators `yaml:"indicators"`
}

// IntelConfig holds OSINT tool settings.
type IntelConfig struct {
	Sherlock      osint.SherlockConfig   `yaml:"sherlock"`
	Spiderfoot    osint.SpiderfootConfig `yaml:"spiderfoot"`
	URLCheck      osint.URLCheckConfig   `yaml:"url_check"`
	Investigation investigation.Config   `yaml:"investigation"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Load reads configuration from a YAML file, layered over defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBatchSize:    50,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 1 * time.Hour,
		},
		Lexicon: LexiconConfig{
			Path: "configs/lexicon.yaml",
		},
		Scoring: ScoringConfig{
			Weights:    scoring.DefaultWeights(),
			Indicators: scoring.DefaultIndicators(),
		},
		Intel: IntelConfig{
			Sherlock:      osint.DefaultSherlockConfig(),
			Spiderfoot:    osint.DefaultSpiderfootConfig(),
			URLCheck:      osint.DefaultURLCheckConfig(),
			Investigation: investigation.DefaultConfig(),
		},
		RateLimit: gateway.DefaultRateLimitConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// EnabledTools returns the names of the configured OSINT tools.
func (c *Config) EnabledTools() []string {
	var tools []string
	if c.Intel.Sherlock.Enabled {
		tools = append(tools, string(osint.ToolSherlock))
	}
	if c.Intel.Spiderfoot.Enabled {
		tools = append(tools, string(osint.ToolSpiderfoot))
	}
	if c.Intel.URLCheck.Enabled {
		tools = append(tools, string(osint.ToolURLCheck))
	}
	return tools
}
