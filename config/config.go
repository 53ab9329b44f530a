// Package config provides configuration loading for sanabotti. Settings
// layer in order: built-in defaults, an optional YAML file, then
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the project-level config file name.
const DefaultConfigFile = "sanabotti.yaml"

// Config is the complete sanabotti configuration.
type Config struct {
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Game       GameConfig       `yaml:"game"`
	Batch      BatchConfig      `yaml:"batch"`
	LLM        LLMConfig        `yaml:"llm"`
	NATS       NATSConfig       `yaml:"nats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// DictionaryConfig configures the static word list.
type DictionaryConfig struct {
	// Path is the newline-delimited word list file.
	Path string `yaml:"path" env:"DICTIONARY_FILE_PATH"`
	// Watch reloads the dictionary when the file changes.
	Watch bool `yaml:"watch" env:"DICTIONARY_WATCH"`
}

// GameConfig configures the game state.
type GameConfig struct {
	// RuleTimeout bounds the rule-validation request (e.g. "5s").
	RuleTimeout string `yaml:"rule_timeout" env:"RULE_TIMEOUT"`
}

// GetRuleTimeout returns the rule timeout as a duration.
func (c GameConfig) GetRuleTimeout() time.Duration {
	return parseDuration(c.RuleTimeout, 5*time.Second)
}

// BatchConfig configures the confirmation batch scheduler.
type BatchConfig struct {
	// MaxSize flushes the queue once it holds this many words.
	MaxSize int `yaml:"max_size" env:"LLM_BATCH_SIZE"`
	// FlushTimeout flushes a non-empty queue after this long (e.g. "24h").
	FlushTimeout string `yaml:"flush_timeout" env:"LLM_BATCH_TIMEOUT"`
	// PollInterval is how often the timeout trigger is checked.
	PollInterval string `yaml:"poll_interval" env:"LLM_BATCH_POLL_INTERVAL"`
	// ConfirmTimeout bounds one external confirmation call.
	ConfirmTimeout string `yaml:"confirm_timeout" env:"LLM_CONFIRM_TIMEOUT"`
}

// GetFlushTimeout returns the flush timeout as a duration.
func (c BatchConfig) GetFlushTimeout() time.Duration {
	return parseDuration(c.FlushTimeout, 24*time.Hour)
}

// GetPollInterval returns the poll interval as a duration.
func (c BatchConfig) GetPollInterval() time.Duration {
	return parseDuration(c.PollInterval, 10*time.Second)
}

// GetConfirmTimeout returns the per-call timeout as a duration.
func (c BatchConfig) GetConfirmTimeout() time.Duration {
	return parseDuration(c.ConfirmTimeout, 2*time.Minute)
}

// LLMConfig configures the external confirmation endpoint. The API key is
// read from OPENAI_API_KEY by the provider, never from this file.
type LLMConfig struct {
	// Provider names a registered LLM provider.
	Provider string `yaml:"provider" env:"LLM_PROVIDER"`
	// URL is the API base URL; empty uses the provider default.
	URL string `yaml:"url" env:"LLM_URL"`
	// Model is the model identifier.
	Model string `yaml:"model" env:"LLM_MODEL"`
	// Temperature controls randomness; negative uses the endpoint default.
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE"`
}

// NATSConfig configures the message transport.
type NATSConfig struct {
	// URL is the NATS server URL. Ignored when Embedded is set.
	URL string `yaml:"url" env:"NATS_URL"`
	// Embedded runs an in-process NATS server instead of connecting out.
	Embedded bool `yaml:"embedded" env:"NATS_EMBEDDED"`
	// SubjectPrefix namespaces the word and reaction subjects.
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

// Default returns a Config with built-in defaults.
func Default() *Config {
	return &Config{
		Dictionary: DictionaryConfig{
			Path: "./data/finnish_words.txt",
		},
		Game: GameConfig{
			RuleTimeout: "5s",
		},
		Batch: BatchConfig{
			MaxSize:        2,
			FlushTimeout:   "24h",
			PollInterval:   "10s",
			ConfirmTimeout: "2m",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: -1,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "sanabotti",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Dictionary.Path == "" {
		return fmt.Errorf("dictionary.path is required")
	}
	if c.Batch.MaxSize <= 0 {
		return fmt.Errorf("batch.max_size must be positive, got %d", c.Batch.MaxSize)
	}
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.NATS.URL == "" && !c.NATS.Embedded {
		return fmt.Errorf("nats.url is required unless nats.embedded is set")
	}

	for name, value := range map[string]string{
		"game.rule_timeout":     c.Game.RuleTimeout,
		"batch.flush_timeout":   c.Batch.FlushTimeout,
		"batch.poll_interval":   c.Batch.PollInterval,
		"batch.confirm_timeout": c.Batch.ConfirmTimeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, value)
		}
	}

	return nil
}

// Load builds the configuration. path may be empty, in which case the
// default config file is used when present. Environment variables override
// file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	} else if err := loadFile(cfg, DefaultConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
