// Package config assembles the runtime configuration from three layers:
// built-in defaults, an optional YAML file, and environment variable
// overrides (highest precedence).
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"launch-radar/internal/classify"
	"launch-radar/internal/policy"
)

// EnrichmentConfig controls the LLM enrichment client.
type EnrichmentConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENRICHMENT_ENABLED"`
	APIKey    string `yaml:"api_key" env:"GROQ_API_KEY"`
	Endpoint  string `yaml:"endpoint" env:"GROQ_ENDPOINT"`
	Model     string `yaml:"model" env:"GROQ_MODEL"`
	TimeoutMS int    `yaml:"timeout_ms" env:"ENRICHMENT_TIMEOUT_MS"`
}

// LaunchConfig controls the external launch executor.
type LaunchConfig struct {
	Enabled     bool   `yaml:"enabled" env:"LAUNCH_ENABLED"`
	ExecutorURL string `yaml:"executor_url" env:"LAUNCH_EXECUTOR_URL"`
	APIKey      string `yaml:"api_key" env:"LAUNCH_API_KEY"`
}

// AlertsConfig controls the outbound notification channels. A channel is
// active when its destination is set.
type AlertsConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url" env:"ALERT_DISCORD_WEBHOOK_URL"`
	GenericWebhookURL string `yaml:"generic_webhook_url" env:"ALERT_WEBHOOK_URL"`
	TelegramBotToken  string `yaml:"telegram_bot_token" env:"ALERT_TELEGRAM_BOT_TOKEN"`
	TelegramChatID    int64  `yaml:"telegram_chat_id" env:"ALERT_TELEGRAM_CHAT_ID"`
}

// StorageConfig selects the persistence backends. Empty DSNs keep the
// pipeline on in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	ClickHouseDSN string `yaml:"clickhouse_dsn" env:"CLICKHOUSE_DSN"`
}

// BusConfig tunes the in-process event bus.
type BusConfig struct {
	HistorySize int `yaml:"history_size" env:"BUS_HISTORY_SIZE"`
}

// ServerConfig controls the HTTP surface (metrics, websocket stream,
// health).
type ServerConfig struct {
	Addr string `yaml:"addr" env:"SERVER_ADDR"`
}

// Config is the full runtime configuration.
type Config struct {
	Classifier classify.Config  `yaml:"classifier"`
	Policy     policy.Policy    `yaml:"policy"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Launch     LaunchConfig     `yaml:"launch"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Storage    StorageConfig    `yaml:"storage"`
	Bus        BusConfig        `yaml:"bus"`
	Server     ServerConfig     `yaml:"server"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Classifier: classify.DefaultConfig(),
		Policy:     policy.Default(),
		Enrichment: EnrichmentConfig{
			TimeoutMS: 12000,
		},
		Bus: BusConfig{
			HistorySize: 1000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Classifier.MinConfidence < 0 || c.Classifier.MinConfidence > 1 {
		return fmt.Errorf("classifier.min_confidence must be in [0,1], got %v", c.Classifier.MinConfidence)
	}
	if c.Classifier.MaxRisk < 0 || c.Classifier.MaxRisk > 1 {
		return fmt.Errorf("classifier.max_risk must be in [0,1], got %v", c.Classifier.MaxRisk)
	}
	if c.Policy.MinConfidence < 0 || c.Policy.MinConfidence > 1 {
		return fmt.Errorf("policy.min_confidence must be in [0,1], got %v", c.Policy.MinConfidence)
	}
	if c.Launch.Enabled && c.Launch.ExecutorURL == "" {
		return fmt.Errorf("launch.executor_url is required when launch is enabled")
	}
	if c.Enrichment.Enabled && c.Enrichment.APIKey == "" {
		return fmt.Errorf("enrichment.api_key is required when enrichment is enabled")
	}
	return nil
}
