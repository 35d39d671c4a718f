package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Clippings  ClippingsConfig  `mapstructure:"clippings"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"` // SQLite path or DSN
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// FetchConfig holds feed and article fetching settings
type FetchConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	MaxArticlesPerFeed int           `mapstructure:"max_articles_per_feed"`
	FeedConcurrency    int           `mapstructure:"feed_concurrency"`
	ExtractConcurrency int           `mapstructure:"extract_concurrency"`
}

// ClassifierConfig holds classification settings
type ClassifierConfig struct {
	ContentPrefixChars int           `mapstructure:"content_prefix_chars"`
	CallTimeout        time.Duration `mapstructure:"call_timeout"`
}

// ClippingsConfig holds markdown clipping output settings
type ClippingsConfig struct {
	Dir string `mapstructure:"dir"`
}

// SchedulerConfig holds scheduler settings
type SchedulerConfig struct {
	CycleCron string `mapstructure:"cycle_cron"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".feed-brain"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("FEEDBRAIN")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "FEEDBRAIN_ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "FEEDBRAIN_ANTHROPIC_MODEL")
	v.BindEnv("database.dsn", "FEEDBRAIN_DATABASE_DSN")
	v.BindEnv("clippings.dir", "FEEDBRAIN_CLIPPINGS_DIR")
	v.BindEnv("fetch.user_agent", "FEEDBRAIN_FETCH_USER_AGENT")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.dsn", "./data/feed_brain.db")

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1000)

	// Fetch defaults. Some feed hosts reject default Go agents, so we
	// present a browser UA.
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) "+
			"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15")
	v.SetDefault("fetch.max_articles_per_feed", 50)
	v.SetDefault("fetch.feed_concurrency", 4)
	v.SetDefault("fetch.extract_concurrency", 6)

	// Classifier defaults
	v.SetDefault("classifier.content_prefix_chars", 3000)
	v.SetDefault("classifier.call_timeout", 60*time.Second)

	// Clippings defaults
	v.SetDefault("clippings.dir", "./clippings")

	// Scheduler defaults
	v.SetDefault("scheduler.cycle_cron", "0 */2 * * *") // Every 2 hours

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration. The Anthropic key is deliberately
// not required here: a missing key disables classification only, it must
// never block ingestion.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Fetch.MaxArticlesPerFeed <= 0 {
		return fmt.Errorf("fetch.max_articles_per_feed must be positive")
	}
	if c.Fetch.FeedConcurrency <= 0 || c.Fetch.ExtractConcurrency <= 0 {
		return fmt.Errorf("fetch concurrency limits must be positive")
	}
	return nil
}
