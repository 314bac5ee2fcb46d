// Package config provides configuration management for the trade journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"trade-journal/internal/analysis/scoring"
	"trade-journal/internal/currency"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Journal     JournalConfig   `mapstructure:"journal"`
	Plan        PlanConfig      `mapstructure:"plan"`
	Scoring     ScoringConfig   `mapstructure:"scoring"`
	Display     DisplayConfig   `mapstructure:"display"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	API         APIConfig       `mapstructure:"api"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
	Settings    SettingsFile    `mapstructure:"-"` // Loaded separately
	Credentials Credentials     `mapstructure:"-"` // Loaded separately
	Dir         string          `mapstructure:"-"`
}

// JournalConfig holds storage and calendar configuration.
type JournalConfig struct {
	Name               string `mapstructure:"name"`
	DBPath             string `mapstructure:"db_path"`
	Timezone           string `mapstructure:"timezone"`
	TrashRetentionDays int    `mapstructure:"trash_retention_days"`
	Workers            int    `mapstructure:"workers"`
	BatchSize          int    `mapstructure:"batch_size"`
}

// PlanConfig is the user's trading plan.
type PlanConfig struct {
	AccountSize     float64  `mapstructure:"account_size"`
	MaxRiskPercent  float64  `mapstructure:"max_risk_percent"`
	MinRiskReward   float64  `mapstructure:"min_risk_reward"`
	AllowedPairs    []string `mapstructure:"allowed_pairs"`
	AllowedSessions []string `mapstructure:"allowed_sessions"`
	DailyLossLimit  float64  `mapstructure:"daily_loss_limit"`
	WeeklyLossLimit float64  `mapstructure:"weekly_loss_limit"`
}

// ScoringConfig overrides the discipline rule deductions.
type ScoringConfig struct {
	RiskTolerance   float64 `mapstructure:"risk_tolerance"`
	RiskExceeded    int     `mapstructure:"risk_exceeded"`
	BelowMinRR      int     `mapstructure:"below_min_rr"`
	StopNotHonored  int     `mapstructure:"stop_not_honored"`
	ProfitLeft      int     `mapstructure:"profit_left"`
	NegativeTag     int     `mapstructure:"negative_tag"`
	MostNegativeTag int     `mapstructure:"most_negative_tag"`
	MissingRules    int     `mapstructure:"missing_rules"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	Currency     string  `mapstructure:"currency"`
	Rate         float64 `mapstructure:"rate"`
	Locale       string  `mapstructure:"locale"`
	ColorEnabled bool    `mapstructure:"color_enabled"`
	DateFormat   string  `mapstructure:"date_format"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// APIConfig holds the dashboard API settings.
type APIConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Metrics        bool     `mapstructure:"metrics"`
}

// AssistantConfig holds the AI assistant settings.
type AssistantConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// RatePerMinute caps model calls; 0 means unlimited.
	RatePerMinute float64 `mapstructure:"rate_per_minute"`
}

// Credentials holds API credentials.
type Credentials struct {
	OpenAI OpenAICredentials `mapstructure:"openai"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trade-journal"
	}
	return filepath.Join(home, ".config", "trade-journal")
}

// Load loads configuration from the specified directory. Missing files are
// created from templates first.
func Load(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// .env next to the config wins over one in the working directory.
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	_ = godotenv.Load()

	cfg := &Config{Dir: configDir}

	if err := loadConfigFile(configDir, "config", setConfigDefaults, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config.toml: %w", err)
	}
	if err := loadConfigFile(configDir, "settings", nil, &cfg.Settings); err != nil {
		return nil, fmt.Errorf("failed to load settings.toml: %w", err)
	}
	if err := loadConfigFile(configDir, "credentials", nil, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("failed to load credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.resolvePaths()

	return cfg, nil
}

// Default returns the configuration used when no files exist.
func Default() *Config {
	v := viper.New()
	setConfigDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	cfg.Settings = DefaultSettingsFile()
	return cfg
}

func loadConfigFile(configDir, name string, defaults func(*viper.Viper), target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	if defaults != nil {
		defaults(v)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found, create template and read it back
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func setConfigDefaults(v *viper.Viper) {
	w := scoring.DefaultWeights()

	v.SetDefault("journal.name", "main")
	v.SetDefault("journal.db_path", "journal.db")
	v.SetDefault("journal.timezone", "UTC")
	v.SetDefault("journal.trash_retention_days", 30)
	v.SetDefault("journal.workers", 4)
	v.SetDefault("journal.batch_size", 100)

	v.SetDefault("plan.account_size", 10000.0)
	v.SetDefault("plan.max_risk_percent", 1.0)
	v.SetDefault("plan.min_risk_reward", 1.5)

	v.SetDefault("scoring.risk_tolerance", w.RiskTolerance)
	v.SetDefault("scoring.risk_exceeded", w.RiskExceeded)
	v.SetDefault("scoring.below_min_rr", w.BelowMinRR)
	v.SetDefault("scoring.stop_not_honored", w.StopNotHonored)
	v.SetDefault("scoring.profit_left", w.ProfitLeft)
	v.SetDefault("scoring.negative_tag", w.NegativeTag)
	v.SetDefault("scoring.most_negative_tag", w.MostNegativeTag)
	v.SetDefault("scoring.missing_rules", w.MissingRules)

	v.SetDefault("display.currency", currency.DefaultCode)
	v.SetDefault("display.rate", 1.0)
	v.SetDefault("display.locale", currency.DefaultLocale)
	v.SetDefault("display.color_enabled", true)
	v.SetDefault("display.date_format", "2006-01-02 15:04")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", "logs/journal.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)

	v.SetDefault("api.addr", "127.0.0.1:8787")
	v.SetDefault("api.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.metrics", true)

	v.SetDefault("assistant.enabled", true)
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.max_tokens", 800)
	v.SetDefault("assistant.timeout", 60*time.Second)
	v.SetDefault("assistant.rate_per_minute", 20.0)
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Credentials.OpenAI.BaseURL = v
	}
	if v := os.Getenv("JOURNAL_DB_PATH"); v != "" {
		cfg.Journal.DBPath = v
	}
	if v := os.Getenv("JOURNAL_NAME"); v != "" {
		cfg.Journal.Name = v
	}
	if v := os.Getenv("JOURNAL_TIMEZONE"); v != "" {
		cfg.Journal.Timezone = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JOURNAL_API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("JOURNAL_CURRENCY"); v != "" {
		cfg.Display.Currency = v
	}
	if v := os.Getenv("JOURNAL_CURRENCY_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Display.Rate = rate
		}
	}
}

// resolvePaths makes relative file paths relative to the config directory.
func (c *Config) resolvePaths() {
	if c.Dir == "" {
		return
	}
	if c.Journal.DBPath != "" && c.Journal.DBPath != ":memory:" && !filepath.IsAbs(c.Journal.DBPath) {
		c.Journal.DBPath = filepath.Join(c.Dir, c.Journal.DBPath)
	}
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Dir, c.Logging.FilePath)
	}
}

// LogConfig converts the logging section for the logger.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    true,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAgeDays,
	}
}

// HasAssistant reports whether the AI assistant can be used.
func (c *Config) HasAssistant() bool {
	return c.Assistant.Enabled && c.Credentials.OpenAI.APIKey != ""
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Journal.Name) == "" {
		return &apperrors.ConfigError{File: "config.toml", Key: "journal.name", Message: "must not be empty"}
	}
	if c.Journal.TrashRetentionDays < 0 {
		return &apperrors.ConfigError{File: "config.toml", Key: "journal.trash_retention_days", Message: "must be non-negative"}
	}
	if _, err := time.LoadLocation(c.Journal.Timezone); err != nil {
		return &apperrors.ConfigError{File: "config.toml", Key: "journal.timezone", Message: err.Error()}
	}

	if c.Plan.AccountSize < 0 {
		return &apperrors.ConfigError{File: "config.toml", Key: "plan.account_size", Message: "must be non-negative"}
	}
	if c.Plan.MaxRiskPercent < 0 || c.Plan.MaxRiskPercent > 100 {
		return &apperrors.ConfigError{File: "config.toml", Key: "plan.max_risk_percent", Message: "must be between 0 and 100"}
	}
	if c.Plan.MinRiskReward < 0 {
		return &apperrors.ConfigError{File: "config.toml", Key: "plan.min_risk_reward", Message: "must be non-negative"}
	}
	if c.Plan.DailyLossLimit < 0 || c.Plan.WeeklyLossLimit < 0 {
		return &apperrors.ConfigError{File: "config.toml", Key: "plan", Message: "loss limits must be non-negative"}
	}

	if c.Scoring.RiskTolerance < 0 {
		return &apperrors.ConfigError{File: "config.toml", Key: "scoring.risk_tolerance", Message: "must be non-negative"}
	}
	for key, penalty := range map[string]int{
		"risk_exceeded":     c.Scoring.RiskExceeded,
		"below_min_rr":      c.Scoring.BelowMinRR,
		"stop_not_honored":  c.Scoring.StopNotHonored,
		"profit_left":       c.Scoring.ProfitLeft,
		"negative_tag":      c.Scoring.NegativeTag,
		"most_negative_tag": c.Scoring.MostNegativeTag,
		"missing_rules":     c.Scoring.MissingRules,
	} {
		if penalty < 0 || penalty > scoring.MaxScore {
			return &apperrors.ConfigError{File: "config.toml", Key: "scoring." + key, Message: "must be between 0 and 100"}
		}
	}

	if _, err := currency.NewFormatter(c.Display.Currency, c.Display.Locale, c.Display.Rate); err != nil {
		return &apperrors.ConfigError{File: "config.toml", Key: "display", Message: err.Error()}
	}
	if c.Display.Rate < 0 {
		return &apperrors.ConfigError{File: "config.toml", Key: "display.rate", Message: "must be non-negative"}
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return &apperrors.ConfigError{File: "config.toml", Key: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}

	return c.Settings.Validate()
}
