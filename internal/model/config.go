package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// RulesConfig holds the notification rule parameters.
type RulesConfig struct {
	// UpcomingDays is how many days ahead a deadline triggers a reminder.
	UpcomingDays int `mapstructure:"upcoming_days" yaml:"upcoming_days"`

	// InactiveDays is how long an open task may go without updates.
	InactiveDays int `mapstructure:"inactive_days" yaml:"inactive_days"`

	// BudgetThreshold is the share of the budget (0.8 = 80%) at which
	// a budget warning fires.
	BudgetThreshold float64 `mapstructure:"budget_threshold" yaml:"budget_threshold"`
}

// SchedulerConfig controls the periodic rule runs.
type SchedulerConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DigestConfig describes the IMAP mailbox that receives notification digests.
// The password is never stored here; it lives in the system keyring.
type DigestConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	From     string `mapstructure:"from" yaml:"from"`
	To       string `mapstructure:"to" yaml:"to"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Rules     RulesConfig     `mapstructure:"rules" yaml:"rules"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Digest    DigestConfig    `mapstructure:"digest" yaml:"digest"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/projectpulse/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "projectpulse", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/projectpulse/pulse.db,
// honouring XDG_DATA_HOME.
func DefaultDatabasePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "pulse.db"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "projectpulse", "pulse.db")
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("rules.upcoming_days", 3)
	v.SetDefault("rules.inactive_days", 7)
	v.SetDefault("rules.budget_threshold", 0.8)
	v.SetDefault("scheduler.interval_sec", 3600)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("digest.host", "")
	v.SetDefault("digest.port", "993")
	v.SetDefault("digest.username", "")
	v.SetDefault("digest.mailbox", "INBOX")
	v.SetDefault("digest.from", "")
	v.SetDefault("digest.to", "")
	v.SetDefault("digest.tls", true)
}

// NewViper returns a viper instance reading the YAML file at path, with
// defaults applied and PULSE_* environment overrides enabled.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("pulse")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error; defaults are used instead.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(path))
}

// LoadConfigFrom decodes the configuration held by v, reading its config
// file first when one is set and present.
func LoadConfigFrom(v *viper.Viper) (*AppConfig, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", v.ConfigFileUsed(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects rule parameters the engine cannot use.
func (c *AppConfig) Validate() error {
	if c.Rules.UpcomingDays < 0 {
		return fmt.Errorf("rules.upcoming_days must not be negative")
	}
	if c.Rules.InactiveDays < 0 {
		return fmt.Errorf("rules.inactive_days must not be negative")
	}
	if c.Rules.BudgetThreshold <= 0 {
		return fmt.Errorf("rules.budget_threshold must be positive")
	}
	if c.Scheduler.IntervalSec <= 0 {
		return fmt.Errorf("scheduler.interval_sec must be positive")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("rules", cfg.Rules)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("server", cfg.Server)
	v.Set("log", cfg.Log)
	v.Set("digest", cfg.Digest)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
