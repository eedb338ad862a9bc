// Package config loads appguard configuration via viper.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds daemon and storage settings. Business-rule durations
// (lock, grace, de-dup windows) are fixed constants, not configuration.
type Config struct {
	DataDir           string            `mapstructure:"data_dir"`
	Store             string            `mapstructure:"store"` // "file" or "encrypted"
	LogPath           string            `mapstructure:"log_path"`
	PollIntervalMS    int               `mapstructure:"poll_interval_ms"`
	DecaySweepHours   int               `mapstructure:"decay_sweep_hours"`
	CreditExpiryHours int               `mapstructure:"credit_expiry_hours"`
	SelfIDs           []string          `mapstructure:"self_ids"`
	Labels            map[string]string `mapstructure:"labels"`
}

// LoadConfig reads the config file (or defaults) with APPGUARD_ env
// overrides.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/appguard")
		v.AddConfigPath("/etc/appguard/")
	}

	v.SetEnvPrefix("APPGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("store", "file")
	v.SetDefault("log_path", "")
	v.SetDefault("poll_interval_ms", 2000)
	v.SetDefault("decay_sweep_hours", 6)
	v.SetDefault("credit_expiry_hours", 48)
	v.SetDefault("self_ids", []string{"appguard"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.PollIntervalMS < 100 {
		log.Println("Warning: poll_interval_ms too low, setting to 100")
		cfg.PollIntervalMS = 100
	}
	if cfg.Store != "file" && cfg.Store != "encrypted" {
		log.Printf("Warning: invalid store %q, defaulting to 'file'", cfg.Store)
		cfg.Store = "file"
	}
	if cfg.DecaySweepHours < 1 {
		cfg.DecaySweepHours = 6
	}
	if cfg.CreditExpiryHours < 1 {
		cfg.CreditExpiryHours = 48
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(cfg.DataDir, "appguard.log")
	}

	return &cfg, nil
}

// PollInterval returns the process-feed polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// DecaySweepInterval returns the decay sweep interval.
func (c *Config) DecaySweepInterval() time.Duration {
	return time.Duration(c.DecaySweepHours) * time.Hour
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/tmp/appguard"
	}
	return filepath.Join(home, ".local", "share", "appguard")
}
