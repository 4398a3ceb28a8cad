// Package config loads the client configuration from
// ~/.config/lodo/config.json, creating a default file on first run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	// Database is the path to the local SQLite file.
	Database string
	// ServiceURL points at the friend/backup service. Empty disables
	// every network feature.
	ServiceURL string
	// FriendCode identifies this user to the service.
	FriendCode string
	// Nickname is the display name sent alongside the friend code.
	Nickname string
}

// DefaultDir returns ~/.config/lodo.
func DefaultDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "lodo"), nil
}

// Load reads config.json from dir, writing a default file when none
// exists yet. dbPath, when non-empty, overrides the configured database
// location.
func Load(dir, dbPath string) (Config, error) {
	config := Config{
		Database: filepath.Join(dir, "lodo.db"),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, create default config
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return config, err
		}
		v.Set("database", config.Database)
		v.Set("service_url", "")
		v.Set("friend_code", "")
		v.Set("nickname", "")
		if err := v.WriteConfigAs(filepath.Join(dir, "config.json")); err != nil {
			return config, fmt.Errorf("write default config: %w", err)
		}
	}

	// Override with command-line flag if provided
	if dbPath != "" {
		config.Database = dbPath
	} else if v.IsSet("database") && v.GetString("database") != "" {
		config.Database = v.GetString("database")
	}

	config.ServiceURL = v.GetString("service_url")
	config.FriendCode = v.GetString("friend_code")
	config.Nickname = v.GetString("nickname")

	return config, nil
}
