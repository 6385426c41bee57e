// Package config loads workspace settings from .lattice/config.yaml
// with LATTICE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds workspace-level settings. All fields have working
// defaults so a missing config file is not an error.
type Config struct {
	Version       int    `mapstructure:"version"`
	Author        string `mapstructure:"author"`
	ExportTitle   string `mapstructure:"export_title"`
	Audience      string `mapstructure:"audience"`
	UpdateCheck   bool   `mapstructure:"update_check"`
	DefaultFormat string `mapstructure:"default_format"`
}

// Load reads the config file under the workspace root (the .lattice
// directory). Environment variables prefixed LATTICE_ override file
// values (e.g. LATTICE_AUTHOR, LATTICE_UPDATE_CHECK).
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetDefault("version", 1)
	// Empty defaults register the keys so AutomaticEnv covers them too.
	v.SetDefault("author", "")
	v.SetDefault("export_title", "")
	v.SetDefault("audience", "overview")
	v.SetDefault("update_check", true)
	v.SetDefault("default_format", "text")

	v.SetEnvPrefix("LATTICE")
	v.AutomaticEnv()

	path := filepath.Join(root, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
