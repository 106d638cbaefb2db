// Package config holds the on-disk configuration: capture defaults and
// output preferences. Values are resolved in the usual order: flags over
// config file over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the persisted configuration.
type Config struct {
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	Extension      string `mapstructure:"extension" yaml:"extension"`
	Cursor         bool   `mapstructure:"cursor" yaml:"cursor"`
	JPEGQuality    int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	PNGCompression string `mapstructure:"png_compression" yaml:"png_compression"`
	Notify         bool   `mapstructure:"notify" yaml:"notify"`
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	FilenameFormat string `mapstructure:"filename_format" yaml:"filename_format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		Extension:      "png",
		Cursor:         false,
		JPEGQuality:    90,
		PNGCompression: "fast",
		Notify:         false,
		OutputDir:      "",
		FilenameFormat: "20060102-150405-waygrab",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "waygrab", "config.yaml")
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	defaults := Default()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("extension", defaults.Extension)
	v.SetDefault("cursor", defaults.Cursor)
	v.SetDefault("jpeg_quality", defaults.JPEGQuality)
	v.SetDefault("png_compression", defaults.PNGCompression)
	v.SetDefault("notify", defaults.Notify)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("filename_format", defaults.FilenameFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
