package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable the shared library reads its
// config file path from.
const EnvPath = "DEVDISPLAY_CONFIG"

// Config represents the top-level configuration structure.
type Config struct {
	Sinks     []string `toml:"sinks" yaml:"sinks"`
	Output    string   `toml:"output" yaml:"output"`
	MaxLength int      `toml:"max_length" yaml:"max_length"`
	LogLevel  string   `toml:"log_level" yaml:"log_level"`
	LogFormat string   `toml:"log_format" yaml:"log_format"`
	AppName   string   `toml:"app_name" yaml:"app_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Sinks:     []string{"console"},
		Output:    "stdout",
		MaxLength: 4096,
		LogLevel:  "warn",
		LogFormat: "console",
		AppName:   "devdisplay",
	}
}

// Load reads the configuration from the specified path.
// It detects the format based on the file extension (.toml, .yaml or .yml).
// Keys missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		return LoadTOML(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// LoadTOML reads a TOML configuration file.
func LoadTOML(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadYAML reads a YAML configuration file.
func LoadYAML(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by EnvPath, or returns Default when the
// variable is unset or empty.
func FromEnv() (*Config, error) {
	path := os.Getenv(EnvPath)
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Sinks) == 0 {
		return fmt.Errorf("at least one sink is required")
	}
	for _, s := range c.Sinks {
		switch s {
		case "console", "json", "desktop", "discard":
		default:
			return fmt.Errorf("invalid sink %q (expected console, json, desktop or discard)", s)
		}
	}
	switch c.Output {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("invalid output %q (expected stdout or stderr)", c.Output)
	}
	if c.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format %q (expected console or json)", c.LogFormat)
	}
	return nil
}
