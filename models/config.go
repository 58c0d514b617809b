// Package models defines configuration and report structures shared by the
// command actions.
package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when --config is not given. Its absence is not an error.
const DefaultConfigFile = "ptally.yaml"

// Config holds settings read from the YAML config file. CLI flags override
// any value set here.
type Config struct {
	Suffix         string        `yaml:"suffix"`
	OutputDir      string        `yaml:"output_dir"`
	Strict         *bool         `yaml:"strict"`
	Format         string        `yaml:"format"`
	PrintMode      int           `yaml:"print_mode"`
	Top            int           `yaml:"top"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	CacheDir       string        `yaml:"cache_dir"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	DetectLanguage bool          `yaml:"detect_language"`
	AddressPattern string        `yaml:"address_pattern"`
	UserPattern    string        `yaml:"user_pattern"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() *Config {
	strict := true
	return &Config{
		Suffix:      "_wc.txt",
		OutputDir:   ".",
		Strict:      &strict,
		Format:      "text",
		PrintMode:   0,
		Top:         25,
		HTTPTimeout: 30 * time.Second,
		CacheDir:    ".ptally-cache",
		CacheTTL:    24 * time.Hour,
	}
}

// IsStrict reports whether merges abort on the first malformed record.
func (c *Config) IsStrict() bool {
	return c.Strict == nil || *c.Strict
}

// LoadConfig reads path over the defaults. A missing file is only an error
// when required is true.
func LoadConfig(path string, required bool) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks values that would otherwise fail later in a run.
func (c *Config) Validate() error {
	if c.Suffix == "" {
		return errors.New("suffix must not be empty")
	}
	if _, err := ParseOutputFormat(c.Format); err != nil {
		return err
	}
	if c.Top < 0 {
		return fmt.Errorf("top must be >= 0, got %d", c.Top)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must be >= 0, got %s", c.HTTPTimeout)
	}
	return nil
}
