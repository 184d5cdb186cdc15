// Package config loads settings for the substr command.
//
// Settings come from a single YAML file named by the --config flag or, when
// the flag is absent, the SUBSTR_CONFIG environment variable. Without either,
// defaults apply. Command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/axiomhq/substr/internal/compress"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SUBSTR_CONFIG"

// Config holds the settings for packing a collection.
type Config struct {
	// Compression is the payload compression: none, lz4 or zstd.
	Compression string `yaml:"compression"`

	// Verify checks every string after building.
	Verify bool `yaml:"verify"`

	// Progress logs build phases.
	Progress bool `yaml:"progress"`

	// TrimSpace strips leading and trailing white space from input lines.
	TrimSpace bool `yaml:"trim_space"`

	// SkipEmpty drops empty input lines instead of storing empty strings.
	SkipEmpty bool `yaml:"skip_empty"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Compression: compress.Zstd.String(),
		Verify:      true,
	}
}

// Load reads the config file at path, or at $SUBSTR_CONFIG if path is
// empty. Missing keys keep their defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	_, err := c.CompressionTag()
	return err
}

// CompressionTag returns the parsed compression setting.
func (c Config) CompressionTag() (compress.Tag, error) {
	return compress.Parse(c.Compression)
}
