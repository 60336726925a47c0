package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/ripview/internal/layers"
)

// FileName is the default config file in the working directory.
const FileName = ".ripview.yml"

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: RIPVIEW_BENCHMARK__ITERATIONS -> benchmark.iterations.
const EnvPrefix = "RIPVIEW_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (RIPVIEW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service_url is required")
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid service_url %q: must be an http(s) URL", c.ServiceURL)
	}

	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout must be non-negative")
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}

	if c.SearchDebounceMS < 0 {
		return fmt.Errorf("search_debounce must be non-negative")
	}

	if _, err := c.Layers(); err != nil {
		return fmt.Errorf("default_layers: %w", err)
	}

	if c.Benchmark.Iterations < 1 {
		return fmt.Errorf("benchmark.iterations must be at least 1")
	}

	return nil
}

// Layers parses DefaultLayers.
func (c *Config) Layers() ([]layers.Layer, error) {
	return layers.ParseList(c.DefaultLayers)
}
