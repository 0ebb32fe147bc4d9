package doctool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMaxReadChars bounds read_text responses before truncation kicks in.
const DefaultMaxReadChars = 10000

// Config holds the tool server's settings, typically loaded from a YAML
// file.
type Config struct {
	Server struct {
		// Name identifies the server to MCP clients.
		Name string `yaml:"name"`
		// Version is reported during the MCP handshake.
		Version string `yaml:"version"`
	} `yaml:"server"`

	Engine struct {
		// Kind names the registered document engine to open documents
		// with.
		Kind string `yaml:"kind"`
	} `yaml:"engine"`

	Limits struct {
		// MaxReadChars caps read_text output. Longer text is truncated
		// with a hint to page through range locators.
		MaxReadChars int `yaml:"max_read_chars"`
	} `yaml:"limits"`
}

// Load reads a Config from a YAML file.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Limits.MaxReadChars < 0 {
		return fmt.Errorf("doctool: max_read_chars must be non-negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "docselect"
	}
	if c.Server.Version == "" {
		c.Server.Version = "dev"
	}
	if c.Engine.Kind == "" {
		c.Engine.Kind = "memory"
	}
	if c.Limits.MaxReadChars == 0 {
		c.Limits.MaxReadChars = DefaultMaxReadChars
	}
}
