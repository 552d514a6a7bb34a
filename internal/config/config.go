// Package config loads client configuration from an ailink.yaml file and the
// environment. Precedence (highest to lowest): env vars > config file >
// defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ailink-labs/ailink/pkg/adapter"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Server locates the semantic-layer service.
type Server struct {
	URL          string `koanf:"url"`
	Organization string `koanf:"organization"`

	// Project is the published project name queries run against.
	Project string `koanf:"project"`
	Token   string `koanf:"token"`
}

// Warehouse selects the writeback target. Type is an adapter registry key
// ("postgres", "duckdb"); DSN is passed to the adapter's Connect.
type Warehouse struct {
	ID        string `koanf:"id"`
	Type      string `koanf:"type"`
	DSN       string `koanf:"dsn"`
	Database  string `koanf:"database"`
	Schema    string `koanf:"schema"`
	ChunkSize int    `koanf:"chunk_size"`
}

// Config holds the client configuration.
type Config struct {
	Server    Server    `koanf:"server"`
	Warehouse Warehouse `koanf:"warehouse"`
	Verbose   bool      `koanf:"verbose"`
}

// findConfigFile returns the config file to use.
// Priority: explicit path > ailink.yaml > ailink.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range []string{"ailink.yaml", "ailink.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads the config file (explicit path, or ailink.yaml/ailink.yml in
// the working directory) and applies AILINK_-prefixed environment variables
// on top. A missing config file is not an error; env vars alone can carry a
// full configuration.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if cfgFile := findConfigFile(path); cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}

	// AILINK_SERVER_URL -> server.url, AILINK_WAREHOUSE_CHUNK_SIZE ->
	// warehouse.chunk_size. Sections are single words, so only the first
	// underscore separates section from key.
	if err := k.Load(env.Provider("AILINK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "AILINK_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset fields that have a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Warehouse.ChunkSize <= 0 {
		c.Warehouse.ChunkSize = adapter.DefaultChunkSize
	}
	if c.Warehouse.Type == "" {
		c.Warehouse.Type = "postgres"
	}
}

// Validate checks that the fields every service call needs are present,
// aggregating all missing fields into one error.
func (c *Config) Validate() error {
	var missing []string
	if c.Server.URL == "" {
		missing = append(missing, "server.url")
	}
	if c.Server.Organization == "" {
		missing = append(missing, "server.organization")
	}
	if c.Server.Project == "" {
		missing = append(missing, "server.project")
	}
	if len(missing) > 0 {
		return core.UserErrorf("missing required config fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
