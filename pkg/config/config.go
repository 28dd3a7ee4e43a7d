package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the optional config file read from the working directory
const FileName = "dataflows.toml"

// EnvPrefix prefixes environment overrides, e.g. DATAFLOWS_PORT=9090
const EnvPrefix = "DATAFLOWS_"

// Config holds all configuration for the server and the CLI
type Config struct {
	Addr      string `koanf:"addr"`
	Port      int    `koanf:"port"`
	Store     string `koanf:"store"`
	Path      string `koanf:"path"`
	Redis     string `koanf:"redis"`
	Watch     bool   `koanf:"watch"`
	Endpoint  string `koanf:"endpoint"`
	Verbosity string `koanf:"verbosity"`
	Verbose   int    `koanf:"verbose"`
	JSON      bool   `koanf:"json"`
}

// Defaults returns the built-in values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"addr":      "",
		"port":      8080,
		"store":     "memory",
		"path":      "scenes",
		"redis":     "127.0.0.1:6379",
		"watch":     false,
		"endpoint":  "http://127.0.0.1:8080",
		"verbosity": "",
		"verbose":   0,
		"json":      false,
	}
}

// ListenAddr returns host:port for the server
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(FileName, f)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(path), toml.Parser())

	// 3. Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
