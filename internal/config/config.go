package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Tools   ToolsConfig   `toml:"tools"`
	Storage StorageConfig `toml:"storage"`
	MCP     MCPConfig     `toml:"mcp"`
	Logging LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// ToolsConfig points at the directory of tool definition files.
type ToolsConfig struct {
	Dir string `toml:"dir"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig     `toml:"badger"`
	Cache  CurveCacheConfig `toml:"cache"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
	// SeedCurves installs the built-in fan performance curves when they are absent.
	SeedCurves bool `toml:"seed_curves"`
}

// CurveCacheConfig sizes the in-memory cache in front of the curve store.
// A zero TTL disables caching.
type CurveCacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
	MaxEntries int `toml:"max_entries"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `toml:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> .env -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies CALC_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("CALC_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CALC_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if dir := os.Getenv("CALC_TOOLS_DIR"); dir != "" {
		config.Tools.Dir = dir
	}
	if badgerPath := os.Getenv("CALC_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if seed := os.Getenv("CALC_SEED_CURVES"); seed != "" {
		if b, err := strconv.ParseBool(seed); err == nil {
			config.Storage.Badger.SeedCurves = b
		}
	}
	if ttl := os.Getenv("CALC_CURVE_CACHE_TTL"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil {
			config.Storage.Cache.TTLSeconds = n
		}
	}
	if mcp := os.Getenv("CALC_MCP_ENABLED"); mcp != "" {
		if b, err := strconv.ParseBool(mcp); err == nil {
			config.MCP.Enabled = b
		}
	}
	if level := os.Getenv("CALC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if outputs := os.Getenv("CALC_LOG_OUTPUTS"); outputs != "" {
		config.Logging.Outputs = strings.Split(outputs, ",")
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host, toolsDir string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if toolsDir != "" {
		config.Tools.Dir = toolsDir
	}
}

// Validate returns human-readable problems with mandatory settings.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range (1-65535)", c.Server.Port))
	}
	if strings.TrimSpace(c.Tools.Dir) == "" {
		issues = append(issues, "tools.dir is required")
	}
	if strings.TrimSpace(c.Storage.Badger.Path) == "" {
		issues = append(issues, "storage.badger.path is required")
	}
	if c.Storage.Cache.TTLSeconds > 0 && c.Storage.Cache.MaxEntries <= 0 {
		issues = append(issues, "storage.cache.max_entries must be positive when caching is enabled")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level))
	}
	return issues
}
