package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8000,
			Host: "localhost",
		},
		Tools: ToolsConfig{
			Dir: "./configs/tools",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:       "./data/curves",
				SeedCurves: true,
			},
			Cache: CurveCacheConfig{
				TTLSeconds: 300,
				MaxEntries: 64,
			},
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}
