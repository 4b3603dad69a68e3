package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the radixengine configuration file
// (~/.config/radixengine/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	Backend string `yaml:"backend"`
	Devices string `yaml:"devices"`

	// Shape defaults
	Size    *int64 `yaml:"size"`
	Blocks  *int64 `yaml:"blocks"`
	Variant string `yaml:"variant"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "radixengine", "config.yaml")
}

// applyEngineConfig applies config file defaults to the shared engine flags
// when the corresponding CLI flag was not explicitly set.
func applyEngineConfig(c *cli.Command, cfg Config) {
	if cfg.Backend != "" && !c.IsSet("backend") {
		backend = cfg.Backend
	}
	if cfg.Devices != "" && !c.IsSet("devices") {
		deviceSpec = cfg.Devices
	}
	if cfg.Size != nil && !c.IsSet("size") {
		ringSize = *cfg.Size
	}
	if cfg.Blocks != nil && !c.IsSet("blocks") {
		blocks = *cfg.Blocks
	}
	if cfg.Variant != "" && !c.IsSet("variant") {
		variant = cfg.Variant
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyEngineConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file
// doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
