package app

import (
	"streamdash/internal/config"
)

// Config holds the application configuration
type Config struct {
	// UI mode
	NoTUI bool

	// Debug settings
	Debug bool

	// Demo runs against an in-process simulated host instead of dialing
	// Host.URL.
	Demo bool

	// ConfigPath, when set, replaces the layered config lookup.
	ConfigPath string

	// Version is reported by the MCP server.
	Version string

	// Loaded configuration
	StreamdashConfig *config.StreamdashConfig
}

// NewConfig creates a new application configuration
func NewConfig(noTUI, debug, demo bool) *Config {
	return &Config{
		NoTUI: noTUI,
		Debug: debug,
		Demo:  demo,
	}
}
