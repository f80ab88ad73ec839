package config

import (
	"fmt"
	"net/url"
	"strings"
)

// StreamdashConfig is the top-level configuration structure for streamdash.
type StreamdashConfig struct {
	GlobalSettings GlobalSettings `yaml:"globalSettings"`
	Host           HostConfig     `yaml:"host"`
	Storage        StorageConfig  `yaml:"storage"`
	Catalog        CatalogConfig  `yaml:"catalog"`
	Gamepad        GamepadConfig  `yaml:"gamepad"`
	MCP            MCPConfig      `yaml:"mcp"`
}

// GlobalSettings holds process-wide preferences.
type GlobalSettings struct {
	LogLevel string `yaml:"logLevel,omitempty"` // debug, info, warn or error
}

// HostConfig describes the streaming host the dashboard talks to.
type HostConfig struct {
	URL    string `yaml:"url,omitempty"`    // websocket URL of the host, e.g. ws://localhost:8081/ws
	Origin string `yaml:"origin,omitempty"` // origin both ends stamp on messages; derived from URL when empty
	Listen string `yaml:"listen,omitempty"` // address `streamdash host` listens on
}

// Storage backends.
const (
	StorageBadger = "badger"
	StorageMemory = "memory"
)

// StorageConfig selects where settings and the installed-app set live.
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"` // badger directory; "~" is expanded
}

// CatalogConfig points at the remote app catalog.
type CatalogConfig struct {
	URL     string `yaml:"url,omitempty"`
	Retries int    `yaml:"retries,omitempty"`
}

// GamepadConfig configures the touch gamepad overlay.
type GamepadConfig struct {
	TouchTarget string `yaml:"touchTarget,omitempty"`
	Mobile      *bool  `yaml:"mobile,omitempty"`    // force touch mode on or off at start
	UserAgent   string `yaml:"userAgent,omitempty"` // used to guess Mobile when it is unset
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// IsEnabled reports whether the MCP server should run.
func (m MCPConfig) IsEnabled() bool {
	return m.Enabled != nil && *m.Enabled
}

// Addr is the listen address of the MCP server.
func (m MCPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// ResolvedOrigin returns Origin, or the http(s) origin matching URL.
func (h HostConfig) ResolvedOrigin() (string, error) {
	if h.Origin != "" {
		return h.Origin, nil
	}
	u, err := url.Parse(h.URL)
	if err != nil {
		return "", fmt.Errorf("parse host url %q: %w", h.URL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("host url %q has no host", h.URL)
	}
	scheme := u.Scheme
	switch scheme {
	case "ws":
		scheme = "http"
	case "wss":
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

// Validate checks the fields that cannot be defaulted sensibly.
func (c StreamdashConfig) Validate() error {
	switch c.Storage.Backend {
	case StorageBadger:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage.path is required for the %s backend", StorageBadger)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage.backend %q is not one of %s, %s", c.Storage.Backend, StorageBadger, StorageMemory)
	}
	if c.MCP.IsEnabled() && (c.MCP.Port <= 0 || c.MCP.Port > 65535) {
		return fmt.Errorf("mcp.port %d is out of range", c.MCP.Port)
	}
	if c.Catalog.Retries < 0 {
		return fmt.Errorf("catalog.retries must not be negative")
	}
	if _, err := c.Host.ResolvedOrigin(); err != nil {
		return err
	}
	return nil
}
