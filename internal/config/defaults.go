package config

import "path/filepath"

// GetDefaultConfig returns the built-in configuration: a local host on
// port 8081, badger storage under the user config directory and the MCP
// server disabled.
func GetDefaultConfig() StreamdashConfig {
	storagePath := filepath.Join(projectConfigDir, "data")
	if dir, err := GetUserConfigDir(); err == nil {
		storagePath = filepath.Join(dir, "data")
	}

	disabled := false
	return StreamdashConfig{
		GlobalSettings: GlobalSettings{
			LogLevel: "info",
		},
		Host: HostConfig{
			URL:    "ws://localhost:8081/ws",
			Listen: "localhost:8081",
		},
		Storage: StorageConfig{
			Backend: StorageBadger,
			Path:    storagePath,
		},
		Catalog: CatalogConfig{
			Retries: 2,
		},
		Gamepad: GamepadConfig{
			TouchTarget: "gamepad-touch-surface",
		},
		MCP: MCPConfig{
			Enabled: &disabled,
			Host:    "localhost",
			Port:    8092,
		},
	}
}
