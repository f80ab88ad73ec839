package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPaths points both config layers into dir and restores them after the test.
func mockPaths(t *testing.T, dir string) {
	t.Helper()
	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	originalOsUserHomeDir := osUserHomeDir
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
		osUserHomeDir = originalOsUserHomeDir
	})

	osUserHomeDir = func() (string, error) { return dir, nil }
	getUserConfigPath = func() (string, error) {
		return filepath.Join(dir, userConfigDir, configFileName), nil
	}
	getProjectConfigPath = func() (string, error) {
		return filepath.Join(dir, "project", projectConfigDir, configFileName), nil
	}
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.GlobalSettings.LogLevel)
	assert.Equal(t, "ws://localhost:8081/ws", cfg.Host.URL)
	assert.Equal(t, StorageBadger, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(tempDir, userConfigDir, "data"), cfg.Storage.Path)
	assert.False(t, cfg.MCP.IsEnabled())
	assert.Equal(t, "localhost:8092", cfg.MCP.Addr())

	origin, err := cfg.Host.ResolvedOrigin()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081", origin)
}

func TestLoadConfig_UserThenProjectOverride(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)

	writeConfig(t, filepath.Join(tempDir, userConfigDir, configFileName), `
globalSettings:
  logLevel: debug
host:
  url: wss://stream.example.com/ws
storage:
  backend: memory
mcp:
  enabled: true
  port: 9000
gamepad:
  mobile: false
`)
	writeConfig(t, filepath.Join(tempDir, "project", projectConfigDir, configFileName), `
host:
  origin: https://dash.example.com
catalog:
  url: https://apps.example.com/catalog.yaml
mcp:
  host: 0.0.0.0
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.GlobalSettings.LogLevel)
	assert.Equal(t, "wss://stream.example.com/ws", cfg.Host.URL)
	assert.Equal(t, "https://dash.example.com", cfg.Host.Origin)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "https://apps.example.com/catalog.yaml", cfg.Catalog.URL)
	assert.Equal(t, 2, cfg.Catalog.Retries)
	assert.True(t, cfg.MCP.IsEnabled())
	assert.Equal(t, "0.0.0.0:9000", cfg.MCP.Addr())
	require.NotNil(t, cfg.Gamepad.Mobile)
	assert.False(t, *cfg.Gamepad.Mobile)
	assert.Equal(t, "gamepad-touch-surface", cfg.Gamepad.TouchTarget)
}

func TestLoadConfig_ExpandsHomeInStoragePath(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)
	writeConfig(t, filepath.Join(tempDir, userConfigDir, configFileName), "storage:\n  path: ~/streamdash-data\n")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "streamdash-data"), cfg.Storage.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "host: [unclosed"},
		{"unknown backend", "storage:\n  backend: redis\n"},
		{"bad mcp port", "mcp:\n  enabled: true\n  port: 70000\n"},
		{"host url without host", "host:\n  url: not-a-url\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			mockPaths(t, tempDir)
			writeConfig(t, filepath.Join(tempDir, userConfigDir, configFileName), tt.content)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestResolvedOrigin(t *testing.T) {
	tests := []struct {
		host HostConfig
		want string
	}{
		{HostConfig{URL: "ws://localhost:8081/ws"}, "http://localhost:8081"},
		{HostConfig{URL: "wss://stream.example.com/socket"}, "https://stream.example.com"},
		{HostConfig{URL: "ws://ignored/ws", Origin: "https://explicit.example"}, "https://explicit.example"},
	}
	for _, tt := range tests {
		got, err := tt.host.ResolvedOrigin()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	tempDir := t.TempDir()
	mockPaths(t, tempDir)
	path := filepath.Join(tempDir, "custom.yaml")
	writeConfig(t, path, "host:\n  url: wss://stream.example.com/ws\nstorage:\n  backend: memory\n")

	cfg, err := LoadConfigFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "wss://stream.example.com/ws", cfg.Host.URL)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, GetDefaultConfig().Catalog.Retries, cfg.Catalog.Retries)

	_, err = LoadConfigFromPath(filepath.Join(tempDir, "missing.yaml"))
	assert.Error(t, err)
}
