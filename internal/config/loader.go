package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/streamdash"
	projectConfigDir = ".streamdash"
	configFileName   = "config.yaml"
)

// LoadConfig loads the streamdash configuration by layering default, user, and project settings.
func LoadConfig() (StreamdashConfig, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// user config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
		userConfig, err := loadConfigFromFile(userConfigPath)
		if err != nil {
			return StreamdashConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
		}
		config = mergeConfigs(config, userConfig)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
		projectConfig, err := loadConfigFromFile(projectConfigPath)
		if err != nil {
			return StreamdashConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
		}
		config = mergeConfigs(config, projectConfig)
	}

	config.Storage.Path, err = expandHome(config.Storage.Path)
	if err != nil {
		return StreamdashConfig{}, err
	}
	if err := config.Validate(); err != nil {
		return StreamdashConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadConfigFromPath loads defaults overlaid with a single config file,
// skipping the user and project layers.
func LoadConfigFromPath(filePath string) (StreamdashConfig, error) {
	fileConfig, err := loadConfigFromFile(filePath)
	if err != nil {
		return StreamdashConfig{}, fmt.Errorf("error loading config from %s: %w", filePath, err)
	}
	config := mergeConfigs(GetDefaultConfig(), fileConfig)

	config.Storage.Path, err = expandHome(config.Storage.Path)
	if err != nil {
		return StreamdashConfig{}, err
	}
	if err := config.Validate(); err != nil {
		return StreamdashConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a StreamdashConfig from a YAML file.
func loadConfigFromFile(filePath string) (StreamdashConfig, error) {
	var config StreamdashConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return StreamdashConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return StreamdashConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Empty overlay
// fields keep the base value; pointer fields override only when set.
func mergeConfigs(base, overlay StreamdashConfig) StreamdashConfig {
	merged := base

	if overlay.GlobalSettings.LogLevel != "" {
		merged.GlobalSettings.LogLevel = overlay.GlobalSettings.LogLevel
	}

	if overlay.Host.URL != "" {
		merged.Host.URL = overlay.Host.URL
	}
	if overlay.Host.Origin != "" {
		merged.Host.Origin = overlay.Host.Origin
	}
	if overlay.Host.Listen != "" {
		merged.Host.Listen = overlay.Host.Listen
	}

	if overlay.Storage.Backend != "" {
		merged.Storage.Backend = overlay.Storage.Backend
	}
	if overlay.Storage.Path != "" {
		merged.Storage.Path = overlay.Storage.Path
	}

	if overlay.Catalog.URL != "" {
		merged.Catalog.URL = overlay.Catalog.URL
	}
	if overlay.Catalog.Retries != 0 {
		merged.Catalog.Retries = overlay.Catalog.Retries
	}

	if overlay.Gamepad.TouchTarget != "" {
		merged.Gamepad.TouchTarget = overlay.Gamepad.TouchTarget
	}
	if overlay.Gamepad.Mobile != nil {
		merged.Gamepad.Mobile = overlay.Gamepad.Mobile
	}
	if overlay.Gamepad.UserAgent != "" {
		merged.Gamepad.UserAgent = overlay.Gamepad.UserAgent
	}

	if overlay.MCP.Enabled != nil {
		merged.MCP.Enabled = overlay.MCP.Enabled
	}
	if overlay.MCP.Host != "" {
		merged.MCP.Host = overlay.MCP.Host
	}
	if overlay.MCP.Port != 0 {
		merged.MCP.Port = overlay.MCP.Port
	}

	return merged
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
