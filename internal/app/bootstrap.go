package app

import (
	"context"
	"fmt"
	"os"

	"streamdash/internal/config"
	"streamdash/pkg/logging"
)

// Application is the main application structure that bootstraps and runs streamdash
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	// Initialize logging for CLI output (will be replaced for TUI mode)
	logging.InitForCLI(logLevel(cfg, ""), os.Stdout)

	var sdCfg config.StreamdashConfig
	var err error
	if cfg.ConfigPath != "" {
		sdCfg, err = config.LoadConfigFromPath(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
		}
		logging.Info("Bootstrap", "Loaded configuration from custom path: %s", cfg.ConfigPath)
	} else {
		sdCfg, err = config.LoadConfig()
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		logging.Debug("Bootstrap", "Loaded configuration using layered approach")
	}
	if cfg.Demo {
		// The demo never needs a disk store.
		sdCfg.Storage.Backend = config.StorageMemory
	}
	cfg.StreamdashConfig = &sdCfg

	// Config may raise or lower the level picked from the flags.
	logging.InitForCLI(logLevel(cfg, sdCfg.GlobalSettings.LogLevel), os.Stdout)

	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// logLevel is debug when the flag is set, otherwise the configured level.
func logLevel(cfg *Config, configured string) logging.LogLevel {
	if cfg.Debug {
		return logging.LevelDebug
	}
	return logging.ParseLevel(configured)
}

// Run executes the application in the appropriate mode
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.services.Close(); err != nil {
			logging.Error("Bootstrap", err, "Error during shutdown")
		}
	}()
	if a.config.NoTUI {
		return runCLIMode(ctx, a.config, a.services)
	}
	return runTUIMode(ctx, a.config, a.services)
}
