package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamdash/internal/dashboard"
	"streamdash/internal/tui"
	"streamdash/pkg/logging"
)

// statusInterval is how often CLI mode logs a session summary.
const statusInterval = 10 * time.Second

// runCLIMode executes the non-interactive command line mode
func runCLIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Info("CLI", "Running in no-TUI mode.")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := services.Start(ctx); err != nil {
		logging.Error("CLI", err, "Failed to start session")
		return err
	}
	logging.Info("CLI", "Session running. Press Ctrl+C to stop.")

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Info("CLI", "--- Shutting down session ---")
			return nil
		case <-ticker.C:
			logSummary(services.Dashboard.Snapshot())
		}
	}
}

// logSummary writes a one-line view of the session.
func logSummary(s dashboard.State) {
	t := s.Telemetry
	logging.Info("CLI", "encoder=%s fps=%s cpu=%s gpu=%s video=%t audio=%t mic=%t notifications=%d sent=%d received=%d",
		s.Settings.Encoder, t.FPS.Display, t.CPU.Display, t.GPU.Display,
		s.Pipelines.Video, s.Pipelines.Audio, s.Pipelines.Microphone,
		len(s.Notifications), s.Channel.Sent, s.Channel.Received)
	for _, n := range s.Notifications {
		logging.Debug("CLI", "notification %s [%s] %.0f%% %s", n.Label, n.Status, n.Progress, n.Message)
	}
}

// runTUIMode executes the interactive terminal UI mode
func runTUIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Info("CLI", "Starting TUI mode...")

	// Switch logging to channel-based system for TUI integration
	logChan := logging.InitForTUI(logLevel(config, config.StreamdashConfig.GlobalSettings.LogLevel))
	defer logging.CloseTUIChannel()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := services.Start(ctx); err != nil {
		logging.Error("TUI-Lifecycle", err, "Failed to start session")
		return err
	}

	title := "streamdash"
	if config.Demo {
		title += " (demo)"
	}
	p := tui.NewProgram(tui.Config{
		Dashboard: services.Dashboard,
		Debug:     config.Debug,
		Title:     title,
	}, logChan)

	// Run the TUI until user exits
	if _, err := p.Run(); err != nil {
		logging.Error("TUI-Lifecycle", err, "Error running TUI program")
		return err
	}
	logging.Info("TUI-Lifecycle", "TUI exited.")
	return nil
}
