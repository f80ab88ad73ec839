package cmd

import (
	"context"
	"fmt"

	"streamdash/internal/app"

	"github.com/spf13/cobra"
)

// serveNoTUI runs the session headless, logging a periodic summary.
var serveNoTUI bool

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveDemo replaces the remote host with the in-process simulator.
var serveDemo bool

// serveCmd connects a dashboard to a streaming host.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to a streaming host with an interactive TUI or CLI mode.",
	Long: `Connects to the streaming host configured under host.url and runs the
dashboard session. It can run in two modes:

1. Interactive TUI Mode (default):
   - Shows stream settings, telemetry, host pipelines, gamepads,
     notifications and the app catalog.
   - Keys step settings, toggle pipelines and drive the clipboard,
     resolution and catalog.

2. Non-TUI / CLI Mode (using --no-tui flag):
   - Runs the same session in the background and logs a summary every
     few seconds until interrupted (e.g., Ctrl+C).

With --demo the dashboard talks to a simulated host running in the same
process, and nothing is written to disk.

When mcp.enabled is set in the configuration the session's intents are also
served as MCP tools; 'streamdash ctl' talks to them.

Configuration:
  streamdash loads configuration from ~/.config/streamdash/config.yaml and
  .streamdash/config.yaml in the current directory, or from --config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveNoTUI, serveDebug, serveDemo)
	cfg.ConfigPath = configPath
	cfg.Version = rootCmd.Version

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoTUI, "no-tui", false, "Disable TUI and run the session in the background")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable general debug logging")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "Run against the built-in host simulator")
}
