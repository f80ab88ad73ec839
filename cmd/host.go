package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamdash/internal/hostsim"
	"streamdash/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	hostListen        string
	hostOrigin        string
	hostStatsInterval time.Duration
	hostDebug         bool
)

// hostCmd runs the host simulator as a websocket server.
var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the simulated streaming host",
	Long: `Runs the built-in host simulator as a websocket server so that
'streamdash serve' (or any dashboard speaking the same protocol) can connect
to it without a real streaming host.

The simulator answers pipeline control, settings, clipboard and gamepad
commands, and emits stats and pipeline status on a fixed interval.

Listen address and origin default to host.listen and the origin of host.url
from the configuration.`,
	Args: cobra.NoArgs,
	RunE: runHost,
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	level := logging.ParseLevel(cfg.GlobalSettings.LogLevel)
	if hostDebug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stdout)

	addr := hostListen
	if addr == "" {
		addr = cfg.Host.Listen
	}
	origin := hostOrigin
	if origin == "" {
		origin, err = cfg.Host.ResolvedOrigin()
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return hostsim.ListenAndServe(ctx, addr, origin, hostsim.Options{
		StatsInterval: hostStatsInterval,
	})
}

func init() {
	rootCmd.AddCommand(hostCmd)

	hostCmd.Flags().StringVar(&hostListen, "listen", "", "Address to listen on (default: host.listen)")
	hostCmd.Flags().StringVar(&hostOrigin, "origin", "", "Origin to accept and stamp on messages (default: derived from host.url)")
	hostCmd.Flags().DurationVar(&hostStatsInterval, "stats-interval", hostsim.DefaultStatsInterval, "How often to emit stats")
	hostCmd.Flags().BoolVar(&hostDebug, "debug", false, "Enable debug logging")
}
