package cmd

import (
	"os"

	"streamdash/internal/config"

	"github.com/spf13/cobra"
)

// configPath overrides the layered configuration lookup for every command.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "streamdash",
	Short: "Terminal dashboard for a remote desktop streaming host",
	Long: `streamdash drives the control side of a remote desktop streaming session:
stream settings, host pipelines, telemetry, gamepads, clipboard, resolution
and the application catalog, all over the host's message channel.

Run 'streamdash serve' to connect to a host, or 'streamdash serve --demo'
to try it against the built-in host simulator.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid arguments, failed connections)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "streamdash version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

// loadConfig honours --config, falling back to the layered lookup.
func loadConfig() (config.StreamdashConfig, error) {
	if configPath != "" {
		return config.LoadConfigFromPath(configPath)
	}
	return config.LoadConfig()
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: layered ~/.config/streamdash/config.yaml and ./.streamdash/config.yaml)")
}
