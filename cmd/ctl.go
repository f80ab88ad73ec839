package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"streamdash/internal/cli"
	"streamdash/internal/config"
	"streamdash/internal/resolution"

	"github.com/spf13/cobra"
)

var (
	ctlOutputFormat string
	ctlQuiet        bool
	ctlEndpoint     string
)

// ctlCmd drives a running `streamdash serve` through its MCP tools.
var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running dashboard session",
	Long: `Control the dashboard session of a running 'streamdash serve'.

The serve process must have mcp.enabled set; ctl connects to its MCP
endpoint at mcp.host:mcp.port (or --endpoint) and calls the same intents
the TUI keys drive.

Available commands:
  tools                      - List the tools the session exposes
  get [key]                  - Show one setting or all of them
  set <key> <value>          - Change a setting
  resolution <WxH>           - Request a resolution
  resolution reset           - Follow the window size again
  toggle <pipeline>          - Toggle video, audio or microphone on the host
  notifications              - List notifications
  telemetry                  - Show the latest telemetry gauges
  gamepads                   - Show gamepad slots
  apps                       - List the catalog with installed marks
  install <app> / remove <app>
  audio                      - List local audio devices
  audio-select <input|output> <deviceId>
                             - Tell the host which audio device to use`,
}

func init() {
	rootCmd.AddCommand(ctlCmd)

	ctlCmd.PersistentFlags().StringVarP(&ctlOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	ctlCmd.PersistentFlags().BoolVarP(&ctlQuiet, "quiet", "q", false, "Suppress non-essential output")
	ctlCmd.PersistentFlags().StringVar(&ctlEndpoint, "endpoint", "", "MCP SSE endpoint (default: from mcp.host and mcp.port)")

	ctlCmd.AddCommand(
		&cobra.Command{
			Use:   "tools",
			Short: "List the tools the session exposes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				e, err := connectExecutor(cmd)
				if err != nil {
					return err
				}
				defer e.Close()
				return e.ListTools(cmd.Context())
			},
		},
		ctlToolCmd("get [key]", "Show one setting or all of them", cobra.MaximumNArgs(1), "settings_get",
			func(args []string) (map[string]interface{}, error) {
				if len(args) == 0 {
					return nil, nil
				}
				return map[string]interface{}{"key": args[0]}, nil
			}),
		ctlToolCmd("set <key> <value>", "Change a setting", cobra.ExactArgs(2), "settings_set",
			func(args []string) (map[string]interface{}, error) {
				return map[string]interface{}{"key": args[0], "value": args[1]}, nil
			}),
		newCtlResolutionCmd(),
		ctlToolCmd("toggle <pipeline>", "Toggle video, audio or microphone on the host", cobra.ExactArgs(1), "pipeline_toggle",
			func(args []string) (map[string]interface{}, error) {
				return map[string]interface{}{"pipeline": args[0]}, nil
			}),
		ctlToolCmd("notifications", "List notifications", cobra.NoArgs, "notifications_list", noArgs),
		ctlToolCmd("telemetry", "Show the latest telemetry gauges", cobra.NoArgs, "telemetry_snapshot", noArgs),
		ctlToolCmd("gamepads", "Show gamepad slots", cobra.NoArgs, "gamepad_state", noArgs),
		ctlToolCmd("apps", "List the catalog with installed marks", cobra.NoArgs, "catalog_list", noArgs),
		ctlToolCmd("install <app>", "Install or update an application", cobra.ExactArgs(1), "app_install", appArgs),
		ctlToolCmd("remove <app>", "Remove an application", cobra.ExactArgs(1), "app_remove", appArgs),
		ctlToolCmd("audio", "List local audio devices", cobra.NoArgs, "audio_devices", noArgs),
		ctlToolCmd("audio-select <input|output> <deviceId>", "Tell the host which audio device to use", cobra.ExactArgs(2), "audio_select", audioSelectArgs),
	)
}

func noArgs([]string) (map[string]interface{}, error) { return nil, nil }

func appArgs(args []string) (map[string]interface{}, error) {
	return map[string]interface{}{"name": args[0]}, nil
}

func audioSelectArgs(args []string) (map[string]interface{}, error) {
	switch args[0] {
	case "input", "output":
	default:
		return nil, fmt.Errorf("expected input or output, got %q", args[0])
	}
	return map[string]interface{}{"context": args[0], "deviceId": args[1]}, nil
}

// ctlToolCmd builds a subcommand that calls one tool with arguments built
// from the command line.
func ctlToolCmd(use, short string, positional cobra.PositionalArgs, tool string, build func([]string) (map[string]interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  positional,
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := build(args)
			if err != nil {
				return err
			}
			e, err := connectExecutor(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Execute(cmd.Context(), tool, toolArgs)
		},
	}
}

func newCtlResolutionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolution <WxH|reset>",
		Short: "Request a resolution or follow the window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, toolArgs, err := resolutionToolArgs(args[0])
			if err != nil {
				return err
			}
			e, err := connectExecutor(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.Execute(cmd.Context(), tool, toolArgs)
		},
	}
}

// resolutionToolArgs maps "reset" or "WxH" to a tool call. Known presets are
// requested as such.
func resolutionToolArgs(arg string) (string, map[string]interface{}, error) {
	if arg == "reset" {
		return "resolution_reset", nil, nil
	}
	w, h, found := strings.Cut(strings.ToLower(arg), "x")
	if !found {
		return "", nil, fmt.Errorf("expected WIDTHxHEIGHT or reset, got %q", arg)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil {
		return "", nil, fmt.Errorf("expected WIDTHxHEIGHT, got %q", arg)
	}
	if slices.Contains(resolution.Presets, arg) {
		return "resolution_set", map[string]interface{}{"preset": arg}, nil
	}
	return "resolution_set", map[string]interface{}{"width": width, "height": height}, nil
}

func connectExecutor(cmd *cobra.Command) (*cli.ToolExecutor, error) {
	format, err := cli.ParseOutputFormat(ctlOutputFormat)
	if err != nil {
		return nil, err
	}

	endpoint := ctlEndpoint
	if endpoint == "" {
		var cfg config.StreamdashConfig
		cfg, err = loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		endpoint = cli.EndpointFromConfig(cfg)
	}

	e := cli.NewToolExecutor(cli.NewClient(endpoint, rootCmd.Version), cli.ExecutorOptions{
		Format: format,
		Quiet:  ctlQuiet,
		Out:    cmd.OutOrStdout(),
	})
	if err := e.Connect(cmd.Context()); err != nil {
		return nil, fmt.Errorf("is 'streamdash serve' running with mcp.enabled? %w", err)
	}
	return e, nil
}
