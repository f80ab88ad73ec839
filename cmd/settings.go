package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"streamdash/internal/app"
	"streamdash/internal/settings"
	"streamdash/internal/storage"
	"streamdash/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// settingsCmd gives offline access to the persisted stream settings.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change persisted stream settings",
	Long: `Read and change the stream settings stored on this machine.

Values are validated exactly as the dashboard validates them, and the
next 'streamdash serve' sends them to the host. To change the settings of
a running session use 'streamdash ctl set' instead.

Available commands:
  get [key]          - Show one setting, or all of them with their options
  set <key> <value>  - Validate and store a setting`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show persisted settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting",
	Long: `Validate and store a setting.

Enumerated settings accept only their listed options; run
'streamdash settings get' to see them.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

// withSettings opens the configured store, loads the settings and runs fn.
func withSettings(fn func(*settings.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.InitForCLI(logging.ParseLevel(cfg.GlobalSettings.LogLevel), os.Stderr)

	st, closeStore, err := app.OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error("Settings", err, "Failed to close store")
		}
	}()
	return runWithStore(st, fn)
}

func runWithStore(st storage.Store, fn func(*settings.Store) error) error {
	s := settings.New(st, nil)
	defer s.Close()
	s.Load()
	return fn(s)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	return withSettings(func(s *settings.Store) error {
		if len(args) == 1 {
			return printSetting(cmd.OutOrStdout(), s, args[0])
		}
		printSettings(cmd.OutOrStdout(), s)
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	return withSettings(func(s *settings.Store) error {
		if err := s.Set(args[0], args[1]); err != nil {
			return err
		}
		return printSetting(cmd.OutOrStdout(), s, args[0])
	})
}

func printSetting(w io.Writer, s *settings.Store, key string) error {
	d, ok := settings.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(settings.Keys(), ", "))
	}
	v, _ := s.Get(key)
	fmt.Fprintf(w, "%s=%s\n", key, d.Format(v))
	return nil
}

func printSettings(w io.Writer, s *settings.Store) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"KEY", "VALUE", "DEFAULT", "OPTIONS"})
	for _, d := range settings.Definitions() {
		v, _ := s.Get(d.Key)
		options := strings.Join(d.Options(), " ")
		switch {
		case options != "":
		case d.Kind == settings.KindBool:
			options = "true false"
		default:
			options = fmt.Sprintf("%d..%d", d.Min, d.Max)
		}
		t.AppendRow(table.Row{d.Key, d.Format(v), d.Format(d.Default), options})
	}
	t.Render()
}
