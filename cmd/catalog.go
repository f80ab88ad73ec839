package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"streamdash/internal/app"
	"streamdash/internal/catalog"
	"streamdash/internal/cli"
	"streamdash/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	catalogURL          string
	catalogOutputFormat string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the application catalog",
	Long: `Inspect the catalog of applications the host can install.

Available commands:
  list  - Fetch the catalog and show every application`,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch and list the catalog",
	Long: `Fetches the catalog from catalog.url (or --url) and lists its
applications. Applications recorded as installed on this machine are marked.`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)

	catalogListCmd.Flags().StringVar(&catalogURL, "url", "", "Catalog URL (default: catalog.url)")
	catalogListCmd.Flags().StringVarP(&catalogOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(catalogOutputFormat)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.InitForCLI(logging.ParseLevel(cfg.GlobalSettings.LogLevel), os.Stderr)

	url := catalogURL
	if url == "" {
		url = cfg.Catalog.URL
	}
	if url == "" {
		return fmt.Errorf("no catalog URL: set catalog.url or pass --url")
	}

	st, closeStore, err := app.OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logging.Error("Catalog", err, "Failed to close store")
		}
	}()

	loader := catalog.New(url, nil, st, catalog.WithRetries(cfg.Catalog.Retries, 500*time.Millisecond))
	if err := loader.Load(cmd.Context()); err != nil {
		return err
	}
	entries, err := loader.Entries()
	if err != nil {
		return err
	}
	return printCatalog(cmd.OutOrStdout(), format, entries, loader.Installed())
}

type catalogRow struct {
	catalog.Entry `yaml:",inline"`
	Installed     bool `yaml:"installed" json:"installed"`
}

func printCatalog(w io.Writer, format cli.OutputFormat, entries []catalog.Entry, installed []string) error {
	rows := make([]catalogRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, catalogRow{Entry: e, Installed: slices.Contains(installed, e.Name)})
	}

	switch format {
	case cli.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case cli.OutputFormatYAML:
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No applications in catalog"))
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"NAME", "DISPLAY NAME", "INSTALLED", "DESCRIPTION"})
	for _, r := range rows {
		name := r.Name
		if r.Disabled {
			name = text.FgHiBlack.Sprint(name + " (disabled)")
		}
		mark := ""
		if r.Installed {
			mark = text.FgGreen.Sprint("✅")
		}
		t.AppendRow(table.Row{name, r.DisplayName(), mark, r.Description})
	}
	t.Render()
	fmt.Fprintf(w, "\n%s %d applications\n", text.FgHiBlue.Sprint("Total:"), len(rows))
	return nil
}
