package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want table, json or yaml)", s)
}

// ExecutorOptions contains options for tool execution
type ExecutorOptions struct {
	Format OutputFormat
	Quiet  bool
	// Out receives formatted output. Defaults to os.Stdout.
	Out io.Writer
}

// ToolExecutor calls dashboard tools and prints their results.
type ToolExecutor struct {
	client  *Client
	options ExecutorOptions
}

// NewToolExecutor wraps c.
func NewToolExecutor(c *Client, options ExecutorOptions) *ToolExecutor {
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}
	return &ToolExecutor{client: c, options: options}
}

// Connect establishes connection to the serve process.
func (e *ToolExecutor) Connect(ctx context.Context) error {
	return e.client.Connect(ctx)
}

// Close closes the connection
func (e *ToolExecutor) Close() error {
	return e.client.Close()
}

// Execute executes a tool and formats the output
func (e *ToolExecutor) Execute(ctx context.Context, toolName string, arguments map[string]interface{}) error {
	result, err := e.client.CallTool(ctx, toolName, arguments)
	if err != nil {
		return fmt.Errorf("failed to execute tool %s: %w", toolName, err)
	}

	if result.IsError {
		return fmt.Errorf("%s", strings.Join(textContents(result), "\n"))
	}

	return e.formatOutput(result)
}

// ListTools prints the tool names and descriptions.
func (e *ToolExecutor) ListTools(ctx context.Context) error {
	tools, err := e.client.ListTools(ctx)
	if err != nil {
		return err
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	rows := make([]interface{}, 0, len(tools))
	for _, t := range tools {
		rows = append(rows, map[string]interface{}{"name": t.Name, "description": t.Description})
	}
	data, err := json.Marshal(map[string]interface{}{"tools": rows, "total": len(rows)})
	if err != nil {
		return err
	}
	return e.render(string(data))
}

func (e *ToolExecutor) formatOutput(result *mcp.CallToolResult) error {
	texts := textContents(result)
	if len(texts) == 0 {
		if !e.options.Quiet {
			fmt.Fprintln(e.options.Out, "No results")
		}
		return nil
	}
	return e.render(texts[0])
}

func (e *ToolExecutor) render(jsonData string) error {
	switch e.options.Format {
	case OutputFormatJSON:
		fmt.Fprintln(e.options.Out, jsonData)
		return nil
	case OutputFormatYAML:
		return e.outputYAML(jsonData)
	case OutputFormatTable:
		return e.outputTable(jsonData)
	default:
		return fmt.Errorf("unsupported output format: %s", e.options.Format)
	}
}

// outputYAML converts JSON to YAML and prints it
func (e *ToolExecutor) outputYAML(jsonData string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}

	fmt.Fprint(e.options.Out, string(yamlData))
	return nil
}

func (e *ToolExecutor) outputTable(jsonData string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		// Plain text results ("Video toggle requested") print as-is.
		fmt.Fprintln(e.options.Out, jsonData)
		return nil
	}

	switch d := data.(type) {
	case map[string]interface{}:
		return e.formatTableFromObject(d)
	case []interface{}:
		return e.formatTableFromArray("", d)
	default:
		fmt.Fprintln(e.options.Out, jsonData)
		return nil
	}
}

// formatTableFromObject renders wrapped lists like {"apps": [...], "total": N}
// as a table and everything else as key/value rows.
func (e *ToolExecutor) formatTableFromObject(data map[string]interface{}) error {
	arrayKey := findArrayKey(data)
	if arrayKey == "" {
		return e.formatKeyValueTable(data)
	}

	arr := data[arrayKey].([]interface{})
	if err := e.formatTableFromArray(arrayKey, arr); err != nil {
		return err
	}

	rest := make(map[string]interface{})
	for k, v := range data {
		if k != arrayKey && k != "total" {
			rest[k] = v
		}
	}
	if total, ok := data["total"]; ok {
		fmt.Fprintf(e.options.Out, "\n%s %v %s\n",
			text.FgHiBlue.Sprint("Total:"),
			text.FgHiWhite.Sprint(total),
			arrayKey)
	}
	for _, k := range sortedKeys(rest) {
		fmt.Fprintf(e.options.Out, "%s %v\n", text.FgYellow.Sprint(k+":"), formatCellValue(k, rest[k]))
	}
	return nil
}

// findArrayKey looks for the list a tool result wraps.
func findArrayKey(data map[string]interface{}) string {
	for _, key := range []string{"apps", "notifications", "slots", "devices", "tools", "items"} {
		if value, exists := data[key]; exists {
			if _, isArray := value.([]interface{}); isArray {
				return key
			}
		}
	}
	return ""
}

// priorityColumns orders the columns of known lists.
var priorityColumns = map[string][]string{
	"apps":          {"name", "displayName", "installed", "disabled", "description"},
	"notifications": {"label", "status", "progress", "message", "fadingOut"},
	"slots":         {"Index", "Buttons", "Axes"},
	"devices":       {"context", "id", "label", "selected"},
	"tools":         {"name", "description"},
}

func (e *ToolExecutor) formatTableFromArray(kind string, data []interface{}) error {
	if len(data) == 0 {
		fmt.Fprintln(e.options.Out, text.FgYellow.Sprint("No items found"))
		return nil
	}

	first, ok := data[0].(map[string]interface{})
	if !ok {
		for _, item := range data {
			fmt.Fprintln(e.options.Out, item)
		}
		return nil
	}

	columns := optimizeColumns(kind, first)

	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)

	headers := make(table.Row, len(columns))
	for i, col := range columns {
		headers[i] = text.FgHiCyan.Sprint(strings.ToUpper(col))
	}
	t.AppendHeader(headers)

	for _, item := range data {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[i] = formatCellValue(col, itemMap[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	return nil
}

func optimizeColumns(kind string, sample map[string]interface{}) []string {
	if priorities, ok := priorityColumns[kind]; ok {
		var columns []string
		for _, col := range priorities {
			if _, exists := sample[col]; exists {
				columns = append(columns, col)
			}
		}
		if len(columns) > 0 {
			return columns
		}
	}

	keys := sortedKeys(sample)
	if len(keys) > 5 {
		return keys[:5]
	}
	return keys
}

// formatCellValue styles one cell.
func formatCellValue(column string, value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return text.FgHiBlack.Sprint("-")
	case bool:
		if v {
			return text.FgGreen.Sprint("yes")
		}
		return text.FgHiBlack.Sprint("no")
	case map[string]interface{}:
		return formatGauge(v)
	case []interface{}:
		return formatList(v)
	}

	s := fmt.Sprintf("%v", value)
	switch strings.ToLower(column) {
	case "status":
		return formatStatus(s)
	case "progress":
		return s + "%"
	case "description", "message":
		if len(s) > 50 {
			return s[:45] + text.FgHiBlack.Sprint("...")
		}
		return s
	}
	if len(s) > 30 {
		return s[:27] + "..."
	}
	return s
}

// formatList joins short lists of scalars and counts anything else.
func formatList(items []interface{}) interface{} {
	if len(items) == 0 {
		return text.FgHiBlack.Sprint("none")
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return fmt.Sprintf("[%d items]", len(items))
		}
		names = append(names, s)
	}
	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s, %s (+%d more)", names[0], names[1], len(names)-2)
}

// formatGauge shows telemetry gauges by their display text.
func formatGauge(m map[string]interface{}) interface{} {
	if available, ok := m["available"].(bool); ok && !available {
		return text.FgHiBlack.Sprint("N/A")
	}
	if display, ok := m["display"]; ok {
		return fmt.Sprintf("%v", display)
	}
	if len(m) == 0 {
		return text.FgHiBlack.Sprint("-")
	}
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func formatStatus(status string) interface{} {
	switch strings.ToLower(status) {
	case "end":
		return text.FgGreen.Sprint("✅ " + status)
	case "error":
		return text.FgRed.Sprint("❌ " + status)
	case "progress":
		return text.FgYellow.Sprint("⏳ " + status)
	default:
		return status
	}
}

// formatKeyValueTable formats an object as key-value pairs
func (e *ToolExecutor) formatKeyValueTable(data map[string]interface{}) error {
	// Telemetry and settings nest their values one level down.
	for _, nested := range []string{"gauges", "settings"} {
		inner, ok := data[nested].(map[string]interface{})
		if !ok {
			continue
		}
		flat := make(map[string]interface{}, len(data)+len(inner))
		for k, v := range data {
			if k != nested {
				flat[k] = v
			}
		}
		for k, v := range inner {
			flat[k] = v
		}
		data = flat
	}

	t := table.NewWriter()
	t.SetOutputMirror(e.options.Out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("PROPERTY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	for _, key := range sortedKeys(data) {
		t.AppendRow(table.Row{
			text.FgYellow.Sprint(key),
			formatCellValue(key, data[key]),
		})
	}

	t.Render()
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
