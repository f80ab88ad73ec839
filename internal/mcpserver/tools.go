package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"streamdash/internal/audiodev"
	"streamdash/internal/dashboard"
	"streamdash/internal/protocol"
	"streamdash/internal/settings"
	"streamdash/internal/telemetry"
	"streamdash/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tools maps MCP tool calls onto dashboard intents.
type Tools struct {
	dash *dashboard.Dashboard
}

// NewTools creates the tool set for d.
func NewTools(d *dashboard.Dashboard) *Tools {
	return &Tools{dash: d}
}

// ServerTools returns every tool with its handler.
func (t *Tools) ServerTools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: settingsGetTool(), Handler: t.HandleSettingsGet},
		{Tool: settingsSetTool(), Handler: t.HandleSettingsSet},
		{Tool: resolutionSetTool(), Handler: t.HandleResolutionSet},
		{Tool: mcp.NewTool("resolution_reset",
			mcp.WithDescription("Return the stream resolution to follow the window size"),
		), Handler: t.HandleResolutionReset},
		{Tool: pipelineToggleTool(), Handler: t.HandlePipelineToggle},
		{Tool: mcp.NewTool("notifications_list",
			mcp.WithDescription("List the notifications currently shown"),
		), Handler: t.HandleNotificationsList},
		{Tool: mcp.NewTool("telemetry_snapshot",
			mcp.WithDescription("Latest CPU, GPU, memory, FPS and audio buffer gauges"),
		), Handler: t.HandleTelemetrySnapshot},
		{Tool: mcp.NewTool("gamepad_state",
			mcp.WithDescription("Visible gamepad slots, touch mode and host gamepad status"),
		), Handler: t.HandleGamepadState},
		{Tool: mcp.NewTool("catalog_list",
			mcp.WithDescription("List catalog applications and which are installed"),
		), Handler: t.HandleCatalogList},
		{Tool: appTool("app_install", "Install an application from the catalog"), Handler: t.HandleAppInstall},
		{Tool: appTool("app_remove", "Remove an installed application"), Handler: t.HandleAppRemove},
		{Tool: mcp.NewTool("audio_devices",
			mcp.WithDescription("List local audio inputs and outputs and which ones the host uses"),
		), Handler: t.HandleAudioDevices},
		{Tool: audioSelectTool(), Handler: t.HandleAudioSelect},
	}
}

func audioSelectTool() mcp.Tool {
	return mcp.NewTool("audio_select",
		mcp.WithDescription("Tell the host which local audio device to use"),
		mcp.WithString("context",
			mcp.Required(),
			mcp.Enum(string(protocol.AudioInput), string(protocol.AudioOutput)),
		),
		mcp.WithString("deviceId",
			mcp.Required(),
			mcp.Description("Device id as listed by audio_devices"),
		),
	)
}

func settingsGetTool() mcp.Tool {
	return mcp.NewTool("settings_get",
		mcp.WithDescription("Get one stream setting, or all of them when key is omitted"),
		mcp.WithString("key",
			mcp.Description("Setting key"),
			mcp.Enum(settings.Keys()...),
		),
	)
}

func settingsSetTool() mcp.Tool {
	return mcp.NewTool("settings_set",
		mcp.WithDescription("Change a stream setting. Values outside the setting's domain are rejected"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Setting key"),
			mcp.Enum(settings.Keys()...),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("New value in its text form, e.g. 60, true or x264enc"),
		),
	)
}

func resolutionSetTool() mcp.Tool {
	return mcp.NewTool("resolution_set",
		mcp.WithDescription("Set a manual stream resolution from a preset or explicit width and height"),
		mcp.WithString("preset",
			mcp.Description("Preset such as 1920x1080; takes precedence over width and height"),
		),
		mcp.WithNumber("width", mcp.Description("Width in pixels, rounded down to even")),
		mcp.WithNumber("height", mcp.Description("Height in pixels, rounded down to even")),
	)
}

func pipelineToggleTool() mcp.Tool {
	return mcp.NewTool("pipeline_toggle",
		mcp.WithDescription("Ask the host to flip a media pipeline"),
		mcp.WithString("pipeline",
			mcp.Required(),
			mcp.Enum(string(protocol.PipelineVideo), string(protocol.PipelineAudio), string(protocol.PipelineMicrophone)),
		),
	)
}

func appTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Catalog name of the application"),
		),
	)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// HandleSettingsGet handles settings_get.
func (t *Tools) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		out := make(map[string]any, len(settings.Keys()))
		for _, k := range settings.Keys() {
			v, _ := t.dash.Settings.Get(k)
			out[k] = v
		}
		return jsonResult(map[string]any{
			"settings": out,
			"encoders": t.dash.Settings.EncoderOptions(),
		})
	}

	v, ok := t.dash.Settings.Get(key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown setting %q", key)), nil
	}
	return jsonResult(map[string]any{"key": key, "value": v})
}

// HandleSettingsSet handles settings_set.
func (t *Tools) HandleSettingsSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError("key is required"), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value is required"), nil
	}

	if err := t.dash.Settings.Set(key, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logging.Info("MCP", "settings_set %s=%s", key, value)
	current, _ := t.dash.Settings.Get(key)
	return mcp.NewToolResultText(fmt.Sprintf("%s set to %v", key, current)), nil
}

// HandleResolutionSet handles resolution_set.
func (t *Tools) HandleResolutionSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := t.dash.Resolution
	if preset := req.GetString("preset", ""); preset != "" {
		if err := res.SelectPreset(preset); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(res.State())
	}

	w := req.GetInt("width", 0)
	h := req.GetInt("height", 0)
	if err := res.SubmitManual(w, h); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res.State())
}

// HandleResolutionReset handles resolution_reset.
func (t *Tools) HandleResolutionReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.dash.Resolution.ResetToWindow()
	return mcp.NewToolResultText("Resolution follows the window"), nil
}

// HandlePipelineToggle handles pipeline_toggle.
func (t *Tools) HandlePipelineToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError("pipeline is required"), nil
	}
	if err := t.dash.TogglePipeline(protocol.Pipeline(name)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Requested %s toggle; the host reports the new state", name)), nil
}

// HandleNotificationsList handles notifications_list.
func (t *Tools) HandleNotificationsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := t.dash.Notifications.Items()
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"id":        it.ID,
			"label":     it.Label,
			"status":    it.Status,
			"progress":  it.Progress,
			"message":   it.Message,
			"fadingOut": it.FadingOut,
		})
	}
	return jsonResult(map[string]any{"notifications": out, "total": len(out)})
}

// HandleTelemetrySnapshot handles telemetry_snapshot.
func (t *Tools) HandleTelemetrySnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.dash.Sampler.Latest()
	return jsonResult(map[string]any{
		"at": snap.At,
		"gauges": map[string]any{
			"cpu":         gaugeJSON(snap.CPU),
			"gpu":         gaugeJSON(snap.GPU),
			"sysMem":      gaugeJSON(snap.SysMem),
			"gpuMem":      gaugeJSON(snap.GPUMem),
			"fps":         gaugeJSON(snap.FPS),
			"audioBuffer": gaugeJSON(snap.AudioBuffer),
		},
	})
}

func gaugeJSON(g telemetry.Gauge) map[string]any {
	return map[string]any{
		"percent":   g.Percent,
		"display":   g.Display,
		"available": g.Available,
	}
}

// HandleGamepadState handles gamepad_state.
func (t *Tools) HandleGamepadState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := t.dash.Gamepads
	return jsonResult(map[string]any{
		"touchMode": g.TouchMode(),
		"enabled":   g.Enabled(),
		"slots":     g.Visible(),
	})
}

// HandleCatalogList handles catalog_list.
func (t *Tools) HandleCatalogList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := t.dash.Catalog.Entries()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Catalog unavailable: %v", err)), nil
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"name":        e.Name,
			"displayName": e.DisplayName(),
			"description": e.Description,
			"disabled":    e.Disabled,
			"installed":   t.dash.Catalog.IsInstalled(e.Name),
		})
	}
	return jsonResult(map[string]any{"apps": out, "total": len(out)})
}

// HandleAppInstall handles app_install.
func (t *Tools) HandleAppInstall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	if err := t.dash.Catalog.Install(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Install of '%s' requested", name)), nil
}

// HandleAppRemove handles app_remove.
func (t *Tools) HandleAppRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	if err := t.dash.Catalog.Remove(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removal of '%s' requested", name)), nil
}

func audioDevicesResult(st audiodev.State) (*mcp.CallToolResult, error) {
	if st.Error != "" {
		return mcp.NewToolResultError(st.Error), nil
	}
	out := make([]map[string]any, 0, len(st.Inputs)+len(st.Outputs))
	add := func(devices []audiodev.Device, selected string) {
		for _, d := range devices {
			out = append(out, map[string]any{
				"id":       d.ID,
				"label":    d.Label,
				"context":  d.Context,
				"selected": d.ID == selected,
			})
		}
	}
	add(st.Inputs, st.SelectedInput)
	add(st.Outputs, st.SelectedOutput)
	return jsonResult(map[string]any{"devices": out, "total": len(out)})
}

// HandleAudioDevices handles audio_devices.
func (t *Tools) HandleAudioDevices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return audioDevicesResult(t.dash.Audio.State())
}

// HandleAudioSelect handles audio_select.
func (t *Tools) HandleAudioSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	audioCtx, err := req.RequireString("context")
	if err != nil {
		return mcp.NewToolResultError("context is required"), nil
	}
	id, err := req.RequireString("deviceId")
	if err != nil {
		return mcp.NewToolResultError("deviceId is required"), nil
	}
	if err := t.dash.Audio.Select(protocol.AudioContext(audioCtx), id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	logging.Info("MCP", "audio_select %s=%s", audioCtx, id)
	return audioDevicesResult(t.dash.Audio.State())
}
