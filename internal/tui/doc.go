// Package tui provides the terminal user interface for streamdash.
//
// It renders a running dashboard with Bubble Tea: stream settings,
// telemetry gauges, host pipelines, gamepad slots, notifications, the
// resolution picker, audio devices and the app catalog, plus an activity
// log fed by pkg/logging.
//
// # Message Flow
//
//  1. A refresh tick re-reads dashboard.Snapshot a few times per second
//  2. Log entries arrive one at a time from the logging TUI channel
//  3. Key presses are mapped to dashboard intents (setting steps, pipeline
//     toggles, clipboard, resolution, audio devices, app install/remove)
//  4. The view renders the latest snapshot
//
// The model never holds dashboard locks; every intent goes through the
// dashboard's own methods, so the TUI and the MCP server can drive the same
// session at once.
//
// # Keyboard Navigation
//
//   - Tab: cycle the settings, catalog, notifications and audio panels
//   - ↑/↓ (k/j): move within the focused panel
//   - ←/→ (h/l): step the selected setting through its values
//   - Enter: install the selected app, or use the selected audio device
//   - v, a, m: toggle video, audio and microphone on the host
//   - r / R: edit width and height (↑/↓ picks a preset) / follow the window size
//   - ?: show all bindings
//   - q/Ctrl+C: quit
//
// # Usage Example
//
//	p := tui.NewProgram(tui.Config{Dashboard: dash}, logChannel)
//	if _, err := p.Run(); err != nil {
//	    return err
//	}
package tui
