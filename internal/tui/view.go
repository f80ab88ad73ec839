package tui

import (
	"fmt"
	"slices"
	"strings"

	"streamdash/internal/notify"
	"streamdash/internal/protocol"
	"streamdash/internal/settings"
	"streamdash/internal/telemetry"
	"streamdash/pkg/logging"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// View renders the dashboard.
func (m Model) View() string {
	s := m.styles
	header := s.header.Render(fmt.Sprintf("%s  session %s", m.title, shortID(m.state.SessionID)))

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSettings(),
		m.renderResolution(),
		m.renderAudio(),
	)
	middle := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPipelines(),
		m.renderTelemetry(),
		m.renderGamepads(),
		m.renderNotifications(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, middle, m.renderCatalog())

	parts := []string{header, body}
	if m.showLog && (m.height == 0 || m.height >= minHeightForLogPane) {
		parts = append(parts, m.renderLog())
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate cuts s to width cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (m Model) box(p panel, focusable bool, title string, lines ...string) string {
	style := m.styles.panel
	if focusable && m.focus == p {
		style = m.styles.focused
	}
	content := append([]string{m.styles.title.Render(title)}, lines...)
	return style.Render(strings.Join(content, "\n"))
}

func (m Model) renderSettings() string {
	pending := m.dash.Settings.PendingSends()
	lines := make([]string, 0, len(settings.Keys()))
	for i, k := range settings.Keys() {
		v, _ := m.dash.Settings.Get(k)
		def, _ := settings.Lookup(k)
		line := fmt.Sprintf("%-18s %s", k, def.Format(v))
		if slices.Contains(pending, k) {
			line += " …"
		}
		if m.focus == panelSettings && m.cursors[panelSettings] == i {
			line = m.styles.selected.Render("› " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.box(panelSettings, true, "Settings", lines...)
}

func (m Model) renderResolution() string {
	r := m.state.Resolution
	line := fmt.Sprintf("mode %s", r.Mode)
	if r.Width > 0 && r.Height > 0 {
		line += fmt.Sprintf("  %dx%d", r.Width, r.Height)
	}
	if r.Preset != "" {
		line += "  (" + r.Preset + ")"
	}
	lines := []string{line}
	if m.editing {
		lines = append(lines, m.resFields[fieldWidth].View()+"  "+m.resFields[fieldHeight].View())
	}
	return m.box(panelSettings, false, "Resolution", lines...)
}

func (m Model) renderAudio() string {
	a := m.state.Audio
	if a.Error != "" {
		return m.box(panelAudio, true, "Audio devices", m.styles.warn.Render(IconWarning+" "+a.Error))
	}
	label := func(id string) string {
		if id == "" {
			return m.styles.muted.Render("default")
		}
		return id
	}
	lines := []string{
		fmt.Sprintf("input  %s (%d)", label(a.SelectedInput), len(a.Inputs)),
		fmt.Sprintf("output %s (%d)", label(a.SelectedOutput), len(a.Outputs)),
	}
	for i, dev := range m.audioDevices() {
		mark := " "
		if (dev.Context == protocol.AudioInput && dev.ID == a.SelectedInput) ||
			(dev.Context == protocol.AudioOutput && dev.ID == a.SelectedOutput) {
			mark = IconCheck
		}
		line := fmt.Sprintf("%s %-6s %s", mark, dev.Context, truncate(dev.Label, 28))
		if m.focus == panelAudio && m.cursors[panelAudio] == i {
			line = m.styles.selected.Render("› " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.box(panelAudio, true, "Audio devices", lines...)
}

func (m Model) onOff(on bool) string {
	if on {
		return m.styles.ok.Render(IconPlay + " on")
	}
	return m.styles.muted.Render(IconStop + " off")
}

func (m Model) renderPipelines() string {
	p := m.state.Pipelines
	return m.box(panelSettings, false, "Host",
		fmt.Sprintf("video %s  audio %s  mic %s", m.onOff(p.Video), m.onOff(p.Audio), m.onOff(p.Microphone)),
	)
}

func (m Model) gauge(name string, g telemetry.Gauge) string {
	if !g.Available {
		return fmt.Sprintf("%-6s %s %s", name, m.bar.ViewAs(0), m.styles.muted.Render(telemetry.NotAvailable))
	}
	return fmt.Sprintf("%-6s %s %s", name, m.bar.ViewAs(g.Percent/100), g.Display)
}

func (m Model) renderTelemetry() string {
	t := m.state.Telemetry
	return m.box(panelSettings, false, "Telemetry",
		m.gauge("CPU", t.CPU),
		m.gauge("GPU", t.GPU),
		m.gauge("RAM", t.SysMem),
		m.gauge("VRAM", t.GPUMem),
		m.gauge("FPS", t.FPS),
		m.gauge("Audio", t.AudioBuffer),
	)
}

func (m Model) renderGamepads() string {
	status := "host gamepad " + m.onOff(m.state.GamepadEnabled)
	if m.state.TouchMode {
		return m.box(panelSettings, false, IconGamepad+" Gamepads", status, "touch gamepad active")
	}
	lines := []string{status}
	if len(m.state.Gamepads) == 0 {
		lines = append(lines, m.styles.muted.Render("no gamepads"))
	}
	for _, slot := range m.state.Gamepads {
		pressed := 0
		for _, v := range slot.Buttons {
			if v > 0 {
				pressed++
			}
		}
		lines = append(lines, fmt.Sprintf("#%d  %d pressed  %d axes", slot.Index, pressed, len(slot.Axes)))
	}
	return m.box(panelSettings, false, IconGamepad+" Gamepads", lines...)
}

func (m Model) renderNotifications() string {
	items := m.state.Notifications
	if len(items) == 0 {
		return m.box(panelNotifications, true, "Notifications", m.styles.muted.Render("none"))
	}
	lines := make([]string, 0, len(items))
	for i, it := range items {
		var line string
		switch it.Status {
		case notify.StatusProgress:
			line = fmt.Sprintf("%s %s", m.bar.ViewAs(it.Progress/100), it.Label)
		case notify.StatusEnd:
			line = m.styles.ok.Render(IconCheck) + " " + it.Label
		case notify.StatusError:
			line = m.styles.err.Render(IconCross) + " " + it.Label
		}
		if it.Message != "" {
			line += ": " + it.Message
		}
		if it.FadingOut {
			line = m.styles.fading.Render(line)
		}
		if m.focus == panelNotifications && m.cursors[panelNotifications] == i {
			line = "› " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.box(panelNotifications, true, "Notifications", lines...)
}

func (m Model) renderCatalog() string {
	if m.state.CatalogError != "" {
		return m.box(panelCatalog, true, "Apps", m.styles.err.Render(m.state.CatalogError))
	}
	if len(m.state.Catalog) == 0 {
		return m.box(panelCatalog, true, "Apps", m.styles.muted.Render("catalog not loaded"))
	}
	lines := make([]string, 0, len(m.state.Catalog))
	for i, e := range m.state.Catalog {
		mark := " "
		if slices.Contains(m.state.Installed, e.Name) {
			mark = IconCheck
		}
		line := fmt.Sprintf("%s %s", mark, truncate(e.DisplayName(), 28))
		switch {
		case e.Disabled:
			line = m.styles.muted.Render(line + " (disabled)")
		case m.focus == panelCatalog && m.cursors[panelCatalog] == i:
			line = m.styles.selected.Render(line)
		}
		if m.focus == panelCatalog && m.cursors[panelCatalog] == i {
			line = "› " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.box(panelCatalog, true, "Apps", lines...)
}

// logPaneLines is how many log lines the pane shows.
const logPaneLines = 8

func (m Model) renderLog() string {
	width := m.width - m.styles.panel.GetHorizontalFrameSize()
	start := max(len(m.logLines)-logPaneLines, 0)
	lines := make([]string, 0, logPaneLines)
	for _, e := range m.logLines[start:] {
		line := truncate(e.String(), width)
		switch e.Level {
		case logging.LevelError:
			line = m.styles.err.Render(line)
		case logging.LevelWarn:
			line = m.styles.warn.Render(line)
		case logging.LevelDebug:
			line = m.styles.logDebug.Render(line)
		default:
			line = m.styles.logLine.Render(line)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, m.styles.muted.Render("no activity yet"))
	}
	return m.box(panelCount, false, IconScroll+" Activity", lines...)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.editing:
		left = m.help.ShortHelpView(m.keys.InputModeHelp())
	case m.status != "" && m.isError:
		left = m.styles.err.Render(IconCross + " " + m.status)
	case m.status != "":
		left = m.styles.ok.Render(IconInfo + " " + m.status)
	default:
		left = "focus: " + m.focus.String()
	}
	stats := m.state.Channel
	right := fmt.Sprintf("sent %d  recv %d  dropped %d", stats.Sent, stats.Received, stats.Dropped)
	bar := m.styles.statusBar.Render(left + "  " + right)
	return lipgloss.JoinVertical(lipgloss.Left, bar, m.help.View(m.keys))
}
