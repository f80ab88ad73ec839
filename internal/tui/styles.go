package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Constants for TUI behavior.
const (
	// refreshInterval is how often the view re-reads the dashboard.
	refreshInterval = 250 * time.Millisecond
	// maxLogLines bounds the in-memory activity log.
	maxLogLines = 500
	// minHeightForLogPane hides the log pane on short terminals; it stays
	// reachable with the log toggle.
	minHeightForLogPane = 30
)

// Icons
const (
	IconCheck   = "✔"
	IconCross   = "✘"
	IconWarning = "⚠"
	IconPlay    = "▶"
	IconStop    = "⏹"
	IconScroll  = "📜"
	IconGamepad = "🎮"
	IconInfo    = "ℹ"
)

// palette is one colour theme.
type palette struct {
	fg, muted, accent, bg lipgloss.Color
	ok, warn, err         lipgloss.Color
}

var palettes = map[string]palette{
	"dark": {
		fg: "#FFFFFF", muted: "#A0A0A0", accent: "#58A6FF", bg: "#303030",
		ok: "#8AE234", warn: "#FFD700", err: "#FF5F5F",
	},
	"light": {
		fg: "#000000", muted: "#606060", accent: "#0000CC", bg: "#D0D0D0",
		ok: "#006400", warn: "#B8860B", err: "#B22222",
	},
}

// styles holds every lipgloss style the view uses for one theme.
type styles struct {
	header    lipgloss.Style
	panel     lipgloss.Style
	focused   lipgloss.Style
	title     lipgloss.Style
	selected  lipgloss.Style
	muted     lipgloss.Style
	ok        lipgloss.Style
	warn      lipgloss.Style
	err       lipgloss.Style
	fading    lipgloss.Style
	statusBar lipgloss.Style
	logLine   lipgloss.Style
	logDebug  lipgloss.Style
}

// newStyles builds the styles for theme, falling back to dark.
func newStyles(theme string) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["dark"]
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.muted).
		Padding(0, 1)

	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.fg).
			Background(p.bg).
			Padding(0, 2),
		panel: panel,
		focused: panel.
			Border(lipgloss.ThickBorder()).
			BorderForeground(p.accent),
		title:     lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		muted:     lipgloss.NewStyle().Foreground(p.muted),
		ok:        lipgloss.NewStyle().Foreground(p.ok),
		warn:      lipgloss.NewStyle().Foreground(p.warn),
		err:       lipgloss.NewStyle().Foreground(p.err),
		fading:    lipgloss.NewStyle().Foreground(p.muted).Faint(true),
		statusBar: lipgloss.NewStyle().Foreground(p.fg).Background(p.bg).Padding(0, 1),
		logLine:   lipgloss.NewStyle().Foreground(p.fg),
		logDebug:  lipgloss.NewStyle().Foreground(p.muted),
	}
}
