package tui

import (
	"streamdash/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the Bubble Tea program for a running dashboard.
func NewProgram(cfg Config, logChannel <-chan logging.LogEntry) *tea.Program {
	return tea.NewProgram(NewModel(cfg, logChannel), tea.WithAltScreen())
}
