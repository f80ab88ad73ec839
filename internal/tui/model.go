package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"streamdash/internal/audiodev"
	"streamdash/internal/dashboard"
	"streamdash/internal/protocol"
	"streamdash/internal/resolution"
	"streamdash/internal/settings"
	"streamdash/pkg/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// panel identifies which section owns the cursor.
type panel int

const (
	panelSettings panel = iota
	panelCatalog
	panelNotifications
	panelAudio
	panelCount
)

func (p panel) String() string {
	switch p {
	case panelSettings:
		return "settings"
	case panelCatalog:
		return "catalog"
	case panelNotifications:
		return "notifications"
	case panelAudio:
		return "audio"
	}
	return "unknown"
}

// Manual resolution fields.
const (
	fieldWidth = iota
	fieldHeight
)

// Messages

type refreshMsg time.Time

type logMsg logging.LogEntry

// logClosedMsg is sent once the log channel has been closed.
type logClosedMsg struct{}

// Config wires the model to a running dashboard.
type Config struct {
	Dashboard *dashboard.Dashboard
	Debug     bool
	// Title overrides the header text.
	Title string
}

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	dash   *dashboard.Dashboard
	keys   KeyMap
	help   help.Model
	bar    progress.Model
	styles styles
	theme  string
	title  string
	debug  bool

	state   dashboard.State
	focus   panel
	cursors [panelCount]int
	editing bool
	showLog bool

	// resolution editor
	resFields [2]textinput.Model
	resField  int
	presetIdx int

	status  string
	isError bool

	logChan  <-chan logging.LogEntry
	logLines []logging.LogEntry

	width  int
	height int
}

// NewModel creates the model. logChan may be nil.
func NewModel(cfg Config, logChan <-chan logging.LogEntry) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 20

	title := cfg.Title
	if title == "" {
		title = "streamdash"
	}

	m := Model{
		dash:    cfg.Dashboard,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		bar:     bar,
		title:   title,
		debug:   cfg.Debug,
		logChan: logChan,
		showLog: true,
		resFields: [2]textinput.Model{
			newResolutionField("width> ", "1920"),
			newResolutionField("height> ", "1080"),
		},
		presetIdx: -1,
	}
	m.state = m.dash.Snapshot()
	m.applyTheme()
	return m
}

func newResolutionField(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 5
	ti.Width = 6
	ti.Prompt = prompt
	return ti
}

func (m *Model) applyTheme() {
	theme := m.state.Settings.Theme
	if theme == m.theme {
		return
	}
	m.theme = theme
	m.styles = newStyles(theme)
}

// Init starts the refresh tick and the log listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{refreshCmd()}
	if m.logChan != nil {
		cmds = append(cmds, listenForLogs(m.logChan))
	}
	return tea.Batch(cmds...)
}

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// listenForLogs waits for the next log entry.
func listenForLogs(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return logClosedMsg{}
		}
		return logMsg(entry)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case refreshMsg:
		m.refresh()
		return m, refreshCmd()

	case logMsg:
		m.appendLog(logging.LogEntry(msg))
		return m, listenForLogs(m.logChan)

	case logClosedMsg:
		m.logChan = nil
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) refresh() {
	m.state = m.dash.Snapshot()
	m.applyTheme()
	m.clampCursors()
}

func (m *Model) appendLog(entry logging.LogEntry) {
	if entry.Level == logging.LevelDebug && !m.debug {
		return
	}
	m.logLines = append(m.logLines, entry)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

func (m *Model) rows(p panel) int {
	switch p {
	case panelSettings:
		return len(settings.Keys())
	case panelCatalog:
		return len(m.state.Catalog)
	case panelNotifications:
		return len(m.state.Notifications)
	case panelAudio:
		return len(m.audioDevices())
	}
	return 0
}

// audioDevices lists inputs then outputs, the order the audio panel shows
// them in.
func (m Model) audioDevices() []audiodev.Device {
	a := m.state.Audio
	return append(slices.Clone(a.Inputs), a.Outputs...)
}

func (m *Model) clampCursors() {
	for p := panel(0); p < panelCount; p++ {
		n := m.rows(p)
		if m.cursors[p] >= n {
			m.cursors[p] = max(n-1, 0)
		}
	}
}

func (m *Model) moveCursor(delta int) {
	n := m.rows(m.focus)
	if n == 0 {
		return
	}
	m.cursors[m.focus] = ((m.cursors[m.focus]+delta)%n + n) % n
}

func (m *Model) setStatus(err error, okFormat string, args ...any) {
	if err != nil {
		m.status = err.Error()
		m.isError = true
		return
	}
	m.status = fmt.Sprintf(okFormat, args...)
	m.isError = false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.dash
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.ToggleLog):
		m.showLog = !m.showLog

	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % panelCount

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		if m.focus != panelSettings {
			break
		}
		delta := 1
		if key.Matches(msg, m.keys.Left) {
			delta = -1
		}
		k := settings.Keys()[m.cursors[panelSettings]]
		err := d.Settings.Step(k, delta)
		v, _ := d.Settings.Get(k)
		m.setStatus(err, "%s = %v", k, v)

	case key.Matches(msg, m.keys.Enter):
		switch m.focus {
		case panelCatalog:
			if len(m.state.Catalog) == 0 {
				break
			}
			entry := m.state.Catalog[m.cursors[panelCatalog]]
			if d.Catalog.IsInstalled(entry.Name) {
				m.setStatus(d.Catalog.Update(entry.Name), "Update of %s requested", entry.DisplayName())
			} else {
				m.setStatus(d.Catalog.Install(entry.Name), "Install of %s requested", entry.DisplayName())
			}
		case panelAudio:
			devices := m.audioDevices()
			if len(devices) == 0 {
				break
			}
			dev := devices[m.cursors[panelAudio]]
			m.setStatus(d.Audio.Select(dev.Context, dev.ID), "Using %s for %s", dev.Label, dev.Context)
		}

	case key.Matches(msg, m.keys.Remove):
		if m.focus != panelCatalog || len(m.state.Catalog) == 0 {
			break
		}
		entry := m.state.Catalog[m.cursors[panelCatalog]]
		m.setStatus(d.Catalog.Remove(entry.Name), "Removal of %s requested", entry.DisplayName())

	case key.Matches(msg, m.keys.Dismiss):
		if len(m.state.Notifications) == 0 {
			break
		}
		n := m.state.Notifications[min(m.cursors[panelNotifications], len(m.state.Notifications)-1)]
		d.Notifications.Dismiss(n.ID)

	case key.Matches(msg, m.keys.Video):
		m.setStatus(d.TogglePipeline(protocol.PipelineVideo), "Video toggle requested")

	case key.Matches(msg, m.keys.Audio):
		m.setStatus(d.TogglePipeline(protocol.PipelineAudio), "Audio toggle requested")

	case key.Matches(msg, m.keys.Microphone):
		m.setStatus(d.TogglePipeline(protocol.PipelineMicrophone), "Microphone toggle requested")

	case key.Matches(msg, m.keys.Gamepad):
		d.SetGamepadEnabled(!d.Gamepads.Enabled())

	case key.Matches(msg, m.keys.TouchPad):
		d.Gamepads.SetTouchMode(!d.Gamepads.TouchMode())

	case key.Matches(msg, m.keys.Copy):
		m.setStatus(d.CopyClipboard(), "Copied host clipboard")

	case key.Matches(msg, m.keys.Paste):
		m.setStatus(d.PushLocalClipboard(), "Sent local clipboard to host")

	case key.Matches(msg, m.keys.Resolution):
		cmd := m.startResolutionEdit()
		return m, cmd

	case key.Matches(msg, m.keys.ResetRes):
		d.Resolution.ResetToWindow()
		m.setStatus(nil, "Resolution follows the window")

	case key.Matches(msg, m.keys.Fullscreen):
		d.RequestFullscreen()

	case key.Matches(msg, m.keys.Keyboard):
		d.ShowVirtualKeyboard()
	}

	m.refresh()
	return m, nil
}

// startResolutionEdit opens the width and height fields, filled with the
// current manual values.
func (m *Model) startResolutionEdit() tea.Cmd {
	r := m.dash.Resolution.State()
	for i, v := range [2]int{r.Width, r.Height} {
		m.resFields[i].SetValue("")
		if v > 0 {
			m.resFields[i].SetValue(strconv.Itoa(v))
		}
		m.resFields[i].Blur()
	}
	m.presetIdx = slices.Index(resolution.Presets, r.Preset)
	m.resField = fieldWidth
	m.editing = true
	return m.resFields[fieldWidth].Focus()
}

func (m *Model) stopEditing() {
	m.editing = false
	for i := range m.resFields {
		m.resFields[i].Blur()
	}
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res := m.dash.Resolution
	switch {
	case key.Matches(msg, m.keys.Esc):
		m.stopEditing()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.setStatus(res.SubmitFields(), "Resolution requested")
		m.stopEditing()
		m.refresh()
		return m, nil

	case msg.Type == tea.KeyTab:
		m.resFields[m.resField].Blur()
		m.resField = (m.resField + 1) % len(m.resFields)
		cmd := m.resFields[m.resField].Focus()
		return m, cmd

	case msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		delta := 1
		if msg.Type == tea.KeyUp {
			delta = -1
		}
		m.stepPreset(delta)
		m.refresh()
		return m, nil
	}

	before := m.resFields[m.resField].Value()
	var cmd tea.Cmd
	m.resFields[m.resField], cmd = m.resFields[m.resField].Update(msg)
	if text := m.resFields[m.resField].Value(); text != before {
		// Unparseable or empty fields hold 0 and fail on submit.
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			n = 0
		}
		if m.resField == fieldWidth {
			res.EditWidth(n)
		} else {
			res.EditHeight(n)
		}
		m.presetIdx = -1
		m.refresh()
	}
	return m, cmd
}

// stepPreset selects the next or previous preset and mirrors it into the
// fields. A preset is requested immediately.
func (m *Model) stepPreset(delta int) {
	n := len(resolution.Presets)
	idx := m.presetIdx + delta
	if m.presetIdx < 0 && delta < 0 {
		idx = n - 1
	}
	idx = (idx%n + n) % n

	label := resolution.Presets[idx]
	if err := m.dash.Resolution.SelectPreset(label); err != nil {
		m.setStatus(err, "")
		return
	}
	m.presetIdx = idx
	r := m.dash.Resolution.State()
	m.resFields[fieldWidth].SetValue(strconv.Itoa(r.Width))
	m.resFields[fieldHeight].SetValue(strconv.Itoa(r.Height))
	m.setStatus(nil, "Preset %s requested", label)
}
