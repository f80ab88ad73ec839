// Package resolution reconciles the three ways a user picks the stream
// resolution: a preset, manual width/height, or following the window.
package resolution

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"streamdash/internal/protocol"
	"streamdash/internal/storage"
	"streamdash/pkg/logging"
)

// Storage keys for the last manual request.
const (
	KeyManualWidth  = "manualWidth"
	KeyManualHeight = "manualHeight"
)

// Presets offered by the resolution picker.
var Presets = []string{
	"1280x720",
	"1366x768",
	"1600x900",
	"1920x1080",
	"2560x1440",
	"3840x2160",
}

// Mode is the active selection kind.
type Mode int

const (
	ModeWindow Mode = iota
	ModePreset
	ModeManual
)

func (m Mode) String() string {
	switch m {
	case ModeWindow:
		return "window"
	case ModePreset:
		return "preset"
	case ModeManual:
		return "manual"
	}
	return "unknown"
}

// State is what the resolution section displays. Width and Height are the
// manual fields; Preset is the selected preset label, empty once a field
// is edited by hand.
type State struct {
	Mode   Mode
	Preset string
	Width  int
	Height int
}

// ValidationError rejects a resolution request. Nothing is sent or changed
// when it is returned.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid resolution %s: %s", e.Input, e.Reason)
}

// Quantize floors n to the nearest even integer. Negative input yields 0.
func Quantize(n int) int {
	if n < 0 {
		return 0
	}
	return n - n%2
}

// ParsePreset splits a "WxH" label into its dimensions.
func ParsePreset(label string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(label)), "x")
	if !ok {
		return 0, 0, &ValidationError{Input: label, Reason: `expected "WIDTHxHEIGHT"`}
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, &ValidationError{Input: label, Reason: "width is not an integer"}
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, &ValidationError{Input: label, Reason: "height is not an integer"}
	}
	return w, h, nil
}

// Negotiator owns the resolution state and the manualWidth/manualHeight
// keys.
type Negotiator struct {
	sender  protocol.Sender
	storage storage.Store

	mu    sync.Mutex
	state State
}

// New restores the last manual request from storage, if any. Nothing is
// sent.
func New(sender protocol.Sender, st storage.Store) *Negotiator {
	n := &Negotiator{sender: sender, storage: st}

	ws, wok := st.Get(KeyManualWidth)
	hs, hok := st.Get(KeyManualHeight)
	if wok && hok && ws != "" && hs != "" {
		w, werr := strconv.Atoi(ws)
		h, herr := strconv.Atoi(hs)
		if werr == nil && herr == nil && Quantize(w) > 0 && Quantize(h) > 0 {
			n.state = State{Mode: ModeManual, Width: Quantize(w), Height: Quantize(h)}
		} else {
			logging.Warn("Resolution", "Ignoring persisted manual resolution %sx%s", ws, hs)
		}
	}
	return n
}

func validate(input string, w, h int) (int, int, error) {
	if w <= 0 || h <= 0 {
		return 0, 0, &ValidationError{Input: input, Reason: "width and height must be positive"}
	}
	qw, qh := Quantize(w), Quantize(h)
	if qw == 0 || qh == 0 {
		return 0, 0, &ValidationError{Input: input, Reason: "dimensions must be at least 2 pixels"}
	}
	return qw, qh, nil
}

// SelectPreset applies a "WxH" preset as a manual resolution request.
func (n *Negotiator) SelectPreset(label string) error {
	w, h, err := ParsePreset(label)
	if err != nil {
		return err
	}
	qw, qh, err := validate(label, w, h)
	if err != nil {
		return err
	}
	n.apply(State{Mode: ModePreset, Preset: label, Width: qw, Height: qh})
	return nil
}

// SubmitManual requests an explicit width and height.
func (n *Negotiator) SubmitManual(w, h int) error {
	qw, qh, err := validate(fmt.Sprintf("%dx%d", w, h), w, h)
	if err != nil {
		return err
	}
	n.apply(State{Mode: ModeManual, Width: qw, Height: qh})
	return nil
}

// SubmitManualText parses the manual fields as typed by the user.
func (n *Negotiator) SubmitManualText(width, height string) error {
	input := width + "x" + height
	w, err := strconv.Atoi(strings.TrimSpace(width))
	if err != nil {
		return &ValidationError{Input: input, Reason: "width is not an integer"}
	}
	h, err := strconv.Atoi(strings.TrimSpace(height))
	if err != nil {
		return &ValidationError{Input: input, Reason: "height is not an integer"}
	}
	return n.SubmitManual(w, h)
}

// SubmitFields submits the currently edited manual fields.
func (n *Negotiator) SubmitFields() error {
	s := n.State()
	return n.SubmitManual(s.Width, s.Height)
}

func (n *Negotiator) apply(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()

	n.persist(strconv.Itoa(s.Width), strconv.Itoa(s.Height))
	n.sender.Send(protocol.SetManualResolution(s.Width, s.Height))
	logging.Info("Resolution", "Requested %dx%d (%s)", s.Width, s.Height, s.Mode)
}

func (n *Negotiator) persist(w, h string) {
	if err := n.storage.Set(KeyManualWidth, w); err != nil {
		logging.Error("Resolution", err, "Failed to persist manual width")
	}
	if err := n.storage.Set(KeyManualHeight, h); err != nil {
		logging.Error("Resolution", err, "Failed to persist manual height")
	}
}

// EditWidth changes the width field by hand, deselecting any preset.
// Nothing is sent until the fields are submitted.
func (n *Negotiator) EditWidth(w int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Width = w
	n.state.Preset = ""
	n.state.Mode = ModeManual
}

// EditHeight is EditWidth for the height field.
func (n *Negotiator) EditHeight(h int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Height = h
	n.state.Preset = ""
	n.state.Mode = ModeManual
}

// ResetToWindow clears preset and manual state and lets the host follow
// the window size.
func (n *Negotiator) ResetToWindow() {
	n.mu.Lock()
	n.state = State{Mode: ModeWindow}
	n.mu.Unlock()

	for _, k := range []string{KeyManualWidth, KeyManualHeight} {
		if err := n.storage.Delete(k); err != nil {
			logging.Error("Resolution", err, "Failed to clear %s", k)
		}
	}
	n.sender.Send(protocol.ResetResolutionToWindow())
	logging.Info("Resolution", "Reset resolution to window")
}

func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}
