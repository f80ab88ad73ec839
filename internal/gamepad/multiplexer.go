// Package gamepad aggregates physical gamepad deltas reported by the host
// and manages the touch-emulated gamepad overlay.
package gamepad

import (
	"maps"
	"math"
	"strings"
	"sync"

	"streamdash/internal/protocol"
	"streamdash/pkg/logging"
)

// MaxSlots is the number of gamepad slots tracked.
const MaxSlots = 4

// DefaultTouchTarget is the host element the touch overlay mounts on.
const DefaultTouchTarget = "gamepad-touch-surface"

// Slot is a copy of one gamepad's sparse state.
type Slot struct {
	Index   int
	Buttons map[int]float64
	Axes    map[int]float64
}

type slotState struct {
	buttons map[int]float64
	axes    map[int]float64
}

// Multiplexer owns the slot table. Physical updates are always ingested;
// touch mode only hides them from Visible.
type Multiplexer struct {
	sender protocol.Sender
	target string
	mobile bool

	mu      sync.Mutex
	slots   [MaxSlots]*slotState
	touch   bool
	enabled bool
}

// New returns a multiplexer that mounts the touch overlay on target. On a
// mobile device touch mode is turned on by Start.
func New(sender protocol.Sender, target string, mobile bool) *Multiplexer {
	if target == "" {
		target = DefaultTouchTarget
	}
	return &Multiplexer{
		sender:  sender,
		target:  target,
		mobile:  mobile,
		enabled: true,
	}
}

// Start applies the device default for touch mode.
func (m *Multiplexer) Start() {
	if m.mobile {
		logging.Info("Gamepad", "Mobile device detected, enabling touch gamepad")
		m.SetTouchMode(true)
	}
}

func (m *Multiplexer) slot(index int) *slotState {
	s := m.slots[index]
	if s == nil {
		s = &slotState{buttons: make(map[int]float64), axes: make(map[int]float64)}
		m.slots[index] = s
	}
	return s
}

func validIndex(slot, idx int, value float64) bool {
	if slot < 0 || slot >= MaxSlots {
		logging.Debug("Gamepad", "Ignoring update for slot %d (max %d)", slot, MaxSlots)
		return false
	}
	if idx < 0 || math.IsNaN(value) {
		logging.Debug("Gamepad", "Ignoring invalid update for slot %d index %d", slot, idx)
		return false
	}
	return true
}

// ApplyButton sets one button's pressure, clamped to [0,1]. Nothing else
// in the slot changes.
func (m *Multiplexer) ApplyButton(slot, button int, value float64) bool {
	if !validIndex(slot, button, value) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(slot).buttons[button] = math.Max(0, math.Min(1, value))
	return true
}

// ApplyAxis sets one axis value, clamped to [-1,1]. Nothing else in the
// slot changes.
func (m *Multiplexer) ApplyAxis(slot, axis int, value float64) bool {
	if !validIndex(slot, axis, value) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(slot).axes[axis] = math.Max(-1, math.Min(1, value))
	return true
}

// SetTouchMode switches the touch overlay. Turning it on mounts and shows
// the overlay; turning it off hides it.
func (m *Multiplexer) SetTouchMode(on bool) {
	m.mu.Lock()
	m.touch = on
	target := m.target
	m.mu.Unlock()

	if on {
		m.sender.Send(protocol.TouchGamepadSetup(target, true))
	}
	m.sender.Send(protocol.TouchGamepadVisibility(target, on))
	logging.Debug("Gamepad", "Touch mode set to %t", on)
}

func (m *Multiplexer) TouchMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touch
}

// SetEnabled turns gamepad input on or off on the host.
func (m *Multiplexer) SetEnabled(on bool) {
	m.mu.Lock()
	m.enabled = on
	m.mu.Unlock()
	m.sender.Send(protocol.GamepadControl(on))
}

// ApplyStatus adopts a host-reported enabled flag without sending.
func (m *Multiplexer) ApplyStatus(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

func (m *Multiplexer) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Slots returns every slot that has received data, touch mode or not.
func (m *Multiplexer) Slots() []Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for i, s := range m.slots {
		if s == nil {
			continue
		}
		out = append(out, Slot{Index: i, Buttons: maps.Clone(s.buttons), Axes: maps.Clone(s.axes)})
	}
	return out
}

// Visible returns the physical slots to render: none while touch mode is
// on.
func (m *Multiplexer) Visible() []Slot {
	if m.TouchMode() {
		return nil
	}
	return m.Slots()
}

var mobileMarkers = []string{"android", "iphone", "ipad", "ipod", "mobile", "blackberry", "iemobile", "opera mini"}

// IsMobileUserAgent guesses whether a browser user agent belongs to a
// touch device.
func IsMobileUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range mobileMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
