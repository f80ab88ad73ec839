// Package settings implements the dashboard's validated, persisted and
// debounced settings store.
//
// Every setter validates against the setting's fixed domain, updates
// memory and storage immediately and schedules a debounced command to the
// host. Snapshots reported by the host are adopted without echoing a
// command back.
package settings

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"streamdash/internal/clock"
	"streamdash/internal/protocol"
	"streamdash/internal/storage"
	"streamdash/pkg/logging"
)

// ValidationError reports a value outside a setting's domain.
type ValidationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %v for %s: %s", e.Value, e.Key, e.Reason)
}

// ScalingNotifier is told when the UI scaling changes, which only takes
// effect after a restart.
type ScalingNotifier interface {
	ScalingChanged(dpi int)
}

// Values is a point-in-time copy of every setting.
type Values struct {
	Encoder      string
	Framerate    int
	Bitrate      int
	BufferSize   int
	CRF          int
	FullColor    bool
	ScalingDPI   int
	ScaleLocally bool
	HiDPI        bool
	Theme        string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for debounced sends.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithScalingNotifier sets who is told about UI scaling changes.
func WithScalingNotifier(n ScalingNotifier) Option {
	return func(s *Store) { s.notifier = n }
}

// Store holds the current settings. It is the only writer of its keys in
// storage.
type Store struct {
	storage  storage.Store
	sender   protocol.Sender
	clock    clock.Clock
	notifier ScalingNotifier
	debounce *debouncer

	// writeMu orders Load, Set and host adoption so memory and storage
	// always end up holding the same value.
	writeMu sync.Mutex

	mu       sync.Mutex
	values   map[string]any
	encoders []string
}

// New returns a store holding defaults. Call Load to read persisted values.
func New(st storage.Store, sender protocol.Sender, opts ...Option) *Store {
	s := &Store{
		storage:  st,
		sender:   sender,
		clock:    clock.Real(),
		values:   make(map[string]any, len(definitions)),
		encoders: slices.Clone(Encoders),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range definitions {
		s.values[d.Key] = d.Default
	}
	s.debounce = newDebouncer(s.clock, DebounceWindow, s.sendCommand)
	return s
}

func (s *Store) sendCommand(cmd protocol.Command) {
	if s.sender == nil {
		return
	}
	logging.Debug("Settings", "Sending debounced %s", cmd.Type)
	s.sender.Send(cmd)
}

// Load reads every setting from storage. Missing or out-of-domain values
// fall back to the default, which is written back.
func (s *Store) Load() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, d := range definitions {
		raw, ok := s.storage.Get(d.Key)
		value := d.Default
		if ok {
			parsed, err := d.Parse(raw)
			if err == nil {
				value = parsed
			} else {
				logging.Warn("Settings", "Persisted %s=%q is invalid (%v), using default %v", d.Key, raw, err, d.Default)
				ok = false
			}
		}

		s.mu.Lock()
		s.values[d.Key] = value
		s.mu.Unlock()

		if !ok {
			s.persist(d, value)
		}
	}
	logging.Debug("Settings", "Loaded %d settings from storage", len(definitions))
}

func (s *Store) persist(d Definition, v any) {
	if err := s.storage.Set(d.Key, d.Format(v)); err != nil {
		logging.Error("Settings", err, "Failed to persist %s", d.Key)
	}
}

// Set validates and applies a value for any known key. It is the common
// path of every typed setter. Changing the UI scaling raises the
// restart-required notification.
func (s *Store) Set(key string, v any) error {
	if err := s.set(key, v); err != nil {
		return err
	}
	if key == KeyScalingDPI && s.notifier != nil {
		dpi, _ := s.Get(KeyScalingDPI)
		s.notifier.ScalingChanged(dpi.(int))
	}
	return nil
}

func (s *Store) set(key string, v any) error {
	d, ok := Lookup(key)
	if !ok {
		return &ValidationError{Key: key, Value: v, Reason: "unknown setting"}
	}
	value, err := d.Normalize(v)
	if err != nil {
		return &ValidationError{Key: key, Value: v, Reason: err.Error()}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if key == KeyEncoder && !slices.Contains(s.encoders, value.(string)) {
		available := slices.Clone(s.encoders)
		s.mu.Unlock()
		return &ValidationError{Key: key, Value: v, Reason: fmt.Sprintf("host offers only %v", available)}
	}
	s.values[key] = value
	s.mu.Unlock()

	s.persist(d, value)
	if d.command != nil {
		s.debounce.Schedule(key, d.command(value))
	}
	logging.Debug("Settings", "Set %s=%v", key, value)
	return nil
}

func (s *Store) SetEncoder(name string) error { return s.Set(KeyEncoder, name) }
func (s *Store) SetFramerate(fps int) error { return s.Set(KeyFramerate, fps) }
func (s *Store) SetBitrate(kbps int) error { return s.Set(KeyBitrate, kbps) }
func (s *Store) SetBufferSize(n int) error { return s.Set(KeyBufferSize, n) }
func (s *Store) SetCRF(v int) error { return s.Set(KeyCRF, v) }
func (s *Store) SetFullColor(on bool) error { return s.Set(KeyFullColor, on) }
func (s *Store) SetScaleLocally(on bool) error { return s.Set(KeyScaleLocally, on) }
func (s *Store) SetHiDPI(on bool) error { return s.Set(KeyHiDPI, on) }
func (s *Store) SetTheme(theme string) error { return s.Set(KeyTheme, theme) }

func (s *Store) SetUIScaling(dpi int) error { return s.Set(KeyScalingDPI, dpi) }

// Step moves an enumerated setting delta positions through its domain,
// wrapping at either end. Booleans are toggled. It backs key-driven UIs.
func (s *Store) Step(key string, delta int) error {
	d, ok := Lookup(key)
	if !ok {
		return &ValidationError{Key: key, Reason: "unknown setting"}
	}
	current, _ := s.Get(key)

	var next any
	switch {
	case d.Kind == KindBool:
		next = !current.(bool)
	case key == KeyEncoder:
		next = stepIn(s.EncoderOptions(), current.(string), delta)
	case d.Strings != nil:
		next = stepIn(d.Strings, current.(string), delta)
	case d.Ints != nil:
		next = stepIn(d.Ints, current.(int), delta)
	default:
		span := d.Max - d.Min + 1
		next = d.Min + ((current.(int)-d.Min+delta)%span+span)%span
	}

	return s.Set(key, next)
}

func stepIn[T comparable](options []T, current T, delta int) T {
	if len(options) == 0 {
		return current
	}
	i := slices.Index(options, current)
	if i < 0 {
		return options[0]
	}
	n := len(options)
	return options[((i+delta)%n+n)%n]
}

// AdoptInitial applies the host's session snapshot. Each field is adopted
// independently; unknown keys and out-of-domain values are dropped. No
// command is sent and any pending send for an adopted key is cancelled.
// It returns the number of fields adopted.
func (s *Store) AdoptInitial(fields map[string]json.RawMessage) int {
	adopted := 0
	for key, raw := range fields {
		if s.adopt(key, raw) {
			adopted++
		}
	}
	return adopted
}

// AdoptServer applies a serverSettings event: the encoder list narrows the
// selectable encoders and any settings are adopted like AdoptInitial.
func (s *Store) AdoptServer(evt protocol.ServerSettings) int {
	if len(evt.Encoders) > 0 {
		s.narrowEncoders(evt.Encoders)
	}
	return s.AdoptInitial(evt.Settings)
}

func (s *Store) narrowEncoders(offered []string) {
	var available []string
	for _, e := range Encoders {
		if slices.Contains(offered, e) {
			available = append(available, e)
		}
	}
	if len(available) == 0 {
		logging.Warn("Settings", "Host offered no known encoders (%v), keeping full list", offered)
		available = slices.Clone(Encoders)
	}

	s.mu.Lock()
	s.encoders = available
	current := s.values[KeyEncoder].(string)
	s.mu.Unlock()

	if !slices.Contains(available, current) {
		logging.Warn("Settings", "Current encoder %s is not offered by the host (%v)", current, available)
	}
}

func (s *Store) adopt(key string, raw json.RawMessage) bool {
	d, ok := Lookup(key)
	if !ok {
		logging.Debug("Settings", "Ignoring unknown host setting %s", key)
		return false
	}
	value, err := d.ParseJSON(raw)
	if err != nil {
		logging.Warn("Settings", "Dropping host value for %s: %v", key, err)
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.debounce.Cancel(key)
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	s.persist(d, value)
	logging.Debug("Settings", "Adopted host value %s=%v", key, value)
	return true
}

// Get returns the current value of key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// EncoderOptions returns the encoders currently selectable.
func (s *Store) EncoderOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.encoders)
}

// PendingSends returns the keys whose command is still waiting out the
// debounce window.
func (s *Store) PendingSends() []string {
	keys := s.debounce.Pending()
	slices.Sort(keys)
	return keys
}

// Values returns a copy of every setting.
func (s *Store) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Values{
		Encoder:      s.values[KeyEncoder].(string),
		Framerate:    s.values[KeyFramerate].(int),
		Bitrate:      s.values[KeyBitrate].(int),
		BufferSize:   s.values[KeyBufferSize].(int),
		CRF:          s.values[KeyCRF].(int),
		FullColor:    s.values[KeyFullColor].(bool),
		ScalingDPI:   s.values[KeyScalingDPI].(int),
		ScaleLocally: s.values[KeyScaleLocally].(bool),
		HiDPI:        s.values[KeyHiDPI].(bool),
		Theme:        s.values[KeyTheme].(string),
	}
}

// TargetFramerate is the FPS the telemetry gauge is normalised against.
func (s *Store) TargetFramerate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[KeyFramerate].(int)
}

// Close cancels all pending debounced sends. Setters keep updating memory
// and storage afterwards but nothing more is sent.
func (s *Store) Close() {
	s.debounce.Stop()
}
