// Package hostsim is a loopback streaming host. It speaks the dashboard
// protocol over any channel.Transport, answers control commands with
// status events and emits synthetic telemetry. It backs `streamdash host`,
// the demo mode and end-to-end tests.
package hostsim

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"streamdash/internal/channel"
	"streamdash/internal/clock"
	"streamdash/internal/protocol"
	"streamdash/pkg/logging"
)

// DefaultStatsInterval is how often stats events are emitted.
const DefaultStatsInterval = time.Second

// Options configures a Host. Zero values get defaults.
type Options struct {
	Clock         clock.Clock
	StatsInterval time.Duration
	Encoders      []string
	Settings      map[string]any
	Clipboard     string
}

// Host is one simulated streaming session.
type Host struct {
	origin    string
	transport channel.Transport
	clock     clock.Clock
	interval  time.Duration
	encoders  []string
	commands  protocol.Recorder

	mu        sync.Mutex
	settings  map[string]any
	pipelines map[protocol.Pipeline]bool
	gamepad   bool
	clipboard string
	ticks     int
	timer     *clock.Timer
	running   bool
}

// New creates a host on t. Messages are stamped with origin and inbound
// frames from any other origin are ignored.
func New(t channel.Transport, origin string, opts Options) *Host {
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	interval := opts.StatsInterval
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	encoders := opts.Encoders
	if len(encoders) == 0 {
		encoders = []string{"x264enc", "nvh264enc"}
	}
	settings := map[string]any{
		"encoder":        "x264enc",
		"videoFramerate": 60,
		"videoBitRate":   8000,
	}
	for k, v := range opts.Settings {
		settings[k] = v
	}

	return &Host{
		origin:    origin,
		transport: t,
		clock:     c,
		interval:  interval,
		encoders:  encoders,
		settings:  settings,
		pipelines: map[protocol.Pipeline]bool{
			protocol.PipelineVideo:      true,
			protocol.PipelineAudio:      true,
			protocol.PipelineMicrophone: false,
		},
		gamepad:   true,
		clipboard: opts.Clipboard,
	}
}

// Start sends the session snapshot and begins emitting stats.
func (h *Host) Start() {
	h.mu.Lock()
	snapshot := make(map[string]json.RawMessage, len(h.settings))
	for k, v := range h.settings {
		raw, err := json.Marshal(v)
		if err == nil {
			snapshot[k] = raw
		}
	}
	status := h.statusLocked()
	clip := h.clipboard
	h.running = true
	h.timer = h.clock.AfterFunc(h.interval, h.tick)
	h.mu.Unlock()

	h.emit(protocol.InitialClientSettings{Settings: snapshot})
	h.emit(protocol.ServerSettings{Encoders: h.encoders})
	h.emit(status)
	if clip != "" {
		h.emit(protocol.ClipboardContentUpdate{Text: clip})
	}
	logging.Info("HostSim", "Session started")
}

// Stop halts the stats timer.
func (h *Host) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
	h.timer.Stop()
}

// Run handles inbound commands until ctx ends or the transport closes.
func (h *Host) Run(ctx context.Context) error {
	in := h.transport.Inbound()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				return nil
			}
			h.Handle(env)
		}
	}
}

// Handle processes one inbound frame.
func (h *Host) Handle(env channel.Envelope) {
	if env.Origin != h.origin {
		logging.Warn("HostSim", "Ignoring command from origin %q", env.Origin)
		return
	}
	cmd, err := protocol.DecodeCommand(env.Data)
	if err != nil {
		logging.Warn("HostSim", "Ignoring command: %v", err)
		return
	}
	h.commands.Send(cmd)
	logging.Debug("HostSim", "Received %s", cmd.Type)

	switch p := cmd.Payload.(type) {
	case protocol.SettingsPayload:
		h.mu.Lock()
		for k, v := range p.Settings {
			h.settings[k] = v
		}
		h.mu.Unlock()

	case protocol.PipelineControlPayload:
		h.mu.Lock()
		h.pipelines[p.Pipeline] = p.Enabled
		h.mu.Unlock()
		h.emit(pipelineStatus(p.Pipeline, p.Enabled))

	case protocol.GamepadControlPayload:
		h.mu.Lock()
		h.gamepad = p.Enabled
		h.mu.Unlock()
		h.emit(protocol.PipelineStatusUpdate{Gamepad: protocol.Bool(p.Enabled)})

	case protocol.ClipboardPayload:
		h.mu.Lock()
		h.clipboard = p.Text
		h.mu.Unlock()
		h.emit(protocol.ClipboardContentUpdate{Text: p.Text})

	case protocol.AudioDeviceSelectedPayload:
		evt := protocol.AudioDeviceStatusUpdate{}
		if p.Context == protocol.AudioInput {
			evt.InputDeviceID = protocol.String(p.DeviceID)
		} else {
			evt.OutputDeviceID = protocol.String(p.DeviceID)
		}
		h.emit(evt)
	}
}

func pipelineStatus(p protocol.Pipeline, on bool) protocol.PipelineStatusUpdate {
	var evt protocol.PipelineStatusUpdate
	switch p {
	case protocol.PipelineVideo:
		evt.Video = protocol.Bool(on)
	case protocol.PipelineAudio:
		evt.Audio = protocol.Bool(on)
	case protocol.PipelineMicrophone:
		evt.Microphone = protocol.Bool(on)
	}
	return evt
}

func (h *Host) statusLocked() protocol.PipelineStatusUpdate {
	return protocol.PipelineStatusUpdate{
		Video:      protocol.Bool(h.pipelines[protocol.PipelineVideo]),
		Audio:      protocol.Bool(h.pipelines[protocol.PipelineAudio]),
		Microphone: protocol.Bool(h.pipelines[protocol.PipelineMicrophone]),
		Gamepad:    protocol.Bool(h.gamepad),
	}
}

func (h *Host) tick() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.ticks++
	n := float64(h.ticks)
	fps := 60.0
	if v, ok := h.settings["videoFramerate"]; ok {
		if f, ok := toFloat(v); ok {
			fps = f
		}
	}
	h.timer = h.clock.AfterFunc(h.interval, h.tick)
	h.mu.Unlock()

	const gib = 1 << 30
	h.emit(protocol.SystemStats{
		CPUPercent: protocol.Float(35 + 25*math.Sin(n/5)),
		MemUsed:    protocol.Float(6*gib + gib*math.Sin(n/7)),
		MemTotal:   protocol.Float(16 * gib),
	})
	h.emit(protocol.GPUStats{
		GPUPercent: protocol.Float(50 + 30*math.Sin(n/4)),
		MemUsed:    protocol.Float(2*gib + 0.5*gib*math.Cos(n/6)),
		MemTotal:   protocol.Float(8 * gib),
	})
	h.emit(protocol.ClientStats{
		FPS:          protocol.Float(math.Max(0, fps-3+3*math.Sin(n/3))),
		AudioBuffers: protocol.Float(float64(3 + h.ticks%5)),
	})
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// SimulateUpload emits a start event, progress in quarters one interval
// apart, then end.
func (h *Host) SimulateUpload(fileName string, size int64) {
	h.emit(protocol.FileUpload{Payload: protocol.FileUploadPayload{
		Status: protocol.UploadStart, FileName: fileName, FileSize: &size,
	}})
	var step func(pct float64)
	step = func(pct float64) {
		if pct >= 100 {
			h.emit(protocol.FileUpload{Payload: protocol.FileUploadPayload{Status: protocol.UploadEnd, FileName: fileName}})
			return
		}
		h.emit(protocol.FileUpload{Payload: protocol.FileUploadPayload{
			Status: protocol.UploadProgress, FileName: fileName, Progress: protocol.Float(pct),
		}})
		h.clock.AfterFunc(h.interval, func() { step(pct + 25) })
	}
	h.clock.AfterFunc(h.interval, func() { step(25) })
}

// FailUpload emits an error event for fileName.
func (h *Host) FailUpload(fileName, message string) {
	h.emit(protocol.FileUpload{Payload: protocol.FileUploadPayload{
		Status: protocol.UploadError, FileName: fileName, Message: message,
	}})
}

// Emit sends an arbitrary event to the dashboard.
func (h *Host) Emit(evt protocol.Event) { h.emit(evt) }

func (h *Host) emit(evt protocol.Event) {
	data, err := protocol.EncodeEvent(evt)
	if err != nil {
		logging.Error("HostSim", err, "Failed to encode %s", evt.EventType())
		return
	}
	if err := h.transport.Post(h.origin, data); err != nil && !errors.Is(err, channel.ErrClosed) {
		logging.Warn("HostSim", "Failed to send %s: %v", evt.EventType(), err)
	}
}

// Commands returns every command received so far.
func (h *Host) Commands() []protocol.Command {
	return h.commands.Commands()
}

// Setting returns the host's current value for a settings key.
func (h *Host) Setting(key string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.settings[key]
	return v, ok
}

// Pipeline reports whether p is enabled on the host.
func (h *Host) Pipeline(p protocol.Pipeline) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pipelines[p]
}
