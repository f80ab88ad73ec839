// Package dashboard wires the dashboard components to the host channel:
// inbound events are routed to the component that owns them and user
// intents are turned into commands.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"streamdash/internal/audiodev"
	"streamdash/internal/catalog"
	"streamdash/internal/channel"
	"streamdash/internal/clock"
	"streamdash/internal/gamepad"
	"streamdash/internal/notify"
	"streamdash/internal/protocol"
	"streamdash/internal/resolution"
	"streamdash/internal/settings"
	"streamdash/internal/storage"
	"streamdash/internal/telemetry"
	"streamdash/pkg/logging"
)

// Config holds the collaborators and options for New. Zero values get
// sensible defaults except Storage, which is required.
type Config struct {
	Storage     storage.Store
	Clock       clock.Clock
	Audio       audiodev.Enumerator
	Clipboard   Clipboard
	CatalogURL  string
	TouchTarget string
	Mobile      bool

	CatalogOptions []catalog.Option
}

// Pipelines is the host-reported state of each media pipeline.
type Pipelines struct {
	Video      bool
	Audio      bool
	Microphone bool
}

// State is a read-only view of the whole dashboard for renderers.
type State struct {
	SessionID      string
	Settings       settings.Values
	EncoderOptions []string
	Telemetry      telemetry.Snapshot
	Notifications  []notify.Item
	Gamepads       []gamepad.Slot
	TouchMode      bool
	GamepadEnabled bool
	Resolution     resolution.State
	Pipelines      Pipelines
	HostClipboard  string
	Audio          audiodev.State
	Catalog        []catalog.Entry
	CatalogError   string
	Installed      []string
	Channel        channel.Stats
}

// Dashboard owns one of each component.
type Dashboard struct {
	id        string
	channel   *channel.Channel
	clipboard Clipboard

	Settings      *settings.Store
	Notifications *notify.Queue
	Gamepads      *gamepad.Multiplexer
	Resolution    *resolution.Negotiator
	Counters      *telemetry.Shared
	Sampler       *telemetry.Sampler
	Catalog       *catalog.Loader
	Audio         *audiodev.Section

	mu            sync.Mutex
	pipelines     Pipelines
	hostClipboard string
	closed        bool
}

// New builds a dashboard on ch and registers itself as the channel's
// event handler.
func New(ch *channel.Channel, cfg Config) *Dashboard {
	c := cfg.Clock
	if c == nil {
		c = clock.Real()
	}
	enum := cfg.Audio
	if enum == nil {
		enum = audiodev.Static{}
	}
	cb := cfg.Clipboard
	if cb == nil {
		cb = SystemClipboard{}
	}

	queue := notify.NewQueue(c)
	store := settings.New(cfg.Storage, ch, settings.WithClock(c), settings.WithScalingNotifier(queue))
	counters := telemetry.NewShared()

	d := &Dashboard{
		id:            uuid.NewString(),
		channel:       ch,
		clipboard:     cb,
		Settings:      store,
		Notifications: queue,
		Gamepads:      gamepad.New(ch, cfg.TouchTarget, cfg.Mobile),
		Resolution:    resolution.New(ch, cfg.Storage),
		Counters:      counters,
		Sampler:       telemetry.NewSampler(counters, store, c),
		Catalog:       catalog.New(cfg.CatalogURL, ch, cfg.Storage, cfg.CatalogOptions...),
		Audio:         audiodev.NewSection(enum, ch),
	}
	ch.OnMessage(d.HandleEvent)
	return d
}

// SessionID identifies this dashboard instance in logs.
func (d *Dashboard) SessionID() string { return d.id }

// Start loads persisted settings, applies device defaults, starts the
// telemetry poll and enumerates audio devices. Audio failures are kept in
// the audio section and do not fail Start.
func (d *Dashboard) Start(ctx context.Context) {
	d.Settings.Load()
	d.Gamepads.Start()
	d.Sampler.Start()
	if err := d.Audio.Refresh(ctx); err != nil {
		logging.Debug("Dashboard", "Audio section degraded: %v", err)
	}
	logging.Info("Dashboard", "Session %s started", d.id)
}

// LoadCatalog fetches the app catalog. Failures stay in the catalog panel.
func (d *Dashboard) LoadCatalog(ctx context.Context) {
	_ = d.Catalog.Load(ctx)
}

// HandleEvent routes one inbound event to its owner.
func (d *Dashboard) HandleEvent(evt protocol.Event) {
	switch e := evt.(type) {
	case protocol.PipelineStatusUpdate:
		d.applyPipelineStatus(e)
	case protocol.GamepadButtonUpdate:
		d.Gamepads.ApplyButton(e.GamepadIndex, e.ButtonIndex, e.Value)
	case protocol.GamepadAxisUpdate:
		d.Gamepads.ApplyAxis(e.GamepadIndex, e.AxisIndex, e.Value)
	case protocol.ClipboardContentUpdate:
		d.mu.Lock()
		d.hostClipboard = e.Text
		d.mu.Unlock()
	case protocol.AudioDeviceStatusUpdate:
		d.Audio.ApplyStatus(e)
	case protocol.FileUpload:
		d.Notifications.UploadEvent(e.Payload)
	case protocol.ServerSettings:
		d.Settings.AdoptServer(e)
	case protocol.InitialClientSettings:
		n := d.Settings.AdoptInitial(e.Settings)
		logging.Debug("Dashboard", "Adopted %d of %d initial settings", n, len(e.Settings))
	case protocol.SystemStats:
		d.Counters.ApplySystem(e)
	case protocol.GPUStats:
		d.Counters.ApplyGPU(e)
	case protocol.ClientStats:
		d.Counters.ApplyClient(e)
	default:
		logging.Warn("Dashboard", "No route for event %s", evt.EventType())
	}
}

func (d *Dashboard) applyPipelineStatus(e protocol.PipelineStatusUpdate) {
	d.mu.Lock()
	if e.Video != nil {
		d.pipelines.Video = *e.Video
	}
	if e.Audio != nil {
		d.pipelines.Audio = *e.Audio
	}
	if e.Microphone != nil {
		d.pipelines.Microphone = *e.Microphone
	}
	d.mu.Unlock()

	if e.Gamepad != nil {
		d.Gamepads.ApplyStatus(*e.Gamepad)
	}
}

// TogglePipeline asks the host to flip a pipeline. The displayed state
// changes when the host reports back.
func (d *Dashboard) TogglePipeline(p protocol.Pipeline) error {
	if !p.Valid() {
		return fmt.Errorf("toggle pipeline: unknown pipeline %q", p)
	}
	d.mu.Lock()
	var current bool
	switch p {
	case protocol.PipelineVideo:
		current = d.pipelines.Video
	case protocol.PipelineAudio:
		current = d.pipelines.Audio
	case protocol.PipelineMicrophone:
		current = d.pipelines.Microphone
	}
	d.mu.Unlock()

	d.channel.Send(protocol.PipelineControl(p, !current))
	return nil
}

func (d *Dashboard) SetGamepadEnabled(on bool) {
	d.Gamepads.SetEnabled(on)
}

// PushClipboard sends text to the host clipboard.
func (d *Dashboard) PushClipboard(text string) {
	d.channel.Send(protocol.ClipboardUpdateFromUI(text))
}

// PushLocalClipboard sends the local clipboard contents to the host.
func (d *Dashboard) PushLocalClipboard() error {
	text, err := d.clipboard.ReadAll()
	if err != nil {
		d.Notifications.Error("Clipboard", err.Error())
		return fmt.Errorf("read local clipboard: %w", err)
	}
	d.PushClipboard(text)
	return nil
}

// CopyClipboard copies the last host clipboard text to the local
// clipboard and confirms with a notification.
func (d *Dashboard) CopyClipboard() error {
	d.mu.Lock()
	text := d.hostClipboard
	d.mu.Unlock()

	if text == "" {
		return errors.New("copy clipboard: host clipboard is empty")
	}
	if err := d.clipboard.WriteAll(text); err != nil {
		d.Notifications.Error("Clipboard", err.Error())
		return fmt.Errorf("copy clipboard: %w", err)
	}
	d.Notifications.CopyConfirmed()
	return nil
}

func (d *Dashboard) RequestFullscreen() {
	d.channel.Send(protocol.RequestFullscreen())
}

func (d *Dashboard) ShowVirtualKeyboard() {
	d.channel.Send(protocol.ShowVirtualKeyboard())
}

// Snapshot returns a copy of everything a renderer needs.
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	pipelines := d.pipelines
	hostClipboard := d.hostClipboard
	d.mu.Unlock()

	entries, catalogErr := d.Catalog.Entries()
	errMsg := ""
	if catalogErr != nil && !errors.Is(catalogErr, catalog.ErrNotLoaded) {
		errMsg = catalogErr.Error()
	}

	return State{
		SessionID:      d.id,
		Settings:       d.Settings.Values(),
		EncoderOptions: d.Settings.EncoderOptions(),
		Telemetry:      d.Sampler.Latest(),
		Notifications:  d.Notifications.Items(),
		Gamepads:       d.Gamepads.Visible(),
		TouchMode:      d.Gamepads.TouchMode(),
		GamepadEnabled: d.Gamepads.Enabled(),
		Resolution:     d.Resolution.State(),
		Pipelines:      pipelines,
		HostClipboard:  hostClipboard,
		Audio:          d.Audio.State(),
		Catalog:        entries,
		CatalogError:   errMsg,
		Installed:      d.Catalog.Installed(),
		Channel:        d.channel.Stats(),
	}
}

// Close stops every timer and closes the channel. It is safe to call more
// than once.
func (d *Dashboard) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.Sampler.Stop()
	d.Settings.Close()
	d.Notifications.Close()
	logging.Info("Dashboard", "Session %s closed", d.id)
	return d.channel.Close()
}
