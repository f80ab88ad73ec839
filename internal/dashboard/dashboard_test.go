package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamdash/internal/audiodev"
	"streamdash/internal/channel"
	"streamdash/internal/clock"
	"streamdash/internal/notify"
	"streamdash/internal/protocol"
	"streamdash/internal/settings"
	"streamdash/internal/storage"
)

const origin = "https://dash.example.com"

type fakeClipboard struct {
	text     string
	writeErr error
}

func (f *fakeClipboard) ReadAll() (string, error) { return f.text, nil }

func (f *fakeClipboard) WriteAll(text string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.text = text
	return nil
}

type harness struct {
	dash      *Dashboard
	ch        *channel.Channel
	host      channel.Transport
	clock     *clock.FakeClock
	storage   *storage.Memory
	clipboard *fakeClipboard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dashEnd, hostEnd := channel.Pipe()
	h := &harness{
		ch:        channel.New(origin, dashEnd),
		host:      hostEnd,
		clock:     clock.Fake(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
		storage:   storage.NewMemory(),
		clipboard: &fakeClipboard{},
	}
	h.dash = New(h.ch, Config{
		Storage:   h.storage,
		Clock:     h.clock,
		Clipboard: h.clipboard,
		Audio: audiodev.Static{
			{ID: "mic", Label: "Mic", Context: protocol.AudioInput},
		},
	})
	h.dash.Start(context.Background())
	t.Cleanup(func() { _ = h.dash.Close() })
	return h
}

// hostReceive drains the commands the host has been sent so far.
func (h *harness) hostReceive(t *testing.T) []protocol.Command {
	t.Helper()
	var cmds []protocol.Command
	for {
		select {
		case env, ok := <-h.host.Inbound():
			if !ok {
				return cmds
			}
			assert.Equal(t, origin, env.Origin)
			cmd, err := protocol.DecodeCommand(env.Data)
			require.NoError(t, err)
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

// hostSend delivers an event through the channel's origin check.
func (h *harness) hostSend(t *testing.T, evt protocol.Event) {
	t.Helper()
	data, err := protocol.EncodeEvent(evt)
	require.NoError(t, err)
	require.True(t, h.ch.Dispatch(channel.Envelope{Origin: origin, Data: data}))
}

func TestBitrateDrag_EndToEnd(t *testing.T) {
	h := newHarness(t)
	h.hostReceive(t)

	for _, kbps := range []int{2000, 4000, 8000, 16000} {
		require.NoError(t, h.dash.Settings.SetBitrate(kbps))
		h.clock.Advance(50 * time.Millisecond)
	}
	assert.Empty(t, h.hostReceive(t))

	h.clock.Advance(settings.DebounceWindow)
	cmds := h.hostReceive(t)
	require.Len(t, cmds, 1)
	assert.Equal(t, protocol.CmdSettings, cmds[0].Type)
	payload := cmds[0].Payload.(protocol.SettingsPayload)
	assert.Equal(t, map[string]any{settings.KeyBitrate: float64(16000)}, payload.Settings)

	raw, _ := h.storage.Get(settings.KeyBitrate)
	assert.Equal(t, "16000", raw)
}

func TestInitialClientSettings_NoEcho(t *testing.T) {
	h := newHarness(t)
	h.hostReceive(t)

	h.hostSend(t, protocol.InitialClientSettings{Settings: map[string]json.RawMessage{
		settings.KeyEncoder:   json.RawMessage(`"nvh264enc"`),
		settings.KeyFramerate: json.RawMessage(`37`),
	}})
	h.clock.Advance(time.Second)

	assert.Empty(t, h.hostReceive(t))
	state := h.dash.Snapshot()
	assert.Equal(t, "nvh264enc", state.Settings.Encoder)
	assert.Equal(t, 60, state.Settings.Framerate)
}

func TestForeignOriginIsIgnored(t *testing.T) {
	h := newHarness(t)

	data, err := protocol.EncodeEvent(protocol.ClipboardContentUpdate{Text: "secret"})
	require.NoError(t, err)
	assert.False(t, h.ch.Dispatch(channel.Envelope{Origin: "https://evil.example.com", Data: data}))
	assert.Empty(t, h.dash.Snapshot().HostClipboard)
	assert.Equal(t, int64(1), h.dash.Snapshot().Channel.Rejected)
}

func TestPipelineStatus_SparseAndToggle(t *testing.T) {
	h := newHarness(t)
	h.hostReceive(t)

	h.hostSend(t, protocol.PipelineStatusUpdate{Video: protocol.Bool(true), Audio: protocol.Bool(true)})
	h.hostSend(t, protocol.PipelineStatusUpdate{Audio: protocol.Bool(false), Gamepad: protocol.Bool(false)})

	state := h.dash.Snapshot()
	assert.Equal(t, Pipelines{Video: true, Audio: false, Microphone: false}, state.Pipelines)
	assert.False(t, state.GamepadEnabled)

	require.NoError(t, h.dash.TogglePipeline(protocol.PipelineVideo))
	require.NoError(t, h.dash.TogglePipeline(protocol.PipelineMicrophone))
	assert.Error(t, h.dash.TogglePipeline("webcam"))

	assert.Equal(t, []protocol.Command{
		protocol.PipelineControl(protocol.PipelineVideo, false),
		protocol.PipelineControl(protocol.PipelineMicrophone, true),
	}, h.hostReceive(t))
}

func TestGamepadEvents(t *testing.T) {
	h := newHarness(t)

	h.hostSend(t, protocol.GamepadAxisUpdate{GamepadIndex: 0, AxisIndex: 1, Value: 0.75})
	h.hostSend(t, protocol.GamepadButtonUpdate{GamepadIndex: 0, ButtonIndex: 2, Value: 1})

	pads := h.dash.Snapshot().Gamepads
	require.Len(t, pads, 1)
	assert.Equal(t, map[int]float64{1: 0.75}, pads[0].Axes)
	assert.Equal(t, map[int]float64{2: 1}, pads[0].Buttons)

	h.hostReceive(t)
	h.dash.SetGamepadEnabled(false)
	assert.Equal(t, []protocol.Command{protocol.GamepadControl(false)}, h.hostReceive(t))
}

func TestFileUploadNotifications(t *testing.T) {
	h := newHarness(t)

	h.hostSend(t, protocol.FileUpload{Payload: protocol.FileUploadPayload{Status: protocol.UploadStart, FileName: "movie.mkv"}})
	h.hostSend(t, protocol.FileUpload{Payload: protocol.FileUploadPayload{Status: protocol.UploadProgress, FileName: "movie.mkv", Progress: protocol.Float(40)}})
	h.hostSend(t, protocol.FileUpload{Payload: protocol.FileUploadPayload{Status: protocol.UploadProgress, FileName: "movie.mkv", Progress: protocol.Float(70)}})

	items := h.dash.Snapshot().Notifications
	require.Len(t, items, 1)
	assert.Equal(t, "upload-movie.mkv", items[0].ID)
	assert.Equal(t, 70.0, items[0].Progress)

	h.hostSend(t, protocol.FileUpload{Payload: protocol.FileUploadPayload{Status: protocol.UploadEnd, FileName: "movie.mkv"}})
	h.clock.Advance(notify.UploadCompleteTimeout)
	assert.Empty(t, h.dash.Snapshot().Notifications)
}

func TestUIScalingRaisesNotification(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.dash.Settings.SetUIScaling(144))
	items := h.dash.Snapshot().Notifications
	require.Len(t, items, 1)
	assert.Equal(t, notify.ScalingID, items[0].ID)
}

func TestStatsEventsFeedTelemetry(t *testing.T) {
	h := newHarness(t)

	h.hostSend(t, protocol.SystemStats{CPUPercent: protocol.Float(12), MemUsed: protocol.Float(1 << 30), MemTotal: protocol.Float(4 << 30)})
	h.hostSend(t, protocol.ClientStats{FPS: protocol.Float(30)})
	h.clock.Advance(100 * time.Millisecond)

	tel := h.dash.Snapshot().Telemetry
	assert.Equal(t, 12.0, tel.CPU.Percent)
	assert.Equal(t, 25.0, tel.SysMem.Percent)
	assert.Equal(t, 50.0, tel.FPS.Percent)
	assert.False(t, tel.GPU.Available)
}

func TestClipboard(t *testing.T) {
	h := newHarness(t)
	h.hostReceive(t)

	assert.Error(t, h.dash.CopyClipboard())

	h.hostSend(t, protocol.ClipboardContentUpdate{Text: "from host"})
	require.NoError(t, h.dash.CopyClipboard())
	assert.Equal(t, "from host", h.clipboard.text)
	_, ok := h.dash.Notifications.Get(notify.CopyID)
	assert.True(t, ok)

	h.clipboard.text = "from local"
	require.NoError(t, h.dash.PushLocalClipboard())
	h.dash.PushClipboard("typed")
	assert.Equal(t, []protocol.Command{
		protocol.ClipboardUpdateFromUI("from local"),
		protocol.ClipboardUpdateFromUI("typed"),
	}, h.hostReceive(t))

	h.clipboard.writeErr = errors.New("no display")
	assert.Error(t, h.dash.CopyClipboard())
	var errorItems int
	for _, it := range h.dash.Snapshot().Notifications {
		if it.Status == notify.StatusError {
			errorItems++
		}
	}
	assert.Equal(t, 1, errorItems)
}

func TestFullscreenAndKeyboard(t *testing.T) {
	h := newHarness(t)
	h.hostReceive(t)

	h.dash.RequestFullscreen()
	h.dash.ShowVirtualKeyboard()
	assert.Equal(t, []protocol.Command{
		{Type: protocol.CmdRequestFullscreen, Payload: protocol.EmptyPayload{}},
		{Type: protocol.CmdShowVirtualKeyboard, Payload: protocol.EmptyPayload{}},
	}, h.hostReceive(t))
}

func TestAudioSectionAndStatus(t *testing.T) {
	h := newHarness(t)
	h.hostReceive(t)

	state := h.dash.Snapshot().Audio
	assert.Len(t, state.Inputs, 1)
	assert.Empty(t, state.Error)

	require.NoError(t, h.dash.Audio.Select(protocol.AudioInput, "mic"))
	assert.Len(t, h.hostReceive(t), 1)

	h.hostSend(t, protocol.AudioDeviceStatusUpdate{OutputDeviceID: protocol.String("hdmi")})
	assert.Equal(t, "hdmi", h.dash.Snapshot().Audio.SelectedOutput)
	assert.Equal(t, "mic", h.dash.Snapshot().Audio.SelectedInput)
}

func TestClose_ClearsAllTimers(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.dash.Settings.SetFramerate(30))
	h.dash.Notifications.CopyConfirmed()
	require.NotZero(t, h.clock.PendingCount())

	require.NoError(t, h.dash.Close())
	assert.Zero(t, h.clock.PendingCount())
	require.NoError(t, h.dash.Close())

	h.clock.Advance(time.Minute)
	assert.Empty(t, h.hostReceive(t))
}
