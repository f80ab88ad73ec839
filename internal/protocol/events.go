package protocol

import "encoding/json"

// Event types sent from the host to the dashboard.
const (
	EvtPipelineStatusUpdate      = "pipelineStatusUpdate"
	EvtSidebarButtonStatusUpdate = "sidebarButtonStatusUpdate"
	EvtGamepadButtonUpdate       = "gamepadButtonUpdate"
	EvtGamepadAxisUpdate         = "gamepadAxisUpdate"
	EvtClipboardContentUpdate    = "clipboardContentUpdate"
	EvtAudioDeviceStatusUpdate   = "audioDeviceStatusUpdate"
	EvtFileUpload                = "fileUpload"
	EvtServerSettings            = "serverSettings"
	EvtInitialClientSettings     = "initialClientSettings"
	EvtSystemStats               = "systemStats"
	EvtGPUStats                  = "gpuStats"
	EvtClientStats               = "clientStats"
)

// Event is a host → dashboard message. The set of implementations is
// closed; DecodeEvent rejects anything else.
type Event interface {
	EventType() string
}

// PipelineStatusUpdate is a sparse status report: nil fields are absent
// from the message and must not overwrite local state.
type PipelineStatusUpdate struct {
	Video      *bool `json:"video,omitempty"`
	Audio      *bool `json:"audio,omitempty"`
	Microphone *bool `json:"microphone,omitempty"`
	Gamepad    *bool `json:"gamepad,omitempty"`
}

type GamepadButtonUpdate struct {
	GamepadIndex int     `json:"gamepadIndex"`
	ButtonIndex  int     `json:"buttonIndex"`
	Value        float64 `json:"value"`
}

type GamepadAxisUpdate struct {
	GamepadIndex int     `json:"gamepadIndex"`
	AxisIndex    int     `json:"axisIndex"`
	Value        float64 `json:"value"`
}

type ClipboardContentUpdate struct {
	Text string `json:"text"`
}

type AudioDeviceStatusUpdate struct {
	InputDeviceID  *string `json:"inputDeviceId,omitempty"`
	OutputDeviceID *string `json:"outputDeviceId,omitempty"`
}

// Upload lifecycle statuses carried by FileUpload.
const (
	UploadStart    = "start"
	UploadProgress = "progress"
	UploadEnd      = "end"
	UploadError    = "error"
)

type FileUploadPayload struct {
	Status   string   `json:"status"`
	FileName string   `json:"fileName"`
	Progress *float64 `json:"progress,omitempty"`
	FileSize *int64   `json:"fileSize,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type FileUpload struct {
	Payload FileUploadPayload `json:"payload"`
}

// ServerSettings reports host capabilities. Settings, when present, is
// adopted like InitialClientSettings.
type ServerSettings struct {
	Encoders []string                   `json:"encoders,omitempty"`
	Settings map[string]json.RawMessage `json:"settings,omitempty"`
}

// InitialClientSettings is the host's snapshot of the session settings,
// sent once at session start. Values stay raw so each setting can decode
// its own type.
type InitialClientSettings struct {
	Settings map[string]json.RawMessage `json:"settings"`
}

type SystemStats struct {
	CPUPercent *float64 `json:"cpu_percent,omitempty"`
	MemUsed    *float64 `json:"mem_used,omitempty"`
	MemTotal   *float64 `json:"mem_total,omitempty"`
}

type GPUStats struct {
	GPUPercent *float64 `json:"gpu_percent,omitempty"`
	MemUsed    *float64 `json:"mem_used,omitempty"`
	MemTotal   *float64 `json:"mem_total,omitempty"`
}

type ClientStats struct {
	FPS          *float64 `json:"fps,omitempty"`
	AudioBuffers *float64 `json:"audio_buffers,omitempty"`
}

func (PipelineStatusUpdate) EventType() string { return EvtPipelineStatusUpdate }
func (GamepadButtonUpdate) EventType() string { return EvtGamepadButtonUpdate }
func (GamepadAxisUpdate) EventType() string { return EvtGamepadAxisUpdate }
func (ClipboardContentUpdate) EventType() string { return EvtClipboardContentUpdate }
func (AudioDeviceStatusUpdate) EventType() string { return EvtAudioDeviceStatusUpdate }
func (FileUpload) EventType() string { return EvtFileUpload }
func (ServerSettings) EventType() string { return EvtServerSettings }
func (InitialClientSettings) EventType() string { return EvtInitialClientSettings }
func (SystemStats) EventType() string { return EvtSystemStats }
func (GPUStats) EventType() string { return EvtGPUStats }
func (ClientStats) EventType() string { return EvtClientStats }

// Bool and Float are helpers for building sparse events.
func Bool(v bool) *bool { return &v }
func Float(v float64) *float64 { return &v }
func String(v string) *string { return &v }
