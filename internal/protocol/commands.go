package protocol

// Command types sent from the dashboard to the host.
const (
	CmdSettings                = "settings"
	CmdPipelineControl         = "pipelineControl"
	CmdGamepadControl          = "gamepadControl"
	CmdTouchGamepadSetup       = "TOUCH_GAMEPAD_SETUP"
	CmdTouchGamepadVisibility  = "TOUCH_GAMEPAD_VISIBILITY"
	CmdSetManualResolution     = "setManualResolution"
	CmdResetResolutionToWindow = "resetResolutionToWindow"
	CmdSetScaleLocally         = "setScaleLocally"
	CmdSetUseCSSScaling        = "setUseCssScaling"
	CmdAudioDeviceSelected     = "audioDeviceSelected"
	CmdClipboardUpdateFromUI   = "clipboardUpdateFromUI"
	CmdRequestFullscreen       = "requestFullscreen"
	CmdShowVirtualKeyboard     = "showVirtualKeyboard"
	CmdAppAction               = "appAction"
)

// Pipeline names a host media pipeline that can be toggled.
type Pipeline string

const (
	PipelineVideo      Pipeline = "video"
	PipelineAudio      Pipeline = "audio"
	PipelineMicrophone Pipeline = "microphone"
)

// Valid reports whether p is one of the known pipelines.
func (p Pipeline) Valid() bool {
	switch p {
	case PipelineVideo, PipelineAudio, PipelineMicrophone:
		return true
	}
	return false
}

// AudioContext selects which side of the audio path a device belongs to.
type AudioContext string

const (
	AudioInput  AudioContext = "input"
	AudioOutput AudioContext = "output"
)

// AppAction is an install-lifecycle intent for a catalog entry.
type AppAction string

const (
	AppInstall AppAction = "install"
	AppUpdate  AppAction = "update"
	AppRemove  AppAction = "remove"
)

// Command is a dashboard → host message. Payload is one of the *Payload
// types below and is marshalled flat next to the type field.
type Command struct {
	Type    string
	Payload any
}

type SettingsPayload struct {
	Settings map[string]any `json:"settings"`
}

type PipelineControlPayload struct {
	Pipeline Pipeline `json:"pipeline"`
	Enabled  bool     `json:"enabled"`
}

type GamepadControlPayload struct {
	Enabled bool `json:"enabled"`
}

// TouchGamepadTarget identifies the synthetic input surface on the host.
type TouchGamepadTarget struct {
	TargetDivID string `json:"targetDivId"`
	Visible     bool   `json:"visible"`
}

type TouchGamepadPayload struct {
	Payload TouchGamepadTarget `json:"payload"`
}

type ManualResolutionPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ValuePayload struct {
	Value bool `json:"value"`
}

type AudioDeviceSelectedPayload struct {
	Context  AudioContext `json:"context"`
	DeviceID string       `json:"deviceId"`
}

type ClipboardPayload struct {
	Text string `json:"text"`
}

type AppActionPayload struct {
	Action AppAction `json:"action"`
	Name   string    `json:"name"`
}

// EmptyPayload is used by commands that carry no fields.
type EmptyPayload struct{}

// Settings builds a settings command carrying a single changed key.
func Settings(key string, value any) Command {
	return Command{Type: CmdSettings, Payload: SettingsPayload{Settings: map[string]any{key: value}}}
}

func PipelineControl(p Pipeline, enabled bool) Command {
	return Command{Type: CmdPipelineControl, Payload: PipelineControlPayload{Pipeline: p, Enabled: enabled}}
}

func GamepadControl(enabled bool) Command {
	return Command{Type: CmdGamepadControl, Payload: GamepadControlPayload{Enabled: enabled}}
}

func TouchGamepadSetup(target string, visible bool) Command {
	return Command{Type: CmdTouchGamepadSetup, Payload: TouchGamepadPayload{
		Payload: TouchGamepadTarget{TargetDivID: target, Visible: visible},
	}}
}

func TouchGamepadVisibility(target string, visible bool) Command {
	return Command{Type: CmdTouchGamepadVisibility, Payload: TouchGamepadPayload{
		Payload: TouchGamepadTarget{TargetDivID: target, Visible: visible},
	}}
}

func SetManualResolution(width, height int) Command {
	return Command{Type: CmdSetManualResolution, Payload: ManualResolutionPayload{Width: width, Height: height}}
}

func ResetResolutionToWindow() Command {
	return Command{Type: CmdResetResolutionToWindow, Payload: EmptyPayload{}}
}

func SetScaleLocally(v bool) Command {
	return Command{Type: CmdSetScaleLocally, Payload: ValuePayload{Value: v}}
}

func SetUseCSSScaling(v bool) Command {
	return Command{Type: CmdSetUseCSSScaling, Payload: ValuePayload{Value: v}}
}

func AudioDeviceSelected(ctx AudioContext, deviceID string) Command {
	return Command{Type: CmdAudioDeviceSelected, Payload: AudioDeviceSelectedPayload{Context: ctx, DeviceID: deviceID}}
}

func ClipboardUpdateFromUI(text string) Command {
	return Command{Type: CmdClipboardUpdateFromUI, Payload: ClipboardPayload{Text: text}}
}

func RequestFullscreen() Command {
	return Command{Type: CmdRequestFullscreen, Payload: EmptyPayload{}}
}

func ShowVirtualKeyboard() Command {
	return Command{Type: CmdShowVirtualKeyboard, Payload: EmptyPayload{}}
}

func AppActionCommand(action AppAction, name string) Command {
	return Command{Type: CmdAppAction, Payload: AppActionPayload{Action: action, Name: name}}
}
