package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for frames that are not a JSON object with a
	// string type field, or whose payload does not fit the declared type.
	ErrMalformed = errors.New("malformed message")

	// ErrUnknownType is returned for well-formed frames whose type is not in
	// the closed set known to the decoder.
	ErrUnknownType = errors.New("unknown message type")
)

type envelope struct {
	Type string `json:"type"`
}

// EncodeCommand marshals cmd as a flat `{"type": ..., ...payload}` object.
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd.Type == "" {
		return nil, fmt.Errorf("encode command: %w: empty type", ErrMalformed)
	}
	return flatten(cmd.Type, cmd.Payload)
}

// EncodeEvent marshals evt as a flat `{"type": ..., ...payload}` object.
func EncodeEvent(evt Event) ([]byte, error) {
	if evt == nil {
		return nil, fmt.Errorf("encode event: %w: nil event", ErrMalformed)
	}
	return flatten(evt.EventType(), evt)
}

// DecodeEvent parses an inbound frame into one of the concrete Event types.
func DecodeEvent(data []byte) (Event, error) {
	msgType, err := peekType(data)
	if err != nil {
		return nil, err
	}

	var evt Event
	switch msgType {
	case EvtPipelineStatusUpdate, EvtSidebarButtonStatusUpdate:
		evt, err = decodeInto[PipelineStatusUpdate](data)
	case EvtGamepadButtonUpdate:
		evt, err = decodeInto[GamepadButtonUpdate](data)
	case EvtGamepadAxisUpdate:
		evt, err = decodeInto[GamepadAxisUpdate](data)
	case EvtClipboardContentUpdate:
		evt, err = decodeInto[ClipboardContentUpdate](data)
	case EvtAudioDeviceStatusUpdate:
		evt, err = decodeInto[AudioDeviceStatusUpdate](data)
	case EvtFileUpload:
		evt, err = decodeInto[FileUpload](data)
	case EvtServerSettings:
		evt, err = decodeInto[ServerSettings](data)
	case EvtInitialClientSettings:
		evt, err = decodeInto[InitialClientSettings](data)
	case EvtSystemStats:
		evt, err = decodeInto[SystemStats](data)
	case EvtGPUStats:
		evt, err = decodeInto[GPUStats](data)
	case EvtClientStats:
		evt, err = decodeInto[ClientStats](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msgType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", msgType, err)
	}
	return evt, nil
}

// DecodeCommand parses a dashboard frame on the host side.
func DecodeCommand(data []byte) (Command, error) {
	msgType, err := peekType(data)
	if err != nil {
		return Command{}, err
	}

	var payload any
	switch msgType {
	case CmdSettings:
		payload, err = decodeInto[SettingsPayload](data)
	case CmdPipelineControl:
		payload, err = decodeInto[PipelineControlPayload](data)
	case CmdGamepadControl:
		payload, err = decodeInto[GamepadControlPayload](data)
	case CmdTouchGamepadSetup, CmdTouchGamepadVisibility:
		payload, err = decodeInto[TouchGamepadPayload](data)
	case CmdSetManualResolution:
		payload, err = decodeInto[ManualResolutionPayload](data)
	case CmdSetScaleLocally, CmdSetUseCSSScaling:
		payload, err = decodeInto[ValuePayload](data)
	case CmdAudioDeviceSelected:
		payload, err = decodeInto[AudioDeviceSelectedPayload](data)
	case CmdClipboardUpdateFromUI:
		payload, err = decodeInto[ClipboardPayload](data)
	case CmdAppAction:
		payload, err = decodeInto[AppActionPayload](data)
	case CmdResetResolutionToWindow, CmdRequestFullscreen, CmdShowVirtualKeyboard:
		payload = EmptyPayload{}
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownType, msgType)
	}
	if err != nil {
		return Command{}, fmt.Errorf("decode %s: %w", msgType, err)
	}
	return Command{Type: msgType, Payload: payload}, nil
}

func peekType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env.Type, nil
}

func decodeInto[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

// flatten merges the JSON object form of payload with the type field.
func flatten(msgType string, payload any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%s payload is not an object: %w", msgType, err)
		}
	}
	typeJSON, err := json.Marshal(msgType)
	if err != nil {
		return nil, err
	}
	fields["type"] = typeJSON
	return json.Marshal(fields)
}
