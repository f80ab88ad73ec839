package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommand_FlatWireShape(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "settings carries only the changed key",
			cmd:  Settings("videoBitRate", 16000),
			want: `{"type":"settings","settings":{"videoBitRate":16000}}`,
		},
		{
			name: "pipeline control",
			cmd:  PipelineControl(PipelineMicrophone, true),
			want: `{"type":"pipelineControl","pipeline":"microphone","enabled":true}`,
		},
		{
			name: "touch gamepad setup nests its payload",
			cmd:  TouchGamepadSetup("main", true),
			want: `{"type":"TOUCH_GAMEPAD_SETUP","payload":{"targetDivId":"main","visible":true}}`,
		},
		{
			name: "reset carries no dimensions",
			cmd:  ResetResolutionToWindow(),
			want: `{"type":"resetResolutionToWindow"}`,
		},
		{
			name: "audio device selection",
			cmd:  AudioDeviceSelected(AudioOutput, "speakers-1"),
			want: `{"type":"audioDeviceSelected","context":"output","deviceId":"speakers-1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeCommand(tt.cmd)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestEncodeCommand_EmptyType(t *testing.T) {
	_, err := EncodeCommand(Command{})
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecodeCommand_ManualResolution(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"setManualResolution","width":1920,"height":1080}`))
	require.NoError(t, err)
	assert.Equal(t, CmdSetManualResolution, cmd.Type)
	assert.Equal(t, ManualResolutionPayload{Width: 1920, Height: 1080}, cmd.Payload)
}

func TestDecodeEvent_SparsePipelineStatus(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"type":"pipelineStatusUpdate","audio":false}`))
	require.NoError(t, err)

	status, ok := evt.(PipelineStatusUpdate)
	require.True(t, ok)
	assert.Nil(t, status.Video)
	require.NotNil(t, status.Audio)
	assert.False(t, *status.Audio)
}

func TestDecodeEvent_SidebarAliasMapsToPipelineStatus(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"type":"sidebarButtonStatusUpdate","gamepad":true}`))
	require.NoError(t, err)
	status := evt.(PipelineStatusUpdate)
	require.NotNil(t, status.Gamepad)
	assert.True(t, *status.Gamepad)
}

func TestDecodeEvent_FileUpload(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"type":"fileUpload","payload":{"status":"progress","fileName":"a.txt","progress":40}}`))
	require.NoError(t, err)
	upload := evt.(FileUpload)
	assert.Equal(t, UploadProgress, upload.Payload.Status)
	assert.Equal(t, "a.txt", upload.Payload.FileName)
	require.NotNil(t, upload.Payload.Progress)
	assert.Equal(t, 40.0, *upload.Payload.Progress)
}

func TestDecodeEvent_InitialSettingsKeepsRawValues(t *testing.T) {
	evt, err := DecodeEvent([]byte(`{"type":"initialClientSettings","settings":{"encoder":"x264enc","videoFramerate":60}}`))
	require.NoError(t, err)
	initial := evt.(InitialClientSettings)
	assert.JSONEq(t, `"x264enc"`, string(initial.Settings["encoder"]))
	assert.JSONEq(t, `60`, string(initial.Settings["videoFramerate"]))
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{nope`, ErrMalformed},
		{"missing type", `{"text":"x"}`, ErrMalformed},
		{"wrong payload type", `{"type":"gamepadAxisUpdate","axisIndex":"one"}`, ErrMalformed},
		{"unknown type", `{"type":"launchMissiles"}`, ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeEvent_RoundTripsThroughDecode(t *testing.T) {
	data, err := EncodeEvent(GamepadAxisUpdate{GamepadIndex: 0, AxisIndex: 1, Value: 0.75})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, EvtGamepadAxisUpdate, fields["type"])

	evt, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, GamepadAxisUpdate{GamepadIndex: 0, AxisIndex: 1, Value: 0.75}, evt)
}
