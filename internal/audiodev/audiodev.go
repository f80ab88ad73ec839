// Package audiodev lists local audio devices and tells the host which
// input and output to use.
package audiodev

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"streamdash/internal/protocol"
	"streamdash/pkg/logging"
)

var (
	ErrPermissionDenied = errors.New("permission to access audio devices denied")
	ErrNoDevices        = errors.New("no audio devices found")
	ErrUnknownDevice    = errors.New("unknown audio device")
)

// Device is one selectable audio endpoint.
type Device struct {
	ID      string
	Label   string
	Context protocol.AudioContext
}

// Enumerator lists the audio devices visible to this process.
type Enumerator interface {
	List(ctx context.Context) ([]Device, error)
}

// Static is an Enumerator over a fixed list.
type Static []Device

func (s Static) List(context.Context) ([]Device, error) {
	return slices.Clone(s), nil
}

// State is a copy of the section for rendering. Error is set instead of
// the device lists when enumeration failed.
type State struct {
	Inputs         []Device
	Outputs        []Device
	SelectedInput  string
	SelectedOutput string
	Error          string
}

// Section owns the audio device picker. Its failures never leave it.
type Section struct {
	enum   Enumerator
	sender protocol.Sender

	mu             sync.Mutex
	inputs         []Device
	outputs        []Device
	selectedInput  string
	selectedOutput string
	errMsg         string
}

func NewSection(enum Enumerator, sender protocol.Sender) *Section {
	return &Section{enum: enum, sender: sender}
}

// Refresh re-enumerates devices. On failure the pickers are emptied and a
// scoped error message is kept; the error is also returned.
func (s *Section) Refresh(ctx context.Context) error {
	devices, err := s.enum.List(ctx)
	if err == nil && len(devices) == 0 {
		err = ErrNoDevices
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.inputs, s.outputs = nil, nil
		s.errMsg = Describe(err)
		logging.Warn("Audio", "Device enumeration failed: %v", err)
		return err
	}

	s.inputs, s.outputs = nil, nil
	for _, d := range devices {
		switch d.Context {
		case protocol.AudioInput:
			s.inputs = append(s.inputs, d)
		case protocol.AudioOutput:
			s.outputs = append(s.outputs, d)
		}
	}
	s.errMsg = ""
	logging.Debug("Audio", "Found %d inputs and %d outputs", len(s.inputs), len(s.outputs))
	return nil
}

// Describe turns an enumeration error into the message shown in the
// section.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Permission to access audio devices was denied."
	case errors.Is(err, ErrNoDevices):
		return "No audio devices were found."
	}
	return fmt.Sprintf("Could not list audio devices: %v", err)
}

// Select picks a device for the given context and informs the host.
func (s *Section) Select(audioCtx protocol.AudioContext, deviceID string) error {
	s.mu.Lock()
	var list []Device
	switch audioCtx {
	case protocol.AudioInput:
		list = s.inputs
	case protocol.AudioOutput:
		list = s.outputs
	default:
		s.mu.Unlock()
		return fmt.Errorf("select audio device: unknown context %q", audioCtx)
	}
	found := slices.ContainsFunc(list, func(d Device) bool { return d.ID == deviceID })
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("select %s device %q: %w", audioCtx, deviceID, ErrUnknownDevice)
	}
	if audioCtx == protocol.AudioInput {
		s.selectedInput = deviceID
	} else {
		s.selectedOutput = deviceID
	}
	s.mu.Unlock()

	s.sender.Send(protocol.AudioDeviceSelected(audioCtx, deviceID))
	return nil
}

// ApplyStatus adopts the host-reported selections; absent fields are
// left alone.
func (s *Section) ApplyStatus(evt protocol.AudioDeviceStatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if evt.InputDeviceID != nil {
		s.selectedInput = *evt.InputDeviceID
	}
	if evt.OutputDeviceID != nil {
		s.selectedOutput = *evt.OutputDeviceID
	}
}

func (s *Section) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Inputs:         slices.Clone(s.inputs),
		Outputs:        slices.Clone(s.outputs),
		SelectedInput:  s.selectedInput,
		SelectedOutput: s.selectedOutput,
		Error:          s.errMsg,
	}
}
