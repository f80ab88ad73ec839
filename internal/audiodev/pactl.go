package audiodev

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"streamdash/internal/protocol"
)

// Pactl enumerates PulseAudio/PipeWire sources and sinks with the pactl
// command-line tool.
type Pactl struct {
	// Binary defaults to "pactl".
	Binary string
}

func (p Pactl) List(ctx context.Context) ([]Device, error) {
	sources, err := p.run(ctx, "sources")
	if err != nil {
		return nil, err
	}
	sinks, err := p.run(ctx, "sinks")
	if err != nil {
		return nil, err
	}
	devices := parseShortList(sources, protocol.AudioInput)
	return append(devices, parseShortList(sinks, protocol.AudioOutput)...), nil
}

func (p Pactl) run(ctx context.Context, kind string) ([]byte, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pactl"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "list", "short", kind)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.ToLower(stderr.String())
		if strings.Contains(msg, "access denied") || strings.Contains(msg, "permission denied") {
			return nil, ErrPermissionDenied
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("list %s: %s not installed: %w", kind, bin, err)
		}
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// parseShortList reads `pactl list short` output: tab-separated index,
// name, driver, sample spec and state. Monitor sources are skipped.
func parseShortList(out []byte, audioCtx protocol.AudioContext) []Device {
	var devices []Device
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		name := fields[1]
		if audioCtx == protocol.AudioInput && strings.HasSuffix(name, ".monitor") {
			continue
		}
		devices = append(devices, Device{ID: name, Label: name, Context: audioCtx})
	}
	return devices
}
