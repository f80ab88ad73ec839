// Package telemetry turns the host's raw performance counters into
// normalised gauges for display.
package telemetry

import (
	"sync"

	"streamdash/internal/protocol"
)

// Counters are the raw values the host exposes. Any field may be missing.
// Memory values are in bytes.
type Counters struct {
	CPUPercent   *float64
	GPUPercent   *float64
	MemUsed      *float64
	MemTotal     *float64
	GPUMemUsed   *float64
	GPUMemTotal  *float64
	FPS          *float64
	AudioBuffers *float64
}

// Source is read-only access to the current counters.
type Source interface {
	Counters() Counters
}

// Shared is the counter store fed by stats events. It is the only Source
// used outside tests.
type Shared struct {
	mu sync.Mutex
	c  Counters
}

func NewShared() *Shared { return &Shared{} }

func cp(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

// merge overwrites dst only when src is present.
func merge(dst **float64, src *float64) {
	if src != nil {
		*dst = cp(src)
	}
}

func (s *Shared) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counters{
		CPUPercent:   cp(s.c.CPUPercent),
		GPUPercent:   cp(s.c.GPUPercent),
		MemUsed:      cp(s.c.MemUsed),
		MemTotal:     cp(s.c.MemTotal),
		GPUMemUsed:   cp(s.c.GPUMemUsed),
		GPUMemTotal:  cp(s.c.GPUMemTotal),
		FPS:          cp(s.c.FPS),
		AudioBuffers: cp(s.c.AudioBuffers),
	}
}

func (s *Shared) ApplySystem(evt protocol.SystemStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merge(&s.c.CPUPercent, evt.CPUPercent)
	merge(&s.c.MemUsed, evt.MemUsed)
	merge(&s.c.MemTotal, evt.MemTotal)
}

func (s *Shared) ApplyGPU(evt protocol.GPUStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merge(&s.c.GPUPercent, evt.GPUPercent)
	merge(&s.c.GPUMemUsed, evt.MemUsed)
	merge(&s.c.GPUMemTotal, evt.MemTotal)
}

func (s *Shared) ApplyClient(evt protocol.ClientStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merge(&s.c.FPS, evt.FPS)
	merge(&s.c.AudioBuffers, evt.AudioBuffers)
}
