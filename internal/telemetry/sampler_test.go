package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"streamdash/internal/clock"
	"streamdash/internal/protocol"
)

type fixedTarget int

func (f fixedTarget) TargetFramerate() int { return int(f) }

func f64(v float64) *float64 { return &v }

func TestSample_AllMissingIsNA(t *testing.T) {
	s := NewSampler(NewShared(), fixedTarget(60), clock.Fake(time.Unix(0, 0)))
	snap := s.Sample()

	for _, g := range []Gauge{snap.CPU, snap.GPU, snap.SysMem, snap.GPUMem, snap.FPS, snap.AudioBuffer} {
		assert.False(t, g.Available)
		assert.Equal(t, NotAvailable, g.Display)
		assert.Zero(t, g.Percent)
	}
}

func TestSample_Derivations(t *testing.T) {
	shared := NewShared()
	shared.ApplySystem(protocol.SystemStats{CPUPercent: f64(130), MemUsed: f64(4 << 30), MemTotal: f64(16 << 30)})
	shared.ApplyGPU(protocol.GPUStats{GPUPercent: f64(-5), MemUsed: f64(1 << 30), MemTotal: f64(0)})
	shared.ApplyClient(protocol.ClientStats{FPS: f64(45), AudioBuffers: f64(12)})

	snap := NewSampler(shared, fixedTarget(60), clock.Fake(time.Unix(0, 0))).Sample()

	assert.Equal(t, 100.0, snap.CPU.Percent)
	assert.Equal(t, 130.0, snap.CPU.Raw)
	assert.Equal(t, 0.0, snap.GPU.Percent)

	assert.True(t, snap.SysMem.Available)
	assert.Equal(t, 25.0, snap.SysMem.Percent)
	assert.Equal(t, "4.0 GiB / 16 GiB", snap.SysMem.Display)

	assert.False(t, snap.GPUMem.Available, "zero total must not divide")

	assert.Equal(t, 75.0, snap.FPS.Percent)
	assert.Equal(t, 45.0, snap.FPS.Raw)
	assert.Equal(t, "45 fps", snap.FPS.Display)

	assert.Equal(t, 100.0, snap.AudioBuffer.Percent)
	assert.Equal(t, 12.0, snap.AudioBuffer.Raw)
}

func TestSample_NeverSurfacesNaN(t *testing.T) {
	shared := NewShared()
	shared.ApplySystem(protocol.SystemStats{CPUPercent: f64(math.NaN()), MemUsed: f64(math.Inf(1)), MemTotal: f64(1)})
	shared.ApplyClient(protocol.ClientStats{FPS: f64(30)})

	snap := NewSampler(shared, fixedTarget(0), clock.Fake(time.Unix(0, 0))).Sample()
	assert.False(t, snap.CPU.Available)
	assert.False(t, snap.SysMem.Available)
	assert.True(t, snap.FPS.Available)
	assert.Zero(t, snap.FPS.Percent)
}

func TestShared_SparseMerge(t *testing.T) {
	shared := NewShared()
	shared.ApplySystem(protocol.SystemStats{CPUPercent: f64(10), MemTotal: f64(100)})
	shared.ApplySystem(protocol.SystemStats{MemUsed: f64(50)})

	c := shared.Counters()
	assert.Equal(t, 10.0, *c.CPUPercent)
	assert.Equal(t, 50.0, *c.MemUsed)
	assert.Equal(t, 100.0, *c.MemTotal)

	*c.CPUPercent = 99
	assert.Equal(t, 10.0, *shared.Counters().CPUPercent)
}

func TestSampler_PollsOnInterval(t *testing.T) {
	shared := NewShared()
	c := clock.Fake(time.Unix(0, 0))
	s := NewSampler(shared, fixedTarget(60), c)

	s.Start()
	s.Start()
	assert.Equal(t, 1, c.PendingCount())

	shared.ApplySystem(protocol.SystemStats{CPUPercent: f64(42)})
	c.Advance(PollInterval)
	assert.Equal(t, 42.0, s.Latest().CPU.Percent)
	assert.Equal(t, time.Unix(0, 0).Add(PollInterval), s.Latest().At)

	shared.ApplySystem(protocol.SystemStats{CPUPercent: f64(7)})
	c.Advance(PollInterval)
	assert.Equal(t, 7.0, s.Latest().CPU.Percent)

	s.Stop()
	shared.ApplySystem(protocol.SystemStats{CPUPercent: f64(90)})
	c.Advance(time.Second)
	assert.Equal(t, 7.0, s.Latest().CPU.Percent)
	assert.Zero(t, c.PendingCount())
}
