package telemetry

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"streamdash/internal/clock"
	"streamdash/pkg/logging"
)

// PollInterval is how often the sampler reads the counters.
const PollInterval = 100 * time.Millisecond

// MaxAudioBuffers is the buffer depth the audio gauge is normalised by.
const MaxAudioBuffers = 10

// NotAvailable is shown for a missing counter.
const NotAvailable = "N/A"

// Gauge is one presentation-ready value. Percent is always in [0,100] and
// never NaN; Raw keeps the unnormalised number for tooltips.
type Gauge struct {
	Percent   float64
	Raw       float64
	Display   string
	Available bool
}

// Snapshot is one poll's worth of gauges.
type Snapshot struct {
	At          time.Time
	CPU         Gauge
	GPU         Gauge
	SysMem      Gauge
	GPUMem      Gauge
	FPS         Gauge
	AudioBuffer Gauge
}

// FramerateTarget reports the configured stream framerate.
type FramerateTarget interface {
	TargetFramerate() int
}

// Sampler polls a Source on a fixed period.
type Sampler struct {
	source Source
	target FramerateTarget
	clock  clock.Clock

	mu      sync.Mutex
	latest  Snapshot
	timer   *clock.Timer
	running bool
}

func NewSampler(source Source, target FramerateTarget, c clock.Clock) *Sampler {
	if c == nil {
		c = clock.Real()
	}
	return &Sampler{source: source, target: target, clock: c}
}

// Start begins polling. Calling Start on a running sampler does nothing.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.timer = s.clock.AfterFunc(PollInterval, s.tick)
	logging.Debug("Telemetry", "Sampler started (every %s)", PollInterval)
}

func (s *Sampler) tick() {
	s.Sample()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.timer = s.clock.AfterFunc(PollInterval, s.tick)
	}
}

// Stop halts polling. The last snapshot stays readable.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.timer.Stop()
	s.timer = nil
}

// Sample polls once and returns the new snapshot.
func (s *Sampler) Sample() Snapshot {
	c := s.source.Counters()
	target := 0
	if s.target != nil {
		target = s.target.TargetFramerate()
	}

	snap := Snapshot{
		At:          s.clock.Now(),
		CPU:         percentGauge(c.CPUPercent),
		GPU:         percentGauge(c.GPUPercent),
		SysMem:      memoryGauge(c.MemUsed, c.MemTotal),
		GPUMem:      memoryGauge(c.GPUMemUsed, c.GPUMemTotal),
		FPS:         ratioGauge(c.FPS, float64(target), "%.0f fps"),
		AudioBuffer: ratioGauge(c.AudioBuffers, MaxAudioBuffers, "%.0f"),
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
	return snap
}

// Latest returns the most recent snapshot.
func (s *Sampler) Latest() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

func unavailable() Gauge {
	return Gauge{Display: NotAvailable}
}

func percentGauge(v *float64) Gauge {
	if !finite(v) {
		return unavailable()
	}
	p := clampPercent(*v)
	return Gauge{Percent: p, Raw: *v, Display: fmt.Sprintf("%.0f%%", p), Available: true}
}

func memoryGauge(used, total *float64) Gauge {
	if !finite(used) || !finite(total) || *total <= 0 || *used < 0 {
		return unavailable()
	}
	p := clampPercent(*used / *total * 100)
	return Gauge{
		Percent:   p,
		Raw:       *used,
		Display:   humanize.IBytes(uint64(*used)) + " / " + humanize.IBytes(uint64(*total)),
		Available: true,
	}
}

func ratioGauge(v *float64, denominator float64, format string) Gauge {
	if !finite(v) {
		return unavailable()
	}
	p := 0.0
	if denominator > 0 {
		p = clampPercent(*v / denominator * 100)
	}
	return Gauge{Percent: p, Raw: *v, Display: fmt.Sprintf(format, *v), Available: true}
}
