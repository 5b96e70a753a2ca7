package alloc

import (
	"math"
	"sync/atomic"
)

// MemoryTracker follows memory usage and GC pressure reported by the
// telemetry collaborator. Lock-free; any goroutine may report.
type MemoryTracker struct {
	current    atomic.Uint64
	peak       atomic.Uint64
	samples    atomic.Uint64
	gcPressure atomicFloat
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{}
}

// Observe replaces the current usage with an externally measured value.
func (m *MemoryTracker) Observe(usage uint64) {
	m.samples.Add(1)
	m.current.Store(usage)
	m.raisePeak(usage)
}

// SetGCPressure records the collaborator's GC pressure estimate, clamped to
// [0,1]. NaN is stored as 0.
func (m *MemoryTracker) SetGCPressure(p float64) {
	if math.IsNaN(p) {
		p = 0
	}
	m.gcPressure.Set(math.Max(0, math.Min(1, p)))
}

func (m *MemoryTracker) raisePeak(v uint64) {
	for {
		p := m.peak.Load()
		if v <= p || m.peak.CompareAndSwap(p, v) {
			return
		}
	}
}

// MemoryStats is a snapshot of the memory counters.
type MemoryStats struct {
	CurrentUsage uint64
	PeakUsage    uint64
	Samples      uint64
	GCPressure   float64
}

func (m *MemoryTracker) Stats() MemoryStats {
	return MemoryStats{
		CurrentUsage: m.current.Load(),
		PeakUsage:    m.peak.Load(),
		Samples:      m.samples.Load(),
		GCPressure:   m.gcPressure.Get(),
	}
}

func (m *MemoryTracker) CurrentUsage() uint64 { return m.current.Load() }

// atomicFloat stores a float64 as its IEEE-754 bits.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Set(v float64) { f.bits.Store(math.Float64bits(v)) }
func (f *atomicFloat) Get() float64  { return math.Float64frombits(f.bits.Load()) }
