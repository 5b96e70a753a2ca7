// Package telemetry defines the hardware readings the governor consumes and
// a synthetic source for running without sensors.
package telemetry

import (
	"math"
	"math/rand/v2"
	"runtime/metrics"
	"sync"
)

// Sample is one set of hardware readings.
type Sample struct {
	CPUTemp     float64 // °C
	GPUTemp     float64 // °C
	FanSpeed    uint32  // rpm
	CPUUsage    float64 // percent
	GPUUsage    float64 // percent
	MemoryUsage uint64  // bytes
	GCPressure  float64 // live heap over the next GC goal, [0,1]
}

// Source produces samples on demand. Called once per frame from the
// simulation goroutine.
type Source interface {
	Sample() Sample
}

// Static always returns the same readings.
type Static Sample

func (s Static) Sample() Sample { return Sample(s) }

// Synthetic models temperatures drifting toward a load-dependent equilibrium.
type Synthetic struct {
	mu      sync.Mutex
	rng     *rand.Rand
	load    float64
	cpuTemp float64
	gpuTemp float64
	ambient float64
	heat    float64 // °C above ambient at full load
	rate    float64 // fraction of the gap closed per sample
	mem     []metrics.Sample
}

const (
	heapMetric   = "/memory/classes/heap/objects:bytes"
	gcGoalMetric = "/gc/heap/goal:bytes"
)

// NewSynthetic starts at idle temperatures. The seed fixes the noise.
func NewSynthetic(seed uint64) *Synthetic {
	return &Synthetic{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		cpuTemp: 45,
		gpuTemp: 40,
		ambient: 40,
		heat:    55,
		rate:    0.02,
		mem:     []metrics.Sample{{Name: heapMetric}, {Name: gcGoalMetric}},
	}
}

// SetLoad sets the workload intensity in [0,1].
func (s *Synthetic) SetLoad(load float64) {
	s.mu.Lock()
	s.load = clamp(load, 0, 1)
	s.mu.Unlock()
}

func (s *Synthetic) Load() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load
}

// SetTemperature forces the current CPU temperature.
func (s *Synthetic) SetTemperature(celsius float64) {
	s.mu.Lock()
	s.cpuTemp = celsius
	s.mu.Unlock()
}

func (s *Synthetic) Sample() Sample {
	s.mu.Lock()
	target := s.ambient + s.load*s.heat
	s.cpuTemp += (target-s.cpuTemp)*s.rate + s.rng.NormFloat64()*0.05
	s.gpuTemp += (target-5-s.gpuTemp)*s.rate + s.rng.NormFloat64()*0.05
	out := Sample{
		CPUTemp:  s.cpuTemp,
		GPUTemp:  s.gpuTemp,
		FanSpeed: fanFor(s.cpuTemp),
		CPUUsage: clamp(s.load*100+s.rng.NormFloat64(), 0, 100),
		GPUUsage: clamp(s.load*90+s.rng.NormFloat64(), 0, 100),
	}
	metrics.Read(s.mem)
	if s.mem[0].Value.Kind() == metrics.KindUint64 {
		out.MemoryUsage = s.mem[0].Value.Uint64()
	}
	if s.mem[1].Value.Kind() == metrics.KindUint64 {
		if goal := s.mem[1].Value.Uint64(); goal > 0 {
			out.GCPressure = clamp(float64(out.MemoryUsage)/float64(goal), 0, 1)
		}
	}
	s.mu.Unlock()
	return out
}

// fanFor ramps the fan linearly from 1200 rpm at 45°C to 6000 rpm at 95°C.
func fanFor(cpuTemp float64) uint32 {
	rpm := 1200 + (cpuTemp-45)*96
	return uint32(math.Round(clamp(rpm, 1200, 6000)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
