package thermal

import "math"

// State is the discrete thermal classification of the CPU temperature.
type State uint8

const (
	Cool     State = iota // < 60°C: full performance
	Warm                  // 60-75°C: slight optimization
	Hot                   // 75-85°C: aggressive optimization
	Critical              // >= 85°C: emergency throttling
)

// Lower bounds (inclusive) of each state above Cool, in °C.
const (
	WarmThreshold     = 60.0
	HotThreshold      = 75.0
	CriticalThreshold = 85.0
)

func (s State) String() string {
	switch s {
	case Cool:
		return "cool"
	case Warm:
		return "warm"
	case Hot:
		return "hot"
	case Critical:
		return "critical"
	}
	return "unknown"
}

// Classify maps a temperature to exactly one State using closed-open bands.
// There is no hysteresis: a reading oscillating on a boundary flips state on
// every call. NaN is treated as Critical since the sensor cannot be trusted.
func Classify(celsius float64) State {
	switch {
	case math.IsNaN(celsius):
		return Critical
	case celsius < WarmThreshold:
		return Cool
	case celsius < HotThreshold:
		return Warm
	case celsius < CriticalThreshold:
		return Hot
	default:
		return Critical
	}
}

// Monitor holds the latest hardware readings and the state derived from
// them by Update.
type Monitor struct {
	CPUTemp  float64
	GPUTemp  float64
	FanSpeed uint32 // rpm

	state State
}

// NewMonitor returns a monitor seeded with idle readings.
func NewMonitor() *Monitor {
	return &Monitor{
		CPUTemp:  45,
		GPUTemp:  40,
		FanSpeed: 1200,
		state:    Cool,
	}
}

// Apply stores a new set of readings without re-evaluating the state.
func (m *Monitor) Apply(cpuTemp, gpuTemp float64, fanSpeed uint32) {
	m.CPUTemp = cpuTemp
	m.GPUTemp = gpuTemp
	m.FanSpeed = fanSpeed
}

// Update re-derives the state from CPUTemp. Returns the previous state.
func (m *Monitor) Update() (prev State) {
	prev = m.state
	m.state = Classify(m.CPUTemp)
	return prev
}

// State returns the state computed by the last Update.
func (m *Monitor) State() State { return m.state }

// Throttling reports whether the last Update found the CPU hot or worse.
func (m *Monitor) Throttling() bool { return m.state >= Hot }
