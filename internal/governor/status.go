package governor

import (
	"github.com/mindland/governor/internal/alloc"
	"github.com/mindland/governor/internal/pool"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/thermal"
	"github.com/mindland/governor/internal/timing"
)

// Status is a point-in-time view of the governor for reporting.
type Status struct {
	Frame         uint64
	FPS           timing.FPSStats
	Thermal       thermal.State
	CPUTemp       float64
	GPUTemp       float64
	FanSpeed      uint32
	Throttling    bool
	Settings      quality.Settings
	Degraded      bool
	Pools         pool.UsageArray
	Allocations   alloc.TrackerStats
	Memory        alloc.MemoryStats
	InputPending  int
	InputDropped  uint64
	HistoryLen    int
	AverageFPS    float64 // over the retained history
	Compliance    float64 // fraction of retained frames at or above target
	WithinTargets bool
}

// Status collects the current view. Simulation goroutine only.
func (g *Governor) Status() Status {
	st := Status{
		Frame:         g.frame,
		FPS:           g.FPS.Stats(),
		Thermal:       g.Thermal.State(),
		CPUTemp:       g.Thermal.CPUTemp,
		GPUTemp:       g.Thermal.GPUTemp,
		FanSpeed:      g.Thermal.FanSpeed,
		Throttling:    g.Thermal.Throttling(),
		Settings:      g.Quality.Current(),
		Degraded:      g.Quality.Degraded(),
		Allocations:   g.Tracker.Stats(),
		Memory:        g.Memory.Stats(),
		InputPending:  g.Input.Pending(),
		InputDropped:  g.Input.Dropped(),
		HistoryLen:    g.History.Len(),
		AverageFPS:    g.History.AverageFPS(),
		Compliance:    g.History.ComplianceRatio(g.FPS.Target()),
		WithinTargets: g.CheckPerformanceTargets(),
	}
	g.Pools.Usage(&st.Pools)
	return st
}
