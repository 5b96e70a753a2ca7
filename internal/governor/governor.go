// Package governor ties the frame pools, timing, thermal and quality
// components into the per-frame feedback loop. A Governor is owned by the
// simulation goroutine and passed explicitly to every system that needs it.
package governor

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mindland/governor/internal/alloc"
	"github.com/mindland/governor/internal/config"
	"github.com/mindland/governor/internal/core/event"
	"github.com/mindland/governor/internal/history"
	"github.com/mindland/governor/internal/input"
	"github.com/mindland/governor/internal/pool"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/telemetry"
	"github.com/mindland/governor/internal/thermal"
	"github.com/mindland/governor/internal/timing"
)

// MinAdmissionScale is the smallest fraction of a requested batch admitted
// after an over-budget frame.
const MinAdmissionScale = 0.25

// Deps are the collaborators a Governor is built with. Zero values select
// the defaults.
type Deps struct {
	Clock    timing.Clock           // default timing.SystemClock
	Baseline *quality.Settings      // default quality.MacBookPro2014
	Recovery quality.RecoveryPolicy // default quality.BuiltinRecovery
	Bus      *event.Bus             // default a fresh bus
	Log      *zap.Logger            // default zap.NewNop
}

// Governor is the context object owning every per-frame component.
type Governor struct {
	Pools   *pool.Set
	Tracker *alloc.Tracker
	Memory  *alloc.MemoryTracker
	Input   *input.Manager
	Timer   *timing.FrameTimer
	FPS     *timing.FPSCounter
	Thermal *thermal.Monitor
	Quality *quality.Controller
	History *history.Ring
	Bus     *event.Bus

	targets config.TargetsConfig
	clock   timing.Clock
	log     *zap.Logger

	frame     uint64 // number of the open or most recent frame
	lastCost  time.Duration
	admission float64
	sample    telemetry.Sample
}

// New builds a governor from configuration.
func New(cfg *config.Config, deps Deps) (*Governor, error) {
	if deps.Clock == nil {
		deps.Clock = timing.SystemClock{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Bus == nil {
		deps.Bus = event.NewBus()
	}
	baseline := quality.MacBookPro2014()
	if deps.Baseline != nil {
		baseline = *deps.Baseline
	}

	in, err := input.NewManager(cfg.Input.QueueSize, cfg.Input.PollingRate)
	if err != nil {
		return nil, fmt.Errorf("governor: %w", err)
	}

	g := &Governor{
		Pools: pool.NewSet(pool.Capacities{
			Entities:       cfg.Pools.MaxEntities,
			Transforms:     cfg.Pools.MaxTransforms,
			RenderCommands: cfg.Pools.MaxRenderCommands,
			InputEvents:    cfg.Pools.MaxInputEvents,
		}),
		Tracker: alloc.NewTracker(),
		Memory:  alloc.NewMemoryTracker(),
		Input:   in,
		Timer:   timing.NewFrameTimer(deps.Clock),
		FPS:     timing.NewFPSCounter(cfg.Governor.TargetFPS),
		Thermal: thermal.NewMonitor(),
		Quality: quality.NewController(baseline, quality.ControllerConfig{
			SustainFrames:  cfg.Quality.SustainFrames,
			ReapplyFrames:  cfg.Quality.ReapplyFrames,
			RecoveryFrames: cfg.Quality.RecoveryFrames,
		}, deps.Recovery),
		History:   history.NewRing(cfg.Governor.HistoryCapacity),
		Bus:       deps.Bus,
		targets:   cfg.Targets,
		clock:     deps.Clock,
		log:       deps.Log,
		admission: 1,
	}
	return g, nil
}

// BeginFrame opens a frame: starts the timer, zeroes the per-frame
// allocation count and delivers last frame's events.
func (g *Governor) BeginFrame() error {
	if err := g.Timer.StartFrame(); err != nil {
		return fmt.Errorf("begin frame %d: %w", g.frame+1, err)
	}
	g.frame++
	g.Tracker.BeginFrame()
	g.Bus.SwapBuffers()
	g.Bus.DispatchAll()
	return nil
}

// FrameReport summarizes one closed frame.
type FrameReport struct {
	Frame       uint64
	FrameTime   time.Duration
	FPS         float64
	State       thermal.State
	Decision    quality.Decision
	Exhaustions int
	Violations  uint64 // hot-path allocations during the frame
	Admission   float64
	Compliant   bool
}

// EndFrame closes the open frame and runs the feedback loop: timer, FPS and
// tracker, thermal re-evaluation and quality adjustment, pool reset, history.
func (g *Governor) EndFrame(s telemetry.Sample) (FrameReport, error) {
	cost, err := g.Timer.EndFrame()
	if err != nil {
		return FrameReport{}, fmt.Errorf("end frame %d: %w", g.frame, err)
	}
	g.FPS.Update(cost)
	violations := g.Tracker.FrameAllocations()
	if s.MemoryUsage > 0 {
		g.Memory.Observe(s.MemoryUsage)
	}
	g.Memory.SetGCPressure(s.GCPressure)
	g.sample = s

	g.Thermal.Apply(s.CPUTemp, s.GPUTemp, s.FanSpeed)
	if prev := g.Thermal.Update(); prev != g.Thermal.State() {
		event.Emit(g.Bus, event.ThermalStateChanged{
			Frame:   g.frame,
			From:    prev,
			To:      g.Thermal.State(),
			CPUTemp: s.CPUTemp,
		})
	}

	exhaustions := g.Pools.Exhaustions()
	if exhaustions > 0 {
		for _, k := range pool.Kinds {
			if n := g.Pools.Pool(k).Failures(); n > 0 {
				event.Emit(g.Bus, event.PoolExhausted{Frame: g.frame, Kind: k, Failures: n})
			}
		}
	}

	decision := g.Quality.Evaluate(quality.Observation{
		State:           g.Thermal.State(),
		FPS:             g.FPS.Current(),
		TargetFPS:       g.FPS.Target(),
		PoolExhaustions: exhaustions,
		Violations:      violations,
	})
	g.emitDecision(decision)

	g.lastCost = cost
	g.admission = admissionScale(cost, g.targets.MaxFrameTime)

	g.Pools.Reset()

	g.History.Record(history.Frame{
		Timestamp:   g.clock.Now(),
		FrameTime:   cost,
		CPUUsage:    s.CPUUsage,
		GPUUsage:    s.GPUUsage,
		MemoryUsage: g.Memory.CurrentUsage(),
		Temperature: s.CPUTemp,
		FPS:         g.FPS.Current(),
	})

	return FrameReport{
		Frame:       g.frame,
		FrameTime:   cost,
		FPS:         g.FPS.Current(),
		State:       g.Thermal.State(),
		Decision:    decision,
		Exhaustions: exhaustions,
		Violations:  violations,
		Admission:   g.admission,
		Compliant:   g.CheckPerformanceTargets(),
	}, nil
}

func (g *Governor) emitDecision(d quality.Decision) {
	switch d.Action {
	case quality.ActionDegraded:
		event.Emit(g.Bus, event.QualityDegraded{Frame: g.frame, State: g.Thermal.State(), Strategy: d.Strategy, Settings: d.Settings})
		g.log.Info("quality degraded",
			zap.Uint64("frame", g.frame),
			zap.String("strategy", d.Strategy.String()),
			zap.String("thermal", g.Thermal.State().String()),
			zap.Float64("fps", g.FPS.Current()),
			zap.Float64("render_distance", d.Settings.RenderDistance))
	case quality.ActionReapplied:
		event.Emit(g.Bus, event.QualityReapplied{Frame: g.frame, State: g.Thermal.State(), Settings: d.Settings})
		g.log.Warn("emergency protection re-applied",
			zap.Uint64("frame", g.frame),
			zap.Float64("cpu_temp", g.Thermal.CPUTemp),
			zap.Float64("render_distance", d.Settings.RenderDistance),
			zap.Float64("particle_density", d.Settings.ParticleDensity))
	case quality.ActionRecovered:
		event.Emit(g.Bus, event.QualityRecovered{Frame: g.frame, State: g.Thermal.State(), Settings: d.Settings})
		g.log.Info("quality recovered", zap.Uint64("frame", g.frame))
	}
}

// admissionScale shrinks the next frame's admitted work in proportion to how
// far the last frame ran over budget.
func admissionScale(cost, budget time.Duration) float64 {
	if budget <= 0 || cost <= budget {
		return 1
	}
	return max(float64(budget)/float64(cost), MinAdmissionScale)
}

// AdmissionScale is the fraction of requested work admitted this frame.
func (g *Governor) AdmissionScale() float64 { return g.admission }

// Admit scales a requested count by the admission scale. A positive request
// is never scaled to zero.
func (g *Governor) Admit(requested int) int {
	if requested <= 0 {
		return 0
	}
	return max(int(float64(requested)*g.admission), 1)
}

// Reserve admits each request and reserves the result from all four pools
// together. Nothing is reserved when any pool is short.
func (g *Governor) Reserve(entities, transforms, renderCommands, inputEvents int) (pool.Reservation, bool) {
	return g.Pools.Reserve(
		g.Admit(entities),
		g.Admit(transforms),
		g.Admit(renderCommands),
		g.Admit(inputEvents),
	)
}

// CheckPerformanceTargets reports whether FPS, CPU temperature and fan speed
// are all within target.
func (g *Governor) CheckPerformanceTargets() bool {
	return g.FPS.Current() >= g.FPS.Target() &&
		g.Thermal.CPUTemp <= g.targets.MaxTemperature &&
		g.Thermal.FanSpeed <= g.targets.MaxFanSpeed
}

// UsageWithinTargets reports whether the last sample's CPU and GPU usage are
// within target.
func (g *Governor) UsageWithinTargets() bool {
	return g.sample.CPUUsage <= g.targets.MaxCPUUsage && g.sample.GPUUsage <= g.targets.MaxGPUUsage
}

// ViolationReport is the result of one reporting cycle.
type ViolationReport struct {
	Violations     uint64 // since the previous report
	PeakPerFrame   uint64
	ZeroAllocation bool // true when no violation occurred in the interval
}

// ReportViolations reads and clears the violation counter.
func (g *Governor) ReportViolations() ViolationReport {
	n := g.Tracker.ClearViolations()
	return ViolationReport{
		Violations:     n,
		PeakPerFrame:   g.Tracker.PeakAllocationsPerFrame(),
		ZeroAllocation: n == 0,
	}
}

func (g *Governor) Frame() uint64                 { return g.frame }
func (g *Governor) LastFrameCost() time.Duration  { return g.lastCost }
func (g *Governor) Settings() quality.Settings    { return g.Quality.Current() }
func (g *Governor) Targets() config.TargetsConfig { return g.targets }
func (g *Governor) LastSample() telemetry.Sample  { return g.sample }
