package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mindland/governor/internal/core/event"
	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/governor"
)

// ReportSystem runs the violation reporting cycle and logs a status line
// every interval. It also logs governor events as they are delivered.
// Phase 4 (Report).
type ReportSystem struct {
	gov      *governor.Governor
	log      *zap.Logger
	phases   *coresys.Runner // optional, adds the slowest phase to reports
	interval time.Duration
	elapsed  time.Duration

	exhaustions int // pool failures since the last report
	reports     int
}

func NewReportSystem(gov *governor.Governor, interval time.Duration, log *zap.Logger) *ReportSystem {
	s := &ReportSystem{gov: gov, log: log, interval: interval}
	event.Subscribe(gov.Bus, func(e event.ThermalStateChanged) {
		log.Info("thermal state changed",
			zap.Uint64("frame", e.Frame),
			zap.String("from", e.From.String()),
			zap.String("to", e.To.String()),
			zap.Float64("cpu_temp", e.CPUTemp))
	})
	event.Subscribe(gov.Bus, func(e event.PoolExhausted) {
		s.exhaustions += e.Failures
	})
	event.Subscribe(gov.Bus, func(e event.InputDropped) {
		log.Warn("input queue overflow", zap.Uint64("frame", e.Frame), zap.Uint64("dropped", e.Dropped))
	})
	return s
}

// TrackPhases makes reports include the slowest phase of r's last frame.
func (s *ReportSystem) TrackPhases(r *coresys.Runner) { s.phases = r }

func (s *ReportSystem) Phase() coresys.Phase { return coresys.PhaseReport }

func (s *ReportSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Report()
}

// Report reads and clears the violation counter and logs the current status.
func (s *ReportSystem) Report() {
	v := s.gov.ReportViolations()
	st := s.gov.Status()
	s.reports++

	fields := []zap.Field{
		zap.Uint64("frame", st.Frame),
		zap.Float64("fps", round2(st.FPS.Current)),
		zap.Float64("avg_fps", round2(st.FPS.Average)),
		zap.Float64("min_fps", round2(st.FPS.Min)),
		zap.String("thermal", st.Thermal.String()),
		zap.Float64("cpu_temp", round2(st.CPUTemp)),
		zap.Uint32("fan", st.FanSpeed),
		zap.Bool("degraded", st.Degraded),
		zap.Float64("render_distance", round2(st.Settings.RenderDistance)),
		zap.Float64("compliance", round2(st.Compliance)),
		zap.Float64("admission", round2(s.gov.AdmissionScale())),
		zap.Int("pool_exhaustions", s.exhaustions),
	}
	s.exhaustions = 0
	if s.phases != nil {
		p, d := s.phases.Slowest()
		fields = append(fields, zap.String("slowest_phase", p.String()), zap.Duration("slowest_phase_time", d))
	}

	if v.ZeroAllocation {
		s.log.Info("frame report", fields...)
		return
	}
	fields = append(fields,
		zap.Uint64("violations", v.Violations),
		zap.Uint64("peak_per_frame", v.PeakPerFrame))
	s.log.Warn("frame report: hot-path allocations", fields...)
}

func (s *ReportSystem) Reports() int { return s.reports }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
