package system

import (
	"math"
	"time"

	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/governor"
	"github.com/mindland/governor/internal/quality"
)

// LoadSetter receives the heat-relevant load produced by the workload.
// telemetry.Synthetic implements it.
type LoadSetter interface {
	SetLoad(load float64)
}

// WorkloadSystem stands in for the simulation and renderer: every frame it
// reserves entities, transforms and render commands sized by the workload
// level and the current quality settings, then burns CPU for the admitted
// entities. Phase 1 (Simulate).
type WorkloadSystem struct {
	gov      *governor.Governor
	heat     LoadSetter
	baseline quality.Settings

	level       float64 // requested workload in [0,1]
	maxEntities int
	spin        func(units int)

	frames   uint64
	rejected uint64
	admitted int // entities admitted in the last frame
}

// NewWorkloadSystem sizes the workload against the entity pool capacity.
// heat may be nil.
func NewWorkloadSystem(gov *governor.Governor, heat LoadSetter, level float64) *WorkloadSystem {
	return &WorkloadSystem{
		gov:         gov,
		heat:        heat,
		baseline:    gov.Quality.Baseline(),
		level:       clamp01(level),
		maxEntities: gov.Pools.Entities().Capacity(),
		spin:        spin,
	}
}

func (s *WorkloadSystem) Phase() coresys.Phase { return coresys.PhaseSimulate }

func (s *WorkloadSystem) Update(_ time.Duration) {
	s.frames++
	q := s.gov.Settings()
	f := Fidelity(q, s.baseline)

	entities := int(float64(s.maxEntities) * s.level * 0.8)
	renderCommands := int(float64(entities) * f)
	if res, ok := s.gov.Reserve(entities, entities, renderCommands, 0); ok {
		s.admitted = res.Entities
		s.spin(s.admitted)
	} else {
		s.rejected++
		s.admitted = 0
	}

	if s.heat != nil {
		s.heat.SetLoad(s.level * (0.4 + 0.6*f))
	}
}

// SetLevel changes the requested workload. Values are clamped to [0,1].
func (s *WorkloadSystem) SetLevel(level float64) { s.level = clamp01(level) }

func (s *WorkloadSystem) Level() float64   { return s.level }
func (s *WorkloadSystem) Admitted() int    { return s.admitted }
func (s *WorkloadSystem) Rejected() uint64 { return s.rejected }

// Fidelity scores settings relative to a baseline, 1 meaning baseline cost.
// Used to scale render work and generated heat.
func Fidelity(cur, base quality.Settings) float64 {
	ratio := func(a, b float64) float64 {
		if b <= 0 {
			return 1
		}
		return a / b
	}
	tex := ratio(float64(cur.Texture)+1, float64(base.Texture)+1)
	shadow := ratio(float64(cur.Shadow)+1, float64(base.Shadow)+1)
	f := 0.35*ratio(cur.RenderDistance, base.RenderDistance) +
		0.25*ratio(cur.ParticleDensity, base.ParticleDensity) +
		0.15*tex + 0.10*shadow +
		0.15*ratio(float64(cur.UpdateFrequency), float64(base.UpdateFrequency))
	return math.Max(0.05, math.Min(f, 2))
}

var spinSink float64

// spin burns a small fixed amount of CPU per unit.
func spin(units int) {
	x := spinSink
	for i := 0; i < units*64; i++ {
		x = x*1.0000001 + 1
	}
	spinSink = x
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }
