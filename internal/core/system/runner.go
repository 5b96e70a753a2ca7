package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each frame. Systems sharing a phase
// run in registration order. The wall time spent in each phase during the
// last Tick is kept for reporting.
type Runner struct {
	systems []System
	sorted  bool

	now  func() time.Time
	cost [phaseCount]time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		now:     time.Now,
	}
}

// SetClock replaces the time source used to measure phase cost.
func (r *Runner) SetClock(now func() time.Time) { r.now = now }

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	r.cost = [phaseCount]time.Duration{}
	start := r.now()
	for _, s := range r.systems {
		s.Update(dt)
		end := r.now()
		if p := s.Phase(); p >= 0 && p < phaseCount {
			r.cost[p] += end.Sub(start)
		}
		start = end
	}
}

// TickPhase runs only the systems of one phase, without touching the phase
// costs. Used to poll input between frames.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// PhaseCost returns the time the systems of phase took in the last Tick.
func (r *Runner) PhaseCost(phase Phase) time.Duration {
	if phase < 0 || phase >= phaseCount {
		return 0
	}
	return r.cost[phase]
}

// Slowest returns the phase with the highest cost in the last Tick. Ties go
// to the earlier phase.
func (r *Runner) Slowest() (Phase, time.Duration) {
	best := PhaseInput
	for p := PhaseInput + 1; p < phaseCount; p++ {
		if r.cost[p] > r.cost[best] {
			best = p
		}
	}
	return best, r.cost[best]
}

func (r *Runner) ensureSorted() {
	if r.sorted {
		return
	}
	sort.SliceStable(r.systems, func(i, j int) bool {
		return r.systems[i].Phase() < r.systems[j].Phase()
	})
	r.sorted = true
}
