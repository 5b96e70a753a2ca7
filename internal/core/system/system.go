package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput    Phase = iota // 0: drain the input queue
	PhaseSimulate              // 1: workload, pool reservations
	PhaseRender                // 2: render command submission
	PhasePersist               // 3: history flush
	PhaseReport                // 4: violation and status reporting

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseSimulate:
		return "simulate"
	case PhaseRender:
		return "render"
	case PhasePersist:
		return "persist"
	case PhaseReport:
		return "report"
	}
	return "unknown"
}

// System is one unit of per-frame work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
