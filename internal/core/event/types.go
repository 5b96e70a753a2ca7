package event

import (
	"github.com/mindland/governor/internal/pool"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/thermal"
)

// Governor events. Frame is the frame number in which the change happened.

type ThermalStateChanged struct {
	Frame   uint64
	From    thermal.State
	To      thermal.State
	CPUTemp float64
}

type QualityDegraded struct {
	Frame    uint64
	State    thermal.State
	Strategy quality.Strategy
	Settings quality.Settings
}

// QualityReapplied is emitted each time Emergency protection steps down again.
type QualityReapplied struct {
	Frame    uint64
	State    thermal.State
	Settings quality.Settings
}

type QualityRecovered struct {
	Frame    uint64
	State    thermal.State
	Settings quality.Settings
}

type PoolExhausted struct {
	Frame    uint64
	Kind     pool.Kind
	Failures int
}

type InputDropped struct {
	Frame   uint64
	Dropped uint64
}
