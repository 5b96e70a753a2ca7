package quality

import "github.com/mindland/governor/internal/thermal"

// Strategy is how hard the controller reacts to the current pressure.
type Strategy uint8

const (
	Conservative Strategy = iota // no change; watch only
	Aggressive                   // one protection step on entering degraded mode
	Emergency                    // protection plus periodic re-apply
)

func (s Strategy) String() string {
	switch s {
	case Conservative:
		return "conservative"
	case Aggressive:
		return "aggressive"
	case Emergency:
		return "emergency"
	}
	return "unknown"
}

// StrategyFor picks the strategy for a thermal state and whether FPS or pool
// pressure has been sustained.
func StrategyFor(state thermal.State, sustainedPressure bool) Strategy {
	switch {
	case state == thermal.Critical:
		return Emergency
	case state == thermal.Hot, sustainedPressure:
		return Aggressive
	default:
		return Conservative
	}
}
