package quality

import "github.com/mindland/governor/internal/thermal"

// LowFPSRatio is the fraction of the target below which a frame counts as
// under pressure.
const LowFPSRatio = 0.9

// ControllerConfig holds the frame counts that pace degradation and recovery.
type ControllerConfig struct {
	SustainFrames  int // consecutive pressured frames before degrading without heat
	ReapplyFrames  int // minimum frames between Emergency re-applies
	RecoveryFrames int // consecutive stable frames before the baseline returns
}

// DefaultControllerConfig returns the stock pacing.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		SustainFrames:  30,
		ReapplyFrames:  120,
		RecoveryFrames: 300,
	}
}

// Observation is what the governor learned about the frame that just ended.
type Observation struct {
	State           thermal.State
	FPS             float64
	TargetFPS       float64
	PoolExhaustions int    // failed pool allocations this frame
	Violations      uint64 // hot-path allocations this frame
}

// Action is the change the controller made in response to an Observation.
type Action uint8

const (
	ActionNone Action = iota
	ActionDegraded
	ActionReapplied
	ActionRecovered
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionDegraded:
		return "degraded"
	case ActionReapplied:
		return "reapplied"
	case ActionRecovered:
		return "recovered"
	}
	return "unknown"
}

// Decision is the outcome of one Evaluate call.
type Decision struct {
	Action   Action
	Strategy Strategy
	Settings Settings // settings in force after the action
}

// RecoveryContext is handed to a RecoveryPolicy while the controller is
// degraded and the current frame is stable.
type RecoveryContext struct {
	State          thermal.State
	FPS            float64
	TargetFPS      float64
	StableFrames   int
	RequiredFrames int
	DegradedFrames int
}

// RecoveryPolicy decides when degraded settings may return to the baseline.
type RecoveryPolicy interface {
	ShouldRecover(ctx RecoveryContext) bool
}

// RecoveryFunc adapts a plain function to RecoveryPolicy.
type RecoveryFunc func(ctx RecoveryContext) bool

func (f RecoveryFunc) ShouldRecover(ctx RecoveryContext) bool { return f(ctx) }

// BuiltinRecovery restores once the required number of stable frames passed.
type BuiltinRecovery struct{}

func (BuiltinRecovery) ShouldRecover(ctx RecoveryContext) bool {
	return ctx.StableFrames >= ctx.RequiredFrames
}

// Controller owns the current quality settings and moves them between the
// baseline and protected levels. Single goroutine only.
type Controller struct {
	cfg      ControllerConfig
	policy   RecoveryPolicy
	baseline Settings
	current  Settings

	degraded       bool
	pressureFrames int
	stableFrames   int
	degradedFrames int
	sinceApply     int

	degradations uint64
	recoveries   uint64
}

// NewController starts at the baseline. A nil policy selects BuiltinRecovery.
func NewController(baseline Settings, cfg ControllerConfig, policy RecoveryPolicy) *Controller {
	if policy == nil {
		policy = BuiltinRecovery{}
	}
	def := DefaultControllerConfig()
	if cfg.SustainFrames <= 0 {
		cfg.SustainFrames = def.SustainFrames
	}
	if cfg.ReapplyFrames <= 0 {
		cfg.ReapplyFrames = def.ReapplyFrames
	}
	if cfg.RecoveryFrames <= 0 {
		cfg.RecoveryFrames = def.RecoveryFrames
	}
	return &Controller{
		cfg:      cfg,
		policy:   policy,
		baseline: baseline,
		current:  baseline,
	}
}

// Evaluate feeds one frame's observation through the state machine.
func (c *Controller) Evaluate(obs Observation) Decision {
	if obs.FPS < obs.TargetFPS*LowFPSRatio || obs.PoolExhaustions > 0 || obs.Violations > 0 {
		c.pressureFrames++
	} else {
		c.pressureFrames = 0
	}
	strategy := StrategyFor(obs.State, c.pressureFrames >= c.cfg.SustainFrames)

	if !c.degraded {
		if strategy == Conservative {
			return c.decision(ActionNone, strategy)
		}
		c.protect(false)
		c.degraded = true
		c.degradedFrames = 0
		c.stableFrames = 0
		c.pressureFrames = 0
		c.degradations++
		return c.decision(ActionDegraded, strategy)
	}

	c.degradedFrames++
	c.sinceApply++

	if strategy == Emergency {
		c.stableFrames = 0
		if c.sinceApply >= c.cfg.ReapplyFrames {
			c.protect(true)
			return c.decision(ActionReapplied, strategy)
		}
		return c.decision(ActionNone, strategy)
	}

	if obs.State == thermal.Cool && obs.FPS >= obs.TargetFPS && c.pressureFrames == 0 {
		c.stableFrames++
	} else {
		c.stableFrames = 0
		return c.decision(ActionNone, strategy)
	}

	ok := c.policy.ShouldRecover(RecoveryContext{
		State:          obs.State,
		FPS:            obs.FPS,
		TargetFPS:      obs.TargetFPS,
		StableFrames:   c.stableFrames,
		RequiredFrames: c.cfg.RecoveryFrames,
		DegradedFrames: c.degradedFrames,
	})
	if !ok {
		return c.decision(ActionNone, strategy)
	}
	c.current = c.baseline
	c.degraded = false
	c.stableFrames = 0
	c.pressureFrames = 0
	c.degradedFrames = 0
	c.recoveries++
	return c.decision(ActionRecovered, strategy)
}

// protect applies one protection step. With floored set the continuous knobs
// are held at their minimums, but never raised above where they already were.
func (c *Controller) protect(floored bool) {
	before := c.current
	c.current.ApplyThermalProtection()
	if floored {
		c.current.RenderDistance = max(c.current.RenderDistance, min(MinRenderDistance, before.RenderDistance))
		c.current.ParticleDensity = max(c.current.ParticleDensity, min(MinParticleDensity, before.ParticleDensity))
	}
	c.sinceApply = 0
}

func (c *Controller) decision(a Action, s Strategy) Decision {
	return Decision{Action: a, Strategy: s, Settings: c.current}
}

// SetBaseline replaces the preset restored on recovery. If the controller is
// not degraded the new baseline takes effect immediately.
func (c *Controller) SetBaseline(s Settings) {
	c.baseline = s
	if !c.degraded {
		c.current = s
	}
}

func (c *Controller) Current() Settings        { return c.current }
func (c *Controller) Baseline() Settings       { return c.baseline }
func (c *Controller) Degraded() bool           { return c.degraded }
func (c *Controller) StableFrames() int        { return c.stableFrames }
func (c *Controller) Degradations() uint64     { return c.degradations }
func (c *Controller) Recoveries() uint64       { return c.recoveries }
func (c *Controller) Config() ControllerConfig { return c.cfg }
