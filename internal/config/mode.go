package config

import (
	"fmt"
	"time"
)

// Performance modes.
const (
	ModeBalanced         = "balanced"
	ModeMacBookPro2014   = "macbook_pro_2014"
	ModeUltraPerformance = "ultra_performance"
	ModeQuality          = "quality"
)

// HardwareTier describes the class of machine a mode is tuned for.
type HardwareTier string

const (
	TierLowEnd     HardwareTier = "low_end"
	TierMidRange   HardwareTier = "mid_range"
	TierHighEnd    HardwareTier = "high_end"
	TierEnthusiast HardwareTier = "enthusiast"
)

// ModePreset is the set of defaults a performance mode installs.
type ModePreset struct {
	Tier          HardwareTier
	TargetFPS     float64
	MaxFrameTime  time.Duration
	MaxEntities   int
	PoolCapacity  int // transforms, render commands and input events
	QualityPreset string
}

var Modes = map[string]ModePreset{
	ModeBalanced: {
		Tier:          TierMidRange,
		TargetFPS:     60,
		MaxFrameTime:  16 * time.Millisecond,
		MaxEntities:   10000,
		PoolCapacity:  10000,
		QualityPreset: "balanced",
	},
	ModeMacBookPro2014: {
		Tier:          TierLowEnd,
		TargetFPS:     60,
		MaxFrameTime:  16 * time.Millisecond,
		MaxEntities:   50000,
		PoolCapacity:  50000,
		QualityPreset: "macbook_pro_2014",
	},
	ModeUltraPerformance: {
		Tier:          TierEnthusiast,
		TargetFPS:     144,
		MaxFrameTime:  6 * time.Millisecond,
		MaxEntities:   200000,
		PoolCapacity:  200000,
		QualityPreset: "ultra_performance",
	},
	ModeQuality: {
		Tier:          TierHighEnd,
		TargetFPS:     60,
		MaxFrameTime:  16 * time.Millisecond,
		MaxEntities:   100000,
		PoolCapacity:  100000,
		QualityPreset: "ultra",
	},
}

// ApplyMode installs the defaults of the named performance mode.
func (c *Config) ApplyMode(name string) error {
	p, ok := Modes[name]
	if !ok {
		return fmt.Errorf("unknown performance mode %q", name)
	}
	c.Governor.Mode = name
	c.Governor.TargetFPS = p.TargetFPS
	c.Targets.MaxFrameTime = p.MaxFrameTime
	c.Pools = PoolsConfig{
		MaxEntities:       p.MaxEntities,
		MaxTransforms:     p.PoolCapacity,
		MaxRenderCommands: p.PoolCapacity,
		MaxInputEvents:    p.PoolCapacity,
	}
	c.Quality.Preset = p.QualityPreset
	return nil
}
