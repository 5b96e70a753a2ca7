package timing

import (
	"math"
	"time"
)

// FPSSmoothing is the weight of the newest sample in the average FPS
// exponential moving average. 0.1 settles within ~20 frames.
const FPSSmoothing = 0.1

// minFrameTime keeps FPS finite for a zero-length frame.
const minFrameTime = time.Nanosecond

// FPSCounter derives frame rate statistics from frame durations.
type FPSCounter struct {
	current  float64
	average  float64
	min      float64
	max      float64
	variance float64
	target   float64
	samples  uint64
}

func NewFPSCounter(targetFPS float64) *FPSCounter {
	return &FPSCounter{
		min:    math.MaxFloat64,
		target: targetFPS,
	}
}

// Update folds one frame duration into the statistics.
func (c *FPSCounter) Update(frameTime time.Duration) {
	if frameTime < minFrameTime {
		frameTime = minFrameTime
	}
	ms := float64(frameTime) / float64(time.Millisecond)
	c.current = 1000 / ms

	if c.samples == 0 {
		c.average = c.current
	} else {
		c.average = FPSSmoothing*c.current + (1-FPSSmoothing)*c.average
	}
	c.samples++

	c.min = math.Min(c.min, c.current)
	c.max = math.Max(c.max, c.current)

	if c.target > 0 {
		c.variance = math.Abs(ms - 1000/c.target)
	}
}

// FPSStats is a snapshot of the counter.
type FPSStats struct {
	Current           float64
	Average           float64
	Min               float64
	Max               float64
	FrameTimeVariance float64 // |frame ms - target frame ms|
	Target            float64
	Samples           uint64
}

func (c *FPSCounter) Stats() FPSStats {
	return FPSStats{
		Current:           c.current,
		Average:           c.average,
		Min:               c.min,
		Max:               c.max,
		FrameTimeVariance: c.variance,
		Target:            c.target,
		Samples:           c.samples,
	}
}

func (c *FPSCounter) Current() float64 { return c.current }
func (c *FPSCounter) Average() float64 { return c.average }
func (c *FPSCounter) Target() float64  { return c.target }

// TargetFrameTime is the frame budget implied by the target rate.
func (c *FPSCounter) TargetFrameTime() time.Duration {
	if c.target <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.target)
}
