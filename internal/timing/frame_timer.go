package timing

import (
	"errors"
	"time"
)

var (
	// ErrFrameInProgress is returned by StartFrame when the previous frame
	// was never closed. The open frame is left untouched.
	ErrFrameInProgress = errors.New("timing: frame already in progress")
	// ErrNoFrameInProgress is returned by EndFrame without a StartFrame.
	ErrNoFrameInProgress = errors.New("timing: no frame in progress")
)

// FrameTimer measures wall-clock frame duration.
//
// State machine: Idle -StartFrame-> Timing -EndFrame-> Idle. Any other
// transition is rejected so a stray call cannot corrupt the accumulated time.
type FrameTimer struct {
	clock       Clock
	lastFrame   time.Time
	frameStart  time.Time
	accumulated time.Duration
	frameCount  uint64
	timing      bool
}

func NewFrameTimer(clock Clock) *FrameTimer {
	if clock == nil {
		clock = SystemClock{}
	}
	now := clock.Now()
	return &FrameTimer{
		clock:      clock,
		lastFrame:  now,
		frameStart: now,
	}
}

// StartFrame records the frame start instant.
func (t *FrameTimer) StartFrame() error {
	if t.timing {
		return ErrFrameInProgress
	}
	t.frameStart = t.clock.Now()
	t.timing = true
	return nil
}

// EndFrame closes the open frame and returns its duration.
func (t *FrameTimer) EndFrame() (time.Duration, error) {
	if !t.timing {
		return 0, ErrNoFrameInProgress
	}
	now := t.clock.Now()
	d := now.Sub(t.frameStart)
	if d < 0 {
		d = 0
	}
	t.accumulated += d
	t.frameCount++
	t.lastFrame = now
	t.timing = false
	return d, nil
}

// InProgress reports whether a frame is open.
func (t *FrameTimer) InProgress() bool { return t.timing }

// Elapsed returns time since the open frame started, or 0 when idle.
func (t *FrameTimer) Elapsed() time.Duration {
	if !t.timing {
		return 0
	}
	return t.clock.Now().Sub(t.frameStart)
}

func (t *FrameTimer) Accumulated() time.Duration { return t.accumulated }
func (t *FrameTimer) FrameCount() uint64         { return t.frameCount }
func (t *FrameTimer) LastFrame() time.Time       { return t.lastFrame }
