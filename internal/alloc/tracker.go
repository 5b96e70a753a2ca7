package alloc

import "sync/atomic"

// Tracker counts dynamic allocations reported from code paths that are
// supposed to draw only from frame pools. It prevents nothing; it is the
// counter behind "zero allocations on the hot path" alerting.
//
// Safe for concurrent use. Instrumented call sites may report from any
// goroutine; BeginFrame and ClearViolations belong to the simulation loop.
type Tracker struct {
	hotPath    atomic.Uint64
	frame      atomic.Uint64
	peak       atomic.Uint64
	violations atomic.Uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// TrackHotPathAllocation records one hot-path allocation. Every hot-path
// allocation is a violation.
func (t *Tracker) TrackHotPathAllocation() {
	t.hotPath.Add(1)
	t.violations.Add(1)
	n := t.frame.Add(1)
	for {
		p := t.peak.Load()
		if n <= p || t.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

// BeginFrame zeroes the per-frame counter.
func (t *Tracker) BeginFrame() {
	t.frame.Store(0)
}

// IsZeroAllocationMaintained reports whether no violation has been recorded
// since creation or the last ClearViolations.
func (t *Tracker) IsZeroAllocationMaintained() bool {
	return t.violations.Load() == 0
}

// ClearViolations returns the violations recorded since the previous call and
// zeroes them. The hot-path counter is reduced by the same amount so the two
// stay equal.
func (t *Tracker) ClearViolations() uint64 {
	n := t.violations.Swap(0)
	if n > 0 {
		t.hotPath.Add(^(n - 1))
	}
	return n
}

func (t *Tracker) HotPathAllocations() uint64      { return t.hotPath.Load() }
func (t *Tracker) FrameAllocations() uint64        { return t.frame.Load() }
func (t *Tracker) PeakAllocationsPerFrame() uint64 { return t.peak.Load() }
func (t *Tracker) Violations() uint64              { return t.violations.Load() }

// TrackerStats is a snapshot of the tracker counters.
type TrackerStats struct {
	HotPathAllocations      uint64
	FrameAllocations        uint64
	PeakAllocationsPerFrame uint64
	Violations              uint64
}

func (t *Tracker) Stats() TrackerStats {
	return TrackerStats{
		HotPathAllocations:      t.hotPath.Load(),
		FrameAllocations:        t.frame.Load(),
		PeakAllocationsPerFrame: t.peak.Load(),
		Violations:              t.violations.Load(),
	}
}
