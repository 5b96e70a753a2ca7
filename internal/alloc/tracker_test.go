package alloc

import (
	"math"
	"sync"
	"testing"
)

func TestZeroViolationDetection(t *testing.T) {
	tr := NewTracker()

	if !tr.IsZeroAllocationMaintained() {
		t.Fatal("new tracker should report zero allocations")
	}

	tr.TrackHotPathAllocation()

	if tr.IsZeroAllocationMaintained() {
		t.Fatal("expected violation after hot-path allocation")
	}
	s := tr.Stats()
	if s.Violations != 1 || s.HotPathAllocations != 1 || s.FrameAllocations != 1 || s.PeakAllocationsPerFrame != 1 {
		t.Errorf("unexpected stats after one allocation: %+v", s)
	}

	tr.TrackHotPathAllocation()
	if tr.Violations() != 2 || tr.PeakAllocationsPerFrame() != 2 {
		t.Errorf("expected violations=2 peak=2, got violations=%d peak=%d", tr.Violations(), tr.PeakAllocationsPerFrame())
	}
}

func TestPeakSurvivesFrameBoundary(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.TrackHotPathAllocation()
	}

	tr.BeginFrame()
	if tr.FrameAllocations() != 0 {
		t.Fatalf("expected frame counter reset, got %d", tr.FrameAllocations())
	}
	tr.TrackHotPathAllocation()
	tr.TrackHotPathAllocation()

	if tr.PeakAllocationsPerFrame() != 5 {
		t.Errorf("expected peak 5, got %d", tr.PeakAllocationsPerFrame())
	}
	if tr.HotPathAllocations() != 7 {
		t.Errorf("expected 7 hot-path allocations, got %d", tr.HotPathAllocations())
	}
}

func TestViolationsMonotonicUntilCleared(t *testing.T) {
	tr := NewTracker()
	var last uint64
	for i := 0; i < 100; i++ {
		if i%7 == 0 {
			tr.BeginFrame()
		}
		tr.TrackHotPathAllocation()
		v := tr.Violations()
		if v < last {
			t.Fatalf("violations decreased from %d to %d", last, v)
		}
		if v != tr.HotPathAllocations() {
			t.Fatalf("violations=%d != hot path=%d", v, tr.HotPathAllocations())
		}
		last = v
	}

	if n := tr.ClearViolations(); n != 100 {
		t.Errorf("expected 100 cleared, got %d", n)
	}
	if !tr.IsZeroAllocationMaintained() {
		t.Error("expected zero-allocation state after clear")
	}
	if tr.HotPathAllocations() != 0 {
		t.Errorf("expected hot path to follow the clear, got %d", tr.HotPathAllocations())
	}
	if n := tr.ClearViolations(); n != 0 {
		t.Errorf("second clear should return 0, got %d", n)
	}
}

func TestTrackerConcurrentReporters(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				tr.TrackHotPathAllocation()
			}
		}()
	}
	wg.Wait()

	if tr.Violations() != 8000 || tr.HotPathAllocations() != 8000 {
		t.Errorf("expected 8000/8000, got violations=%d hot=%d", tr.Violations(), tr.HotPathAllocations())
	}
	if tr.PeakAllocationsPerFrame() != 8000 {
		t.Errorf("expected peak 8000, got %d", tr.PeakAllocationsPerFrame())
	}
}

func TestMemoryTracker(t *testing.T) {
	m := NewMemoryTracker()
	m.Observe(1536)
	m.Observe(512)

	s := m.Stats()
	if s.CurrentUsage != 512 || s.PeakUsage != 1536 {
		t.Errorf("expected current=512 peak=1536, got %+v", s)
	}
	if s.Samples != 2 {
		t.Errorf("expected 2 samples, got %d", s.Samples)
	}

	m.Observe(4000)
	if m.Stats().PeakUsage != 4000 {
		t.Errorf("expected observed peak 4000, got %d", m.Stats().PeakUsage)
	}

	m.SetGCPressure(1.7)
	if m.Stats().GCPressure != 1 {
		t.Errorf("expected gc pressure clamped to 1, got %v", m.Stats().GCPressure)
	}
	m.SetGCPressure(math.NaN())
	if m.Stats().GCPressure != 0 {
		t.Errorf("expected NaN gc pressure stored as 0, got %v", m.Stats().GCPressure)
	}
}
