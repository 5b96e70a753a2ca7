package thermal

import (
	"math"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		temp float64
		want State
	}{
		{-40, Cool},
		{0, Cool},
		{59.9, Cool},
		{60.0, Warm},
		{74.9, Warm},
		{75.0, Hot},
		{84.9, Hot},
		{85.0, Critical},
		{120, Critical},
		{math.Inf(1), Critical},
		{math.Inf(-1), Cool},
		{math.NaN(), Critical},
	}
	for _, tt := range tests {
		if got := Classify(tt.temp); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.temp, got, tt.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(-50)
	for temp := -50.0; temp <= 150; temp += 0.05 {
		s := Classify(temp)
		if s < prev {
			t.Fatalf("state decreased at %.2f: %s -> %s", temp, prev, s)
		}
		if s > Critical {
			t.Fatalf("out-of-range state %d at %.2f", s, temp)
		}
		prev = s
	}
}

func TestMonitorUpdate(t *testing.T) {
	m := NewMonitor()
	if m.State() != Cool || m.CPUTemp != 45 || m.FanSpeed != 1200 {
		t.Fatalf("unexpected defaults %+v", m)
	}

	m.Apply(80, 70, 2400)
	prev := m.Update()
	if prev != Cool || m.State() != Hot {
		t.Errorf("expected cool -> hot, got %s -> %s", prev, m.State())
	}
	if !m.Throttling() {
		t.Error("expected throttling in hot state")
	}

	// No hysteresis: dropping just under the boundary goes straight back.
	m.Apply(74.99, 70, 2400)
	m.Update()
	if m.State() != Warm || m.Throttling() {
		t.Errorf("expected warm without throttling, got %s throttling=%v", m.State(), m.Throttling())
	}
}

func TestMonitorStateFollowsReadings(t *testing.T) {
	m := NewMonitor()
	for _, temp := range []float64{30, 59.99, 60, 75, 84.9, 85, 120, 70, math.NaN(), 40} {
		before := m.State()
		m.Apply(temp, 40, 1500)
		if m.State() != before {
			t.Errorf("expected Apply to keep %s until Update, got %s", before, m.State())
		}
		m.Update()
		if want := Classify(temp); m.State() != want {
			t.Errorf("expected %s at %v, got %s", want, temp, m.State())
		}
		if m.Throttling() != (m.State() >= Hot) {
			t.Errorf("expected throttling=%v at %v, got %v", m.State() >= Hot, temp, m.Throttling())
		}
	}
}

func TestStateString(t *testing.T) {
	names := map[State]string{Cool: "cool", Warm: "warm", Hot: "hot", Critical: "critical", State(9): "unknown"}
	for s, want := range names {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
