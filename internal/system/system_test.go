package system

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mindland/governor/internal/config"
	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/governor"
	"github.com/mindland/governor/internal/input"
	"github.com/mindland/governor/internal/persist"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/telemetry"
	"github.com/mindland/governor/internal/thermal"
	"github.com/mindland/governor/internal/timing"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var cool = telemetry.Static{CPUTemp: 50, GPUTemp: 45, FanSpeed: 1500}

func newGovernor(t *testing.T, mutate func(*config.Config)) (*governor.Governor, *timing.MockClock) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	clock := timing.NewMockClock(epoch)
	g, err := governor.New(cfg, governor.Deps{Clock: clock})
	if err != nil {
		t.Fatal(err)
	}
	return g, clock
}

// advance moves the mock clock inside the frame so frames have a cost.
type advance struct {
	clock *timing.MockClock
	cost  time.Duration
}

func (a advance) Phase() coresys.Phase   { return coresys.PhaseRender }
func (a advance) Update(_ time.Duration) { a.clock.Advance(a.cost) }

func TestInputSystemDrainsIntoPool(t *testing.T) {
	g, clock := newGovernor(t, func(c *config.Config) { c.Pools.MaxInputEvents = 3 })
	var keys []input.Key
	sys := NewInputSystem(g, func(ev input.Event) {
		if ev.Kind == input.EventKeyPressed {
			keys = append(keys, ev.Key)
		}
	})
	r := coresys.NewRunner()
	r.Register(sys)
	r.Register(advance{clock, 10 * time.Millisecond})

	for k := input.Key('a'); k < 'a'+5; k++ {
		g.Input.PressKey(k)
	}

	if _, err := RunFrame(g, r, cool, 16*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if sys.Processed() != 3 || g.Input.Pending() != 2 {
		t.Fatalf("expected 3 processed and 2 deferred, got %d/%d", sys.Processed(), g.Input.Pending())
	}
	if sys.Deferred() != 1 {
		t.Errorf("expected 1 deferred frame, got %d", sys.Deferred())
	}

	RunFrame(g, r, cool, 16*time.Millisecond)
	if sys.Processed() != 5 || g.Input.Pending() != 0 {
		t.Fatalf("expected the rest next frame, got %d/%d", sys.Processed(), g.Input.Pending())
	}
	if len(keys) != 5 || keys[0] != 'a' || keys[4] != 'e' {
		t.Errorf("expected keys a..e in order, got %v", keys)
	}
}

type loadRecorder struct{ load float64 }

func (l *loadRecorder) SetLoad(v float64) { l.load = v }

func TestWorkloadReservesAndHeats(t *testing.T) {
	g, clock := newGovernor(t, func(c *config.Config) { c.Pools.MaxEntities = 1000 })
	heat := &loadRecorder{}
	w := NewWorkloadSystem(g, heat, 0.5)
	w.spin = func(int) {}

	g.BeginFrame()
	w.Update(0)
	if g.Pools.Entities().Used() != 400 {
		t.Errorf("expected 400 entities reserved, got %d", g.Pools.Entities().Used())
	}
	if g.Pools.RenderCommands().Used() != 400 {
		t.Errorf("expected 400 render commands at baseline fidelity, got %d", g.Pools.RenderCommands().Used())
	}
	if heat.load != 0.5 {
		t.Errorf("expected heat load 0.5 at baseline, got %v", heat.load)
	}
	clock.Advance(10 * time.Millisecond)
	g.EndFrame(telemetry.Sample{CPUTemp: 80})

	// Protected settings lower both render work and heat.
	g.BeginFrame()
	w.Update(0)
	if g.Pools.RenderCommands().Used() >= 400 {
		t.Errorf("expected fewer render commands when degraded, got %d", g.Pools.RenderCommands().Used())
	}
	if heat.load >= 0.5 {
		t.Errorf("expected lower heat when degraded, got %v", heat.load)
	}
}

func TestWorkloadAdmitsReservedCount(t *testing.T) {
	g, clock := newGovernor(t, func(c *config.Config) { c.Pools.MaxEntities = 1000 })
	w := NewWorkloadSystem(g, nil, 0.5)
	spun := 0
	w.spin = func(n int) { spun = n }

	// A 32ms frame against a 16ms budget halves admission.
	g.BeginFrame()
	clock.Advance(32 * time.Millisecond)
	g.EndFrame(telemetry.Sample{CPUTemp: 50})

	g.BeginFrame()
	w.Update(0)
	if w.Admitted() != 200 || g.Pools.Entities().Used() != 200 {
		t.Errorf("expected 200 admitted and reserved, got %d/%d", w.Admitted(), g.Pools.Entities().Used())
	}
	if spun != w.Admitted() {
		t.Errorf("expected spin over %d entities, got %d", w.Admitted(), spun)
	}
}

func TestWorkloadRejectedWhenPoolTooSmall(t *testing.T) {
	g, _ := newGovernor(t, func(c *config.Config) {
		c.Pools.MaxEntities = 1000
		c.Pools.MaxTransforms = 10
	})
	w := NewWorkloadSystem(g, nil, 1)
	w.spin = func(int) {}
	g.BeginFrame()
	w.Update(0)
	if w.Rejected() != 1 || w.Admitted() != 0 {
		t.Errorf("expected rejection, got rejected=%d admitted=%d", w.Rejected(), w.Admitted())
	}
	if g.Pools.Exhaustions() == 0 {
		t.Error("expected the short pool to record an exhaustion")
	}
}

func TestFidelity(t *testing.T) {
	base := quality.MacBookPro2014()
	if f := Fidelity(base, base); f < 0.999 || f > 1.001 {
		t.Errorf("expected 1 at baseline, got %v", f)
	}
	prot := base
	prot.ApplyThermalProtection()
	if f := Fidelity(prot, base); f >= 1 || f < 0.05 {
		t.Errorf("expected reduced fidelity, got %v", f)
	}
}

func TestReportSystemLogsAndClears(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	g, clock := newGovernor(t, nil)
	rep := NewReportSystem(g, time.Second, zap.New(core))
	r := coresys.NewRunner()
	r.SetClock(clock.Now)
	r.Register(advance{clock, 10 * time.Millisecond})
	r.Register(rep)
	rep.TrackPhases(r)

	g.Tracker.TrackHotPathAllocation()
	for i := 0; i < 3; i++ {
		RunFrame(g, r, cool, 400*time.Millisecond)
	}
	if rep.Reports() != 1 {
		t.Fatalf("expected 1 report after 1.2s, got %d", rep.Reports())
	}
	warn := logs.FilterMessage("frame report: hot-path allocations").All()
	if len(warn) != 1 {
		t.Fatalf("expected a violation warning, got %v", logs.All())
	}
	fields := warn[0].ContextMap()
	if v := fields["violations"]; v != uint64(1) {
		t.Errorf("expected 1 violation logged, got %v", v)
	}
	if p := fields["slowest_phase"]; p != "render" {
		t.Errorf("expected render as the slowest phase, got %v", p)
	}
	if g.Tracker.Violations() != 0 {
		t.Error("report should clear violations")
	}

	rep.Report()
	if logs.FilterMessage("frame report").Len() != 1 {
		t.Error("expected a clean report after clearing")
	}
}

func TestReportSystemLogsThermalChanges(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	g, clock := newGovernor(t, nil)
	NewReportSystem(g, time.Hour, zap.New(core))
	r := coresys.NewRunner()
	r.Register(advance{clock, 10 * time.Millisecond})

	RunFrame(g, r, telemetry.Static{CPUTemp: 90}, time.Millisecond)
	RunFrame(g, r, cool, time.Millisecond)

	entries := logs.FilterMessage("thermal state changed").All()
	if len(entries) != 1 || entries[0].ContextMap()["to"] != "critical" {
		t.Errorf("expected one change to critical, got %v", entries)
	}
}

type memSubmitter struct{ batches []persist.Batch }

func (m *memSubmitter) Submit(b persist.Batch) bool {
	m.batches = append(m.batches, b)
	return true
}

func TestPersistenceSystemFlushesNewFrames(t *testing.T) {
	g, clock := newGovernor(t, nil)
	sink := &memSubmitter{}
	p := NewPersistenceSystem(g, sink, 5)
	r := coresys.NewRunner()
	r.Register(advance{clock, 10 * time.Millisecond})
	r.Register(p)

	// Frame 1 is hot: the degrade event is delivered in frame 2.
	reports := make([]governor.FrameReport, 0, 10)
	rep, _ := RunFrame(g, r, telemetry.Static{CPUTemp: 80}, time.Millisecond)
	reports = append(reports, rep)
	for i := 0; i < 9; i++ {
		rep, _ := RunFrame(g, r, cool, time.Millisecond)
		reports = append(reports, rep)
	}
	if len(sink.batches) != 2 {
		t.Fatalf("expected 2 flushes in 10 frames, got %d", len(sink.batches))
	}
	// The flush in frame 5 sees frames 1..4; frame 10 sees 5..9.
	first, second := sink.batches[0], sink.batches[1]
	if len(first.Frames) != 4 || first.Frames[0].Seq != 1 {
		t.Errorf("unexpected first batch: %d frames", len(first.Frames))
	}
	if len(second.Frames) != 5 || second.Frames[0].Seq != 5 {
		t.Errorf("unexpected second batch: %d frames", len(second.Frames))
	}
	if len(first.Events) != 1 || first.Events[0].Action != quality.ActionDegraded || first.Events[0].State != thermal.Hot {
		t.Errorf("expected the degrade event in the first batch, got %+v", first.Events)
	}

	// Recording the event (frame 2) and both flushes (frames 5, 10) allocate.
	for i, rep := range reports {
		want := uint64(0)
		if rep.Frame == 2 || rep.Frame == 5 || rep.Frame == 10 {
			want = 1
		}
		if rep.Violations != want {
			t.Errorf("frame %d: expected %d violations, got %d", i+1, want, rep.Violations)
		}
	}
	if g.Tracker.HotPathAllocations() != 3 {
		t.Errorf("expected 3 hot-path allocations, got %d", g.Tracker.HotPathAllocations())
	}

	p.Flush()
	if last := sink.batches[2]; len(last.Frames) != 1 || last.Frames[0].Seq != 10 {
		t.Errorf("expected final flush to carry frame 10, got %+v", last.Frames)
	}
	if g.Tracker.HotPathAllocations() != 4 {
		t.Errorf("expected the final flush counted, got %d", g.Tracker.HotPathAllocations())
	}
}

func TestPersistenceSystemSkipsEmptyFlush(t *testing.T) {
	g, _ := newGovernor(t, nil)
	sink := &memSubmitter{}
	p := NewPersistenceSystem(g, sink, 1)
	p.Flush()
	if len(sink.batches) != 1 || len(sink.batches[0].Frames) != 0 {
		t.Fatalf("expected one empty batch, got %+v", sink.batches)
	}
	if g.Tracker.HotPathAllocations() != 0 {
		t.Errorf("expected no hot-path allocation without new frames, got %d", g.Tracker.HotPathAllocations())
	}
}

func TestClosedLoopWithSyntheticTelemetry(t *testing.T) {
	g, clock := newGovernor(t, func(c *config.Config) { c.Pools.MaxEntities = 1000 })
	heat := telemetry.NewSynthetic(7)
	w := NewWorkloadSystem(g, heat, 1)
	w.spin = func(int) {}

	r := coresys.NewRunner()
	r.Register(w)
	r.Register(advance{clock, 10 * time.Millisecond})

	sawHot := false
	for i := 0; i < 3000; i++ {
		rep, err := RunFrame(g, r, heat, 10*time.Millisecond)
		if err != nil {
			t.Fatal(err)
		}
		if rep.State == thermal.Critical {
			t.Fatalf("frame %d: protection should keep the workload out of critical", i)
		}
		if rep.State == thermal.Hot {
			sawHot = true
		}
	}
	if !sawHot {
		t.Fatal("full load never reached hot")
	}
	if g.Quality.Degradations() != 1 || !g.Quality.Degraded() {
		t.Errorf("expected one lasting degrade, got %d degraded=%v", g.Quality.Degradations(), g.Quality.Degraded())
	}
}
