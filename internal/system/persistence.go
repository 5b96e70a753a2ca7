package system

import (
	"time"

	"github.com/mindland/governor/internal/core/event"
	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/governor"
	"github.com/mindland/governor/internal/persist"
	"github.com/mindland/governor/internal/quality"
	"github.com/mindland/governor/internal/thermal"
)

// BatchSubmitter accepts batches without blocking. persist.Sink implements it.
type BatchSubmitter interface {
	Submit(b persist.Batch) bool
}

// PersistenceSystem hands new history frames and quality events to the
// database sink every interval frames. Phase 3 (Persist).
type PersistenceSystem struct {
	gov       *governor.Governor
	sink      BatchSubmitter
	interval  int // flush every N frames
	tickCount int
	lastSeq   uint64
	events    []persist.QualityEvent
}

func NewPersistenceSystem(gov *governor.Governor, sink BatchSubmitter, intervalFrames int) *PersistenceSystem {
	if intervalFrames <= 0 {
		intervalFrames = 1
	}
	s := &PersistenceSystem{gov: gov, sink: sink, interval: intervalFrames}
	event.Subscribe(gov.Bus, func(e event.QualityDegraded) {
		s.record(e.Frame, quality.ActionDegraded, e.Strategy, e.State, e.Settings)
	})
	event.Subscribe(gov.Bus, func(e event.QualityReapplied) {
		s.record(e.Frame, quality.ActionReapplied, quality.Emergency, e.State, e.Settings)
	})
	event.Subscribe(gov.Bus, func(e event.QualityRecovered) {
		s.record(e.Frame, quality.ActionRecovered, quality.Conservative, e.State, e.Settings)
	})
	return s
}

func (s *PersistenceSystem) record(frame uint64, a quality.Action, st quality.Strategy, ts thermal.State, q quality.Settings) {
	s.gov.Tracker.TrackHotPathAllocation()
	s.events = append(s.events, persist.QualityEvent{
		Frame:    frame,
		Action:   a,
		Strategy: st,
		State:    ts,
		Settings: q,
	})
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush submits everything recorded since the previous flush. Called on
// shutdown so the tail of the session is not lost.
func (s *PersistenceSystem) Flush() {
	frames := s.gov.History.Since(s.lastSeq)
	if len(frames) > 0 {
		s.gov.Tracker.TrackHotPathAllocation()
		s.lastSeq = frames[len(frames)-1].Seq
	}
	b := persist.Batch{Frames: frames, Events: s.events}
	s.events = nil
	s.sink.Submit(b)
}
