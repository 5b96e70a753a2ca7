package system

import (
	"time"

	"github.com/mindland/governor/internal/core/event"
	coresys "github.com/mindland/governor/internal/core/system"
	"github.com/mindland/governor/internal/governor"
	"github.com/mindland/governor/internal/input"
)

// InputSystem drains the input event queue, charging one input-event pool
// unit per event. Events that do not fit stay queued for the next frame.
// Phase 0 (Input).
type InputSystem struct {
	gov     *governor.Governor
	handler func(input.Event)

	processed   uint64
	deferred    uint64 // frames that left events queued for lack of pool space
	lastDropped uint64
}

// NewInputSystem creates the system. handler may be nil.
func NewInputSystem(gov *governor.Governor, handler func(input.Event)) *InputSystem {
	return &InputSystem{gov: gov, handler: handler}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	pool := s.gov.Pools.InputEvents()
	for pool.Fits(1) {
		ev, ok := s.gov.Input.PopEvent()
		if !ok {
			break
		}
		pool.Allocate(1)
		s.processed++
		if s.handler != nil {
			s.handler(ev)
		}
	}
	if !pool.Fits(1) && s.gov.Input.Pending() > 0 {
		s.deferred++
	}

	if d := s.gov.Input.Dropped(); d != s.lastDropped {
		event.Emit(s.gov.Bus, event.InputDropped{Frame: s.gov.Frame(), Dropped: d - s.lastDropped})
		s.lastDropped = d
	}
}

func (s *InputSystem) Processed() uint64 { return s.processed }
func (s *InputSystem) Deferred() uint64  { return s.deferred }
