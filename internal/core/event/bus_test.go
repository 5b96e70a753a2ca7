package event

import (
	"testing"
	"time"

	"github.com/mindland/governor/internal/thermal"
)

func TestBusDeliversNextFrame(t *testing.T) {
	b := NewBus()
	var got []ThermalStateChanged
	Subscribe(b, func(e ThermalStateChanged) { got = append(got, e) })

	Emit(b, ThermalStateChanged{Frame: 1, From: thermal.Cool, To: thermal.Warm})
	Emit(b, ThermalStateChanged{Frame: 2, From: thermal.Warm, To: thermal.Hot})
	if b.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", b.Pending())
	}
	if n := b.DispatchAll(); n != 0 || len(got) != 0 {
		t.Fatal("events delivered before swap")
	}

	b.SwapBuffers()
	if n := b.DispatchAll(); n != 2 {
		t.Errorf("expected 2 dispatched, got %d", n)
	}
	if len(got) != 2 || got[0].Frame != 1 || got[1].To != thermal.Hot {
		t.Errorf("unexpected delivery %+v", got)
	}

	// The next swap clears what was delivered.
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 0 {
		t.Errorf("expected empty frame, got %d events", n)
	}
}

func TestBusRoutesByType(t *testing.T) {
	b := NewBus()
	var thermalEvents, poolEvents int
	Subscribe(b, func(ThermalStateChanged) { thermalEvents++ })
	Subscribe(b, func(PoolExhausted) { poolEvents++ })
	Subscribe(b, func(PoolExhausted) { poolEvents++ })

	Emit(b, PoolExhausted{Failures: 3})
	Emit(b, QualityRecovered{}) // no subscriber
	b.SwapBuffers()
	b.DispatchAll()

	if thermalEvents != 0 || poolEvents != 2 {
		t.Errorf("expected 0 thermal and 2 pool deliveries, got %d/%d", thermalEvents, poolEvents)
	}
}

func TestBusHandlerMaySubscribeDuringDispatch(t *testing.T) {
	b := NewBus()
	var late int
	Subscribe(b, func(ThermalStateChanged) {
		Subscribe(b, func(ThermalStateChanged) { late++ })
	})
	Emit(b, ThermalStateChanged{Frame: 1})
	b.SwapBuffers()

	done := make(chan int, 1)
	go func() { done <- b.DispatchAll() }()
	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("expected 1 dispatched, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("expected DispatchAll to return, got a deadlock")
	}
	if late != 0 {
		t.Errorf("expected the new handler to wait for the next dispatch, got %d calls", late)
	}

	Emit(b, ThermalStateChanged{Frame: 2})
	b.SwapBuffers()
	b.DispatchAll()
	if late != 1 {
		t.Errorf("expected 1 call to the handler added during dispatch, got %d", late)
	}
}
