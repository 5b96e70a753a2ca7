package input

import (
	"errors"
	"sync"
	"testing"
)

func TestNewQueueRejectsBadSize(t *testing.T) {
	for _, size := range []int{0, 1, 3, 100} {
		if _, err := NewQueue(size); !errors.Is(err, ErrQueueSize) {
			t.Errorf("size %d: expected ErrQueueSize, got %v", size, err)
		}
	}
	if _, err := NewQueue(64); err != nil {
		t.Errorf("size 64: unexpected error %v", err)
	}
}

func TestQueueFIFO(t *testing.T) {
	q, _ := NewQueue(8)
	for i := 0; i < 5; i++ {
		if !q.Push(KeyPressed(Key(i), uint64(i))) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if q.Len() != 5 {
		t.Errorf("expected len 5, got %d", q.Len())
	}
	for i := 0; i < 5; i++ {
		ev, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if ev.Key != Key(i) || ev.Timestamp != uint64(i) {
			t.Errorf("pop %d: got %+v", i, ev)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("expected empty queue")
	}
}

func TestQueueFullDropsWithoutBlocking(t *testing.T) {
	q, _ := NewQueue(4)
	for i := 0; i < 4; i++ {
		q.Push(KeyPressed(Key(i), 0))
	}
	if q.Push(KeyPressed(9, 0)) {
		t.Fatal("push into full queue should fail")
	}
	if q.Dropped() != 1 {
		t.Errorf("expected 1 drop, got %d", q.Dropped())
	}

	// Accepted events are still intact and in order.
	ev, _ := q.Pop()
	if ev.Key != 0 {
		t.Errorf("expected key 0 first, got %d", ev.Key)
	}
	if !q.Push(KeyPressed(4, 0)) {
		t.Fatal("push after pop should succeed")
	}
	var keys []Key
	q.Drain(func(ev Event) { keys = append(keys, ev.Key) })
	want := []Key{1, 2, 3, 4}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}

func TestQueueWrapsManyLaps(t *testing.T) {
	q, _ := NewQueue(4)
	next := uint64(0)
	for i := uint64(0); i < 1000; i++ {
		q.Push(MouseMoved(Vec2{}, i))
		if i%3 == 2 {
			q.Drain(func(ev Event) {
				if ev.Timestamp != next {
					t.Fatalf("expected ts %d, got %d", next, ev.Timestamp)
				}
				next++
			})
		}
	}
}

// Multiple producers: nothing lost, nothing duplicated, per-producer order
// preserved.
func TestQueueMultiProducerFIFOPerProducer(t *testing.T) {
	const producers = 4
	const perProducer = 5000

	q, _ := NewQueue(1024)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; {
				ev := Event{Kind: EventKeyPressed, Key: Key(p), Timestamp: uint64(i)}
				if q.Push(ev) {
					i++
				}
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var lastSeen [producers]int64
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	received := 0
	check := func(ev Event) {
		p := int(ev.Key)
		ts := int64(ev.Timestamp)
		if ts != lastSeen[p]+1 {
			t.Fatalf("producer %d: expected %d, got %d", p, lastSeen[p]+1, ts)
		}
		lastSeen[p] = ts
		received++
	}

loop:
	for {
		q.Drain(check)
		select {
		case <-done:
			break loop
		default:
		}
	}
	q.Drain(check)

	if received != producers*perProducer {
		t.Errorf("expected %d events, got %d", producers*perProducer, received)
	}
}

func BenchmarkQueuePushPop(b *testing.B) {
	q, _ := NewQueue(1024)
	ev := KeyPressed('a', 0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		q.Push(ev)
		q.Pop()
	}
}
