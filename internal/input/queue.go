package input

import (
	"errors"
	"sync/atomic"
)

// ErrQueueSize is returned for a queue size that is not a power of two ≥ 2.
var ErrQueueSize = errors.New("input: queue size must be a power of two >= 2")

// slot pairs an event with its sequence stamp. A slot at ring position p is
// writable when seq == p and readable when seq == p+1.
type slot struct {
	seq   atomic.Uint64
	event Event
}

// Queue is a bounded lock-free multi-producer / single-consumer FIFO.
//
// Thread-safety:
//   - Push: lock-free CAS on tail, any number of producers, never blocks
//   - Pop/Drain: one consumer (the simulation loop)
//
// Overflow: Push rejects the event and counts a drop. Unlike an overwriting
// ring, an accepted event is never lost and never delivered twice. Events
// from one producer come out in the order that producer pushed them.
type Queue struct {
	_       [64]byte
	tail    atomic.Uint64 // next position to claim (producers)
	_       [56]byte
	head    atomic.Uint64 // next position to read (consumer)
	_       [56]byte
	mask    uint64
	slots   []slot
	dropped atomic.Uint64
}

func NewQueue(size int) (*Queue, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, ErrQueueSize
	}
	q := &Queue{
		mask:  uint64(size - 1),
		slots: make([]slot, size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q, nil
}

// Push enqueues ev. Returns false when the queue is full.
func (q *Queue) Push(ev Event) bool {
	for {
		pos := q.tail.Load()
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch dif := int64(seq - pos); {
		case dif == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				s.event = ev
				s.seq.Store(pos + 1) // publish after the write
				return true
			}
		case dif < 0:
			// Slot still holds an unread event from the previous lap.
			q.dropped.Add(1)
			return false
		}
		// dif > 0: another producer claimed pos first; reload tail.
	}
}

// Pop removes the oldest published event. Returns ok=false when empty, or
// when the next claimed slot is still being written.
func (q *Queue) Pop() (Event, bool) {
	pos := q.head.Load()
	s := &q.slots[pos&q.mask]
	if s.seq.Load() != pos+1 {
		return Event{}, false
	}
	ev := s.event
	s.seq.Store(pos + q.mask + 1) // hand the slot to the next lap
	q.head.Store(pos + 1)
	return ev, true
}

// Drain pops every available event in FIFO order and returns the count.
func (q *Queue) Drain(fn func(Event)) int {
	n := 0
	for {
		ev, ok := q.Pop()
		if !ok {
			return n
		}
		fn(ev)
		n++
	}
}

// Len returns the approximate number of pending events.
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	return int(tail - head)
}

func (q *Queue) Cap() int { return len(q.slots) }

// Dropped returns how many pushes were rejected because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
