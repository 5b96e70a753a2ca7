package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mindland/governor/internal/history"
)

// BatchWriter stores frames and quality events for one session.
// HistoryRepo is the PostgreSQL implementation.
type BatchWriter interface {
	WriteFrames(ctx context.Context, sessionID int64, frames []history.Frame) (int64, error)
	WriteEvents(ctx context.Context, sessionID int64, events []QualityEvent) error
}

// Batch is one flush worth of data handed from the simulation goroutine.
type Batch struct {
	Frames []history.Frame
	Events []QualityEvent
}

// Sink writes batches on its own goroutine so the frame loop never waits on
// the database.
type Sink struct {
	w         BatchWriter
	sessionID int64
	queue     chan Batch
	timeout   time.Duration
	log       *zap.Logger

	written atomic.Int64  // frames written
	dropped atomic.Uint64 // batches dropped on a full queue
	failed  atomic.Uint64 // batches that failed to write

	closeOnce sync.Once
	done      chan struct{}
}

// NewSink starts the writer goroutine. queueSize bounds the batches waiting
// to be written.
func NewSink(w BatchWriter, sessionID int64, queueSize int, log *zap.Logger) *Sink {
	if queueSize <= 0 {
		queueSize = 1
	}
	s := &Sink{
		w:         w,
		sessionID: sessionID,
		queue:     make(chan Batch, queueSize),
		timeout:   10 * time.Second,
		log:       log,
		done:      make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// Submit queues a batch without blocking. Returns false if the queue is full
// and the batch was dropped. Must not be called after Close.
func (s *Sink) Submit(b Batch) bool {
	if len(b.Frames) == 0 && len(b.Events) == 0 {
		return true
	}
	select {
	case s.queue <- b:
		return true
	default:
		s.dropped.Add(1)
		s.log.Warn("history sink queue full, dropping batch",
			zap.Int("frames", len(b.Frames)),
			zap.Int("events", len(b.Events)))
		return false
	}
}

func (s *Sink) writeLoop() {
	defer close(s.done)
	for b := range s.queue {
		s.write(b)
	}
}

func (s *Sink) write(b Batch) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if len(b.Frames) > 0 {
		n, err := s.w.WriteFrames(ctx, s.sessionID, b.Frames)
		if err != nil {
			s.failed.Add(1)
			s.log.Error("write frames", zap.Int64("session", s.sessionID), zap.Error(err))
		} else {
			s.written.Add(n)
		}
	}
	if len(b.Events) > 0 {
		if err := s.w.WriteEvents(ctx, s.sessionID, b.Events); err != nil {
			s.failed.Add(1)
			s.log.Error("write quality events", zap.Int64("session", s.sessionID), zap.Error(err))
		}
	}
}

// Close stops accepting batches and waits until queued ones are written or
// ctx expires.
func (s *Sink) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.queue) })
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) Written() int64   { return s.written.Load() }
func (s *Sink) Dropped() uint64  { return s.dropped.Load() }
func (s *Sink) Failed() uint64   { return s.failed.Load() }
func (s *Sink) SessionID() int64 { return s.sessionID }
