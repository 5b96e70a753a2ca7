package history

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sugawarayuuta/sonnet"
)

// DefaultCapacity is the number of frames kept when none is configured.
const DefaultCapacity = 1000

// Frame is the metrics record of one completed frame.
type Frame struct {
	Seq         uint64        `json:"seq"`
	Timestamp   time.Time     `json:"timestamp"`
	FrameTime   time.Duration `json:"frame_time_ns"`
	CPUUsage    float64       `json:"cpu_usage"`
	GPUUsage    float64       `json:"gpu_usage"`
	MemoryUsage uint64        `json:"memory_usage"`
	Temperature float64       `json:"temperature"`
	FPS         float64       `json:"fps"`
}

// Ring is a bounded FIFO of frames. The simulation goroutine writes; any
// goroutine may read.
type Ring struct {
	mu     sync.RWMutex
	frames []Frame
	head   int // index of the oldest frame
	size   int
	seq    uint64 // frames ever recorded
}

// NewRing allocates the full capacity up front. Non-positive capacity falls
// back to DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{frames: make([]Frame, capacity)}
}

// Record appends f, evicting the oldest frame when full. The frame's Seq is
// assigned here and returned.
func (r *Ring) Record(f Frame) uint64 {
	r.mu.Lock()
	r.seq++
	f.Seq = r.seq
	if r.size < len(r.frames) {
		r.frames[(r.head+r.size)%len(r.frames)] = f
		r.size++
	} else {
		r.frames[r.head] = f
		r.head = (r.head + 1) % len(r.frames)
	}
	r.mu.Unlock()
	return f.Seq
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *Ring) Cap() int { return len(r.frames) }

// Recorded returns the total number of frames ever recorded.
func (r *Ring) Recorded() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Snapshot copies the retained frames, oldest first.
func (r *Ring) Snapshot() []Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyFrom(0)
}

// Since copies retained frames with Seq greater than seq, oldest first.
// Frames already evicted are skipped silently.
func (r *Ring) Since(seq uint64) []Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if seq >= r.seq {
		return nil
	}
	oldest := r.seq - uint64(r.size) // seq of the frame before the oldest retained
	skip := 0
	if seq > oldest {
		skip = int(seq - oldest)
	}
	return r.copyFrom(skip)
}

func (r *Ring) copyFrom(skip int) []Frame {
	out := make([]Frame, 0, r.size-skip)
	for i := skip; i < r.size; i++ {
		out = append(out, r.frames[(r.head+i)%len(r.frames)])
	}
	return out
}

// Latest returns the newest frame.
func (r *Ring) Latest() (Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.size == 0 {
		return Frame{}, false
	}
	return r.frames[(r.head+r.size-1)%len(r.frames)], true
}

// AverageFPS is the arithmetic mean FPS over retained frames.
func (r *Ring) AverageFPS() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.size == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < r.size; i++ {
		sum += r.frames[(r.head+i)%len(r.frames)].FPS
	}
	return sum / float64(r.size)
}

// ComplianceRatio is the fraction of retained frames at or above targetFPS.
func (r *Ring) ComplianceRatio(targetFPS float64) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.size == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < r.size; i++ {
		if r.frames[(r.head+i)%len(r.frames)].FPS >= targetFPS {
			hits++
		}
	}
	return float64(hits) / float64(r.size)
}

// Export writes the snapshot to w as a JSON array.
func (r *Ring) Export(w io.Writer) error {
	buf, err := sonnet.Marshal(r.Snapshot())
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
