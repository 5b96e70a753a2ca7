package pool

// Pool is a fixed-capacity bump allocator. Allocate hands out contiguous
// index ranges; Reset reclaims everything at the frame boundary. Indices are
// only meaningful until the next Reset.
//
// Owned by the simulation goroutine. No locking.
type Pool struct {
	capacity int
	used     int
	failures int    // failed allocations since last Reset
	total    uint64 // failed allocations over the pool lifetime
}

// New creates a pool with a fixed capacity. Negative capacities are treated
// as zero.
func New(capacity int) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool{capacity: capacity}
}

// Allocate reserves count units and returns the base index of the range.
// Returns ok=false when the pool cannot hold count more units; used is left
// untouched in that case. A zero count always succeeds.
func (p *Pool) Allocate(count int) (start int, ok bool) {
	if count < 0 {
		return 0, false
	}
	if count > p.capacity-p.used {
		p.failures++
		p.total++
		return 0, false
	}
	start = p.used
	p.used += count
	return start, true
}

// Reset releases every allocation made since the previous Reset.
func (p *Pool) Reset() {
	p.used = 0
	p.failures = 0
}

func (p *Pool) Capacity() int  { return p.capacity }
func (p *Pool) Used() int      { return p.used }
func (p *Pool) Remaining() int { return p.capacity - p.used }

// Failures returns the number of rejected allocations since the last Reset.
func (p *Pool) Failures() int { return p.failures }

// TotalFailures returns the number of rejected allocations since creation.
func (p *Pool) TotalFailures() uint64 { return p.total }

// Fits reports whether count more units would fit without allocating them.
func (p *Pool) Fits(count int) bool {
	return count >= 0 && count <= p.capacity-p.used
}
