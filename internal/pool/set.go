package pool

// Kind identifies one of the per-frame resource classes.
type Kind uint8

const (
	KindEntity        Kind = iota // 0: simulation entities
	KindTransform                 // 1: transform slots
	KindRenderCommand             // 2: render command buffer entries
	KindInputEvent                // 3: input events drained this frame
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindTransform:
		return "transform"
	case KindRenderCommand:
		return "render_command"
	case KindInputEvent:
		return "input_event"
	}
	return "unknown"
}

// Kinds lists every resource class in index order.
var Kinds = [kindCount]Kind{KindEntity, KindTransform, KindRenderCommand, KindInputEvent}

// Capacities configures the size of each pool in a Set.
type Capacities struct {
	Entities       int
	Transforms     int
	RenderCommands int
	InputEvents    int
}

// Reservation holds the base indices and reserved counts of a successful
// Reserve call.
type Reservation struct {
	Entity        int
	Transform     int
	RenderCommand int
	InputEvent    int

	Entities       int
	Transforms     int
	RenderCommands int
	InputEvents    int
}

// Usage is a point-in-time view of one pool.
type Usage struct {
	Kind     Kind
	Used     int
	Capacity int
	Failures int
}

// Set groups the four frame pools. The pools never share storage.
type Set struct {
	pools [kindCount]Pool
}

func NewSet(c Capacities) *Set {
	s := &Set{}
	s.pools[KindEntity] = *New(c.Entities)
	s.pools[KindTransform] = *New(c.Transforms)
	s.pools[KindRenderCommand] = *New(c.RenderCommands)
	s.pools[KindInputEvent] = *New(c.InputEvents)
	return s
}

// Pool returns the pool for kind k. Panics on an unknown kind.
func (s *Set) Pool(k Kind) *Pool { return &s.pools[k] }

func (s *Set) Entities() *Pool       { return &s.pools[KindEntity] }
func (s *Set) Transforms() *Pool     { return &s.pools[KindTransform] }
func (s *Set) RenderCommands() *Pool { return &s.pools[KindRenderCommand] }
func (s *Set) InputEvents() *Pool    { return &s.pools[KindInputEvent] }

// HasSufficientCapacity reports whether all four requests would currently
// fit. Pure read; allocates nothing.
func (s *Set) HasSufficientCapacity(entities, transforms, renderCommands, inputEvents int) bool {
	return s.pools[KindEntity].Fits(entities) &&
		s.pools[KindTransform].Fits(transforms) &&
		s.pools[KindRenderCommand].Fits(renderCommands) &&
		s.pools[KindInputEvent].Fits(inputEvents)
}

// Reserve allocates from all four pools or from none of them. There is no
// rollback once an Allocate succeeds, so the capacity check runs first; this
// only holds because the Set is confined to one goroutine.
func (s *Set) Reserve(entities, transforms, renderCommands, inputEvents int) (Reservation, bool) {
	if !s.HasSufficientCapacity(entities, transforms, renderCommands, inputEvents) {
		// Record the rejection against every pool that was short.
		counts := [kindCount]int{entities, transforms, renderCommands, inputEvents}
		for k, n := range counts {
			if n > 0 && !s.pools[k].Fits(n) {
				s.pools[k].failures++
				s.pools[k].total++
			}
		}
		return Reservation{}, false
	}
	r := Reservation{
		Entities:       entities,
		Transforms:     transforms,
		RenderCommands: renderCommands,
		InputEvents:    inputEvents,
	}
	r.Entity, _ = s.pools[KindEntity].Allocate(entities)
	r.Transform, _ = s.pools[KindTransform].Allocate(transforms)
	r.RenderCommand, _ = s.pools[KindRenderCommand].Allocate(renderCommands)
	r.InputEvent, _ = s.pools[KindInputEvent].Allocate(inputEvents)
	return r, true
}

// Reset resets every pool. Called exactly once per frame boundary.
func (s *Set) Reset() {
	for i := range s.pools {
		s.pools[i].Reset()
	}
}

// Exhaustions returns the number of rejected allocations across all pools
// since the last Reset.
func (s *Set) Exhaustions() int {
	n := 0
	for i := range s.pools {
		n += s.pools[i].failures
	}
	return n
}

// Usage fills dst with one entry per pool, in Kinds order.
func (s *Set) Usage(dst *[kindCount]Usage) {
	for i := range s.pools {
		p := &s.pools[i]
		dst[i] = Usage{
			Kind:     Kind(i),
			Used:     p.used,
			Capacity: p.capacity,
			Failures: p.failures,
		}
	}
}

// UsageArray is the fixed-size buffer type accepted by Usage.
type UsageArray = [kindCount]Usage
