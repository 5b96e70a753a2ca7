package input

import (
	"fmt"
	"time"
)

// DefaultPollingRate is the capture frequency, in Hz, assumed when none is
// configured.
const DefaultPollingRate = 1000

// Manager is the boundary between input capture and simulation. Capture
// goroutines call the writer methods at any time; the simulation loop reads
// state and drains events at its own cadence. No method blocks except the
// short mouse position section.
type Manager struct {
	Keyboard Keyboard
	Mouse    Mouse

	queue       *Queue
	epoch       time.Time
	pollingRate int
}

func NewManager(queueSize, pollingRate int) (*Manager, error) {
	q, err := NewQueue(queueSize)
	if err != nil {
		return nil, fmt.Errorf("input queue: %w", err)
	}
	if pollingRate <= 0 {
		pollingRate = DefaultPollingRate
	}
	return &Manager{
		queue:       q,
		epoch:       time.Now(),
		pollingRate: pollingRate,
	}, nil
}

// Timestamp returns monotonic nanoseconds since the manager was created.
func (m *Manager) Timestamp() uint64 {
	return uint64(time.Since(m.epoch))
}

// PollInterval is the period matching the configured polling rate.
func (m *Manager) PollInterval() time.Duration {
	return time.Second / time.Duration(m.pollingRate)
}

func (m *Manager) PressKey(key Key)   { m.setKey(key, true) }
func (m *Manager) ReleaseKey(key Key) { m.setKey(key, false) }

// setKey records an event only on a state transition; key repeat from the
// capture source does not flood the queue.
func (m *Manager) setKey(key Key, pressed bool) {
	if !m.Keyboard.swap(key, pressed) {
		return
	}
	ts := m.Timestamp()
	if pressed {
		m.queue.Push(KeyPressed(key, ts))
	} else {
		m.queue.Push(KeyReleased(key, ts))
	}
}

// MoveTo updates the pointer and records a move event carrying the delta.
func (m *Manager) MoveTo(pos Vec2) {
	d := m.Mouse.UpdatePosition(pos)
	if d == (Vec2{}) {
		return
	}
	m.queue.Push(MouseMoved(d, m.Timestamp()))
}

func (m *Manager) PressButton(b MouseButton)   { m.setButton(b, true) }
func (m *Manager) ReleaseButton(b MouseButton) { m.setButton(b, false) }

func (m *Manager) setButton(b MouseButton, pressed bool) {
	if !m.Mouse.setButton(b, pressed) {
		return
	}
	ts := m.Timestamp()
	if pressed {
		m.queue.Push(MousePressed(b, ts))
	} else {
		m.queue.Push(MouseReleased(b, ts))
	}
}

// Push enqueues a caller-built event without touching the state tables.
func (m *Manager) Push(ev Event) bool { return m.queue.Push(ev) }

func (m *Manager) IsKeyPressed(key Key) bool          { return m.Keyboard.IsKeyPressed(key) }
func (m *Manager) MousePosition() Vec2                { return m.Mouse.Position() }
func (m *Manager) MouseDelta() Vec2                   { return m.Mouse.Delta() }
func (m *Manager) IsButtonPressed(b MouseButton) bool { return m.Mouse.IsButtonPressed(b) }
func (m *Manager) PopEvent() (Event, bool)            { return m.queue.Pop() }
func (m *Manager) DrainEvents(fn func(Event)) int     { return m.queue.Drain(fn) }
func (m *Manager) Pending() int                       { return m.queue.Len() }
func (m *Manager) Dropped() uint64                    { return m.queue.Dropped() }
