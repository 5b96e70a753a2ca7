package input

import (
	"sync"
	"sync/atomic"
)

// Key is a keyboard key code. Only codes below KeyCount are tracked.
type Key uint16

// KeyCount is the number of tracked key codes.
const KeyCount = 256

// Codes for non-printable keys, placed in the C1 control range so they never
// collide with a typed rune.
const (
	KeyArrowUp Key = 0x80 + iota
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
)

// MouseButton is a bit index into the mouse button field.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	MouseBack
	MouseForward
)

// MaxMouseButtons is the width of the button bitfield.
const MaxMouseButtons = 64

// Vec2 is a 2D position or displacement in window coordinates.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Keyboard holds one atomic flag per key code. Each key has at most one
// writer at a time; readers never lock.
type Keyboard struct {
	keys [KeyCount]atomic.Bool
}

// SetKeyState stores the pressed flag for key. Out-of-range keys are ignored.
func (k *Keyboard) SetKeyState(key Key, pressed bool) {
	if int(key) >= KeyCount {
		return
	}
	k.keys[key].Store(pressed)
}

// swap stores pressed and reports whether the flag changed.
func (k *Keyboard) swap(key Key, pressed bool) bool {
	if int(key) >= KeyCount {
		return false
	}
	return k.keys[key].Swap(pressed) != pressed
}

// IsKeyPressed reports the last stored flag for key. Out-of-range keys are
// never pressed.
func (k *Keyboard) IsKeyPressed(key Key) bool {
	if int(key) >= KeyCount {
		return false
	}
	return k.keys[key].Load()
}

// PressedCount returns how many keys are currently down. Not a consistent
// snapshot while writers are active.
func (k *Keyboard) PressedCount() int {
	n := 0
	for i := range k.keys {
		if k.keys[i].Load() {
			n++
		}
	}
	return n
}

// Mouse tracks pointer position, the delta of the latest move, and the
// button bitfield.
//
// Position and delta are written together under mu: the delta depends on the
// previous position, and a reader that takes both must see a matching pair.
// Buttons are a single atomic word.
type Mouse struct {
	mu       sync.RWMutex
	position Vec2
	delta    Vec2
	buttons  atomic.Uint64
}

// UpdatePosition moves the pointer to pos and returns the new delta. The
// delta is replaced, not accumulated.
func (m *Mouse) UpdatePosition(pos Vec2) Vec2 {
	m.mu.Lock()
	d := pos.Sub(m.position)
	m.delta = d
	m.position = pos
	m.mu.Unlock()
	return d
}

func (m *Mouse) Position() Vec2 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

func (m *Mouse) Delta() Vec2 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.delta
}

// Motion returns position and delta from the same update.
func (m *Mouse) Motion() (pos, delta Vec2) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position, m.delta
}

// SetButtonState sets or clears the bit for button. Concurrent writers to
// different buttons do not lose each other's updates.
func (m *Mouse) SetButtonState(button MouseButton, pressed bool) {
	m.setButton(button, pressed)
}

// setButton reports whether the bit changed.
func (m *Mouse) setButton(button MouseButton, pressed bool) bool {
	if button >= MaxMouseButtons {
		return false
	}
	bit := uint64(1) << button
	for {
		cur := m.buttons.Load()
		next := cur &^ bit
		if pressed {
			next = cur | bit
		}
		if next == cur {
			return false
		}
		if m.buttons.CompareAndSwap(cur, next) {
			return true
		}
	}
}

func (m *Mouse) IsButtonPressed(button MouseButton) bool {
	if button >= MaxMouseButtons {
		return false
	}
	return m.buttons.Load()&(uint64(1)<<button) != 0
}

// Buttons returns the raw bitfield.
func (m *Mouse) Buttons() uint64 { return m.buttons.Load() }
