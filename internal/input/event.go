package input

// EventKind tags the variant carried by an Event.
type EventKind uint8

const (
	EventKeyPressed EventKind = iota + 1
	EventKeyReleased
	EventMouseMoved
	EventMousePressed
	EventMouseReleased
)

func (k EventKind) String() string {
	switch k {
	case EventKeyPressed:
		return "key_pressed"
	case EventKeyReleased:
		return "key_released"
	case EventMouseMoved:
		return "mouse_moved"
	case EventMousePressed:
		return "mouse_pressed"
	case EventMouseReleased:
		return "mouse_released"
	}
	return "none"
}

// Event is one captured input occurrence. Only the fields relevant to Kind
// are set: Key for key events, Button for button events, Delta for moves.
// Timestamp is monotonic nanoseconds since the producing Manager's epoch.
type Event struct {
	Kind      EventKind
	Key       Key
	Button    MouseButton
	Delta     Vec2
	Timestamp uint64
}

func KeyPressed(key Key, ts uint64) Event {
	return Event{Kind: EventKeyPressed, Key: key, Timestamp: ts}
}

func KeyReleased(key Key, ts uint64) Event {
	return Event{Kind: EventKeyReleased, Key: key, Timestamp: ts}
}

func MouseMoved(delta Vec2, ts uint64) Event {
	return Event{Kind: EventMouseMoved, Delta: delta, Timestamp: ts}
}

func MousePressed(button MouseButton, ts uint64) Event {
	return Event{Kind: EventMousePressed, Button: button, Timestamp: ts}
}

func MouseReleased(button MouseButton, ts uint64) Event {
	return Event{Kind: EventMouseReleased, Button: button, Timestamp: ts}
}
