// Package capture feeds terminal keyboard and mouse events into an
// input.Manager. Terminals report key presses but not releases, so a key is
// released once it has not repeated for ReleaseAfter.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/mindland/governor/internal/input"
)

// ReleaseAfter is how long a key stays down without a repeat.
const ReleaseAfter = 150 * time.Millisecond

var buttons = [...]struct {
	mask   tcell.ButtonMask
	button input.MouseButton
}{
	{tcell.Button1, input.MouseLeft},
	{tcell.Button2, input.MouseRight},
	{tcell.Button3, input.MouseMiddle},
	{tcell.Button4, input.MouseBack},
	{tcell.Button5, input.MouseForward},
}

// Capture owns a tcell screen. All state below is touched only by the run
// goroutine, or by the caller of Handle and Sweep when not started.
type Capture struct {
	screen tcell.Screen
	mgr    *input.Manager
	log    *zap.Logger
	onQuit func()

	held    map[input.Key]time.Time
	buttons tcell.ButtonMask

	events   chan tcell.Event
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a capture. onQuit is called from the capture goroutine when
// Ctrl-C is pressed and may be nil.
func New(screen tcell.Screen, mgr *input.Manager, log *zap.Logger, onQuit func()) *Capture {
	if log == nil {
		log = zap.NewNop()
	}
	return &Capture{
		screen: screen,
		mgr:    mgr,
		log:    log,
		onQuit: onQuit,
		held:   make(map[input.Key]time.Time),
		events: make(chan tcell.Event, 256),
		done:   make(chan struct{}),
	}
}

// Start initializes the screen and begins forwarding events.
func (c *Capture) Start() error {
	if err := c.screen.Init(); err != nil {
		return fmt.Errorf("capture: init screen: %w", err)
	}
	c.screen.EnableMouse()
	c.screen.HideCursor()

	c.wg.Add(2)
	go c.pollLoop()
	go c.runLoop()
	c.log.Debug("terminal capture started", zap.Duration("poll", c.mgr.PollInterval()))
	return nil
}

// Stop restores the terminal and waits for both goroutines to exit.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.screen.Fini()
		c.wg.Wait()
	})
}

// pollLoop blocks in PollEvent, which returns nil once the screen is closed.
func (c *Capture) pollLoop() {
	defer c.wg.Done()
	for {
		ev := c.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Capture) runLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(max(c.mgr.PollInterval(), time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.events:
			if !c.Handle(ev, time.Now()) && c.onQuit != nil {
				c.onQuit()
			}
		case now := <-ticker.C:
			c.Sweep(now)
		case <-c.done:
			c.Sweep(time.Now().Add(ReleaseAfter))
			return
		}
	}
}

// Handle applies one terminal event at time now. It returns false when the
// event asks the program to quit.
func (c *Capture) Handle(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}
		key, ok := MapKey(ev)
		if !ok {
			return true
		}
		if _, down := c.held[key]; !down {
			c.mgr.PressKey(key)
		}
		c.held[key] = now
	case *tcell.EventMouse:
		x, y := ev.Position()
		c.mgr.MoveTo(input.Vec2{X: float64(x), Y: float64(y)})
		c.applyButtons(ev.Buttons())
	}
	return true
}

func (c *Capture) applyButtons(mask tcell.ButtonMask) {
	changed := mask ^ c.buttons
	for _, b := range buttons {
		if changed&b.mask == 0 {
			continue
		}
		if mask&b.mask != 0 {
			c.mgr.PressButton(b.button)
		} else {
			c.mgr.ReleaseButton(b.button)
		}
	}
	c.buttons = mask
}

// Sweep releases keys last seen more than ReleaseAfter before now and
// returns how many were released.
func (c *Capture) Sweep(now time.Time) int {
	n := 0
	for key, seen := range c.held {
		if now.Sub(seen) < ReleaseAfter {
			continue
		}
		delete(c.held, key)
		c.mgr.ReleaseKey(key)
		n++
	}
	return n
}

// Held returns how many keys are currently considered down.
func (c *Capture) Held() int { return len(c.held) }

// MapKey translates a tcell key event to an input key code. Runes outside
// the tracked range and the C1 control block are not mapped.
func MapKey(ev *tcell.EventKey) (input.Key, bool) {
	switch ev.Key() {
	case tcell.KeyRune:
		r := ev.Rune()
		if r < 0 || r >= input.KeyCount || (r >= 0x80 && r < 0xa0) {
			return 0, false
		}
		return input.Key(r), true
	case tcell.KeyUp:
		return input.KeyArrowUp, true
	case tcell.KeyDown:
		return input.KeyArrowDown, true
	case tcell.KeyLeft:
		return input.KeyArrowLeft, true
	case tcell.KeyRight:
		return input.KeyArrowRight, true
	case tcell.KeyHome:
		return input.KeyHome, true
	case tcell.KeyEnd:
		return input.KeyEnd, true
	case tcell.KeyPgUp:
		return input.KeyPageUp, true
	case tcell.KeyPgDn:
		return input.KeyPageDown, true
	}
	// ASCII control keys (Enter, Tab, Esc, Backspace, Ctrl-letters).
	if k := ev.Key(); k >= 0 && k < 0x80 {
		return input.Key(k), true
	}
	return 0, false
}
