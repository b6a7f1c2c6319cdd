package app

import (
	"sync"

	"github.com/ayusman/leapball/internal/gesture"
	"github.com/ayusman/leapball/internal/tracking"
)

// DetectorState reports one detector's attachment and retained state.
type DetectorState struct {
	Name     string `json:"name"`
	Attached bool   `json:"attached"`
	State    any    `json:"state,omitempty"`
}

// Controller owns the frame history and drives attached detectors once per frame.
// Frames must be pushed by a single driver; attach and detach may happen from
// any goroutine.
type Controller struct {
	history   *tracking.History
	listeners []gesture.Detector
	sink      gesture.Sink
	mu        sync.Mutex
}

// NewController creates a Controller retaining historySize frames and
// forwarding events to sink. A nil sink discards events.
func NewController(historySize int, sink gesture.Sink) *Controller {
	return &Controller{
		history: tracking.NewHistory(historySize),
		sink:    sink,
	}
}

// AddListener attaches d. Attaching an attached detector is a no-op.
func (c *Controller) AddListener(d gesture.Detector) {
	if d == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(d) >= 0 {
		return
	}
	c.listeners = append(c.listeners, d)
}

// RemoveListener detaches d. Detaching an unattached detector is a no-op.
// The detector keeps whatever state it last reached.
func (c *Controller) RemoveListener(d gesture.Detector) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(d)
	if i < 0 {
		return
	}
	c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
}

// Attached reports whether d is currently attached.
func (c *Controller) Attached(d gesture.Detector) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(d) >= 0
}

// Listeners returns the attached detectors in attachment order.
func (c *Controller) Listeners() []gesture.Detector {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]gesture.Detector, len(c.listeners))
	copy(out, c.listeners)
	return out
}

func (c *Controller) indexOf(d gesture.Detector) int {
	for i, l := range c.listeners {
		if l == d {
			return i
		}
	}
	return -1
}

// Push delivers a new frame: it becomes offset 0 of the history, every attached
// detector processes it in attachment order, and the resulting events are
// forwarded to the sink in order. The events are also returned.
func (c *Controller) Push(f tracking.Frame) []gesture.Event {
	c.mu.Lock()
	c.history.Push(f)

	var events []gesture.Event
	for _, d := range c.listeners {
		events = append(events, d.Process(f, c.history)...)
	}
	sink := c.sink
	c.mu.Unlock()

	// Sinks run outside the lock so they may attach or detach detectors.
	if sink != nil {
		for _, e := range events {
			sink.Notify(e)
		}
	}

	return events
}

// History returns the read-only frame source.
func (c *Controller) History() tracking.Source {
	return c.history
}

// SetSink replaces the event sink.
func (c *Controller) SetSink(s gesture.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = s
}

// Snapshot reports the attachment and state of each given detector without
// racing the frame driver.
func (c *Controller) Snapshot(detectors ...gesture.Detector) []DetectorState {
	c.mu.Lock()
	defer c.mu.Unlock()

	states := make([]DetectorState, 0, len(detectors))
	for _, d := range detectors {
		s := DetectorState{
			Name:     d.Name(),
			Attached: c.indexOf(d) >= 0,
		}
		if in, ok := d.(gesture.Inspector); ok {
			s.State = in.Inspect()
		}
		states = append(states, s)
	}
	return states
}
