// Package tray provides the system tray menu for the gesture controller.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/gesture"
)

// Controls is the part of the application the tray drives.
type Controls interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	SetDetectorEnabled(name string, on bool) error
	DetectorEnabled(name string) bool
}

// Tray represents the system tray application. It is also a gesture.Sink
// that shows the most recent event.
type Tray struct {
	controls  Controls
	detectors []string
	log       logrus.FieldLogger
	onQuit    func()
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuDetectors map[string]*systray.MenuItem
	menuLastEvent *systray.MenuItem
	lastEvent     string
}

// New creates a Tray with one checkbox per named detector.
// A nil logger uses the logrus standard logger.
func New(controls Controls, logger logrus.FieldLogger, detectors ...string) *Tray {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Tray{
		controls:      controls,
		detectors:     detectors,
		log:           logger.WithField("component", "tray"),
		menuDetectors: make(map[string]*systray.MenuItem),
	}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Leapball")
	systray.SetTooltip("Leapball pinball gestures")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.controls.IsEnabled()), "Toggle gesture tracking")
	systray.AddSeparator()

	for _, name := range t.detectors {
		item := systray.AddMenuItemCheckbox(name, "Attach the "+name+" detector", t.controls.DetectorEnabled(name))
		t.menuDetectors[name] = item
		go t.watchDetector(name, item)
	}
	systray.AddSeparator()

	t.menuLastEvent = systray.AddMenuItem(lastTitle(t.lastEvent), "Last gesture event")
	t.menuLastEvent.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuQuit := systray.AddMenuItem("Quit", "Quit Leapball")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) watchDetector(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.toggleDetector(name)
	}
}

func (t *Tray) handleToggle() {
	enabled := !t.controls.IsEnabled()
	t.controls.SetEnabled(enabled)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// toggleDetector flips the attachment of one detector and syncs its checkbox.
func (t *Tray) toggleDetector(name string) {
	on := !t.controls.DetectorEnabled(name)
	if err := t.controls.SetDetectorEnabled(name, on); err != nil {
		t.log.WithError(err).WithField("detector", name).Warn("toggle detector")
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if item, ok := t.menuDetectors[name]; ok {
		if on {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Notify records e as the last event and updates the menu.
func (t *Tray) Notify(e gesture.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastEvent = e.String()
	if t.menuLastEvent != nil {
		t.menuLastEvent.SetTitle(lastTitle(t.lastEvent))
	}
}

// LastEvent returns the text of the most recent event, or "" when none has arrived.
func (t *Tray) LastEvent() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastEvent
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(event string) string {
	if event == "" {
		return "Last: none"
	}
	return "Last: " + event
}
