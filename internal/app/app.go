// Package app wires the camera, landmark detection and gesture detectors together.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/leapball/internal/capture"
	"github.com/ayusman/leapball/internal/detector"
	"github.com/ayusman/leapball/internal/gesture"
	"github.com/ayusman/leapball/internal/tracking"
)

// ErrUnknownDetector is returned when a gesture detector name is not registered.
var ErrUnknownDetector = errors.New("unknown detector")

// Config holds the collaborators of an App. Nil fields take defaults.
type Config struct {
	Camera      capture.Camera
	Hands       detector.Detector
	Gate        capture.GateConfig
	ScaleMM     float64
	HistorySize int
	Sink        gesture.Sink
	Logger      logrus.FieldLogger
}

// State is a point-in-time report of the application.
type State struct {
	Session   uuid.UUID       `json:"session"`
	Enabled   bool            `json:"enabled"`
	Running   bool            `json:"running"`
	Mode      string          `json:"mode"`
	Frames    int64           `json:"frames"`
	Detectors []DetectorState `json:"detectors"`
}

// App turns camera images into tracking frames and feeds them to the Controller.
type App struct {
	session    uuid.UUID
	log        logrus.FieldLogger
	camera     capture.Camera
	hands      detector.Detector
	gate       *capture.Gate
	controller *Controller
	preview    *capture.Preview
	scale      float64

	mu        sync.RWMutex
	detectors []gesture.Detector
	enabled   bool
	stopCh    chan struct{}
	done      chan struct{}

	// Owned by the frame driver.
	seq       int64
	lastHands []detector.HandLandmarks
}

// New creates an App. Detection starts disabled.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Camera == nil {
		cfg.Camera = capture.NewCamera(capture.Options{FPS: cfg.Gate.IdleFPS})
	}
	if cfg.Hands == nil {
		cfg.Hands = detector.NewMockDetector()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = tracking.DefaultHistorySize
	}

	session := uuid.New()
	return &App{
		session:    session,
		log:        logger.WithField("session", session.String()),
		camera:     cfg.Camera,
		hands:      cfg.Hands,
		gate:       capture.NewGate(cfg.Gate),
		controller: NewController(cfg.HistorySize, cfg.Sink),
		preview:    capture.NewPreview(),
		scale:      cfg.ScaleMM,
	}
}

// Session returns the id of this run, carried on every broadcast event.
func (a *App) Session() uuid.UUID {
	return a.session
}

// Controller returns the detector registry and frame driver.
func (a *App) Controller() *Controller {
	return a.controller
}

// Preview returns the annotated camera preview.
func (a *App) Preview() *capture.Preview {
	return a.preview
}

// Register adds a gesture detector by name and attaches it when enabled is true.
// Registering the same name twice replaces the earlier detector.
func (a *App) Register(d gesture.Detector, enabled bool) {
	a.mu.Lock()
	for i, existing := range a.detectors {
		if existing.Name() == d.Name() {
			a.controller.RemoveListener(existing)
			a.detectors = append(a.detectors[:i], a.detectors[i+1:]...)
			break
		}
	}
	a.detectors = append(a.detectors, d)
	a.mu.Unlock()

	if enabled {
		a.controller.AddListener(d)
	}
}

// Detectors returns the registered gesture detectors in registration order.
func (a *App) Detectors() []gesture.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]gesture.Detector(nil), a.detectors...)
}

func (a *App) lookup(name string) (gesture.Detector, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, d := range a.detectors {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDetector, name)
}

// SetDetectorEnabled attaches or detaches the named detector.
func (a *App) SetDetectorEnabled(name string, on bool) error {
	d, err := a.lookup(name)
	if err != nil {
		return err
	}
	if on {
		a.controller.AddListener(d)
	} else {
		a.controller.RemoveListener(d)
	}
	a.log.WithFields(logrus.Fields{"detector": name, "attached": on}).Info("detector toggled")
	return nil
}

// DetectorEnabled reports whether the named detector is attached.
func (a *App) DetectorEnabled(name string) bool {
	d, err := a.lookup(name)
	if err != nil {
		return false
	}
	return a.controller.Attached(d)
}

// SetEnabled turns frame processing on or off.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether frame processing is on.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// State reports the application state.
func (a *App) State() State {
	a.mu.RLock()
	s := State{
		Session: a.session,
		Enabled: a.enabled,
		Running: a.stopCh != nil,
	}
	a.mu.RUnlock()

	s.Mode = a.gate.Mode().String()
	s.Frames = a.controller.History().CurrentFrame().ID
	s.Detectors = a.controller.Snapshot(a.Detectors()...)
	return s
}

// ProcessFrame turns one camera image into exactly one tracking frame and
// pushes it through the controller. While the scene is still the last
// detected hands are delivered again; a detection failure yields an invalid
// frame. img is not retained.
func (a *App) ProcessFrame(img *gocv.Mat, now time.Time) []gesture.Event {
	mode, switched := a.gate.Observe(img, now)
	if switched {
		a.camera.SetFPS(a.gate.FPS())
		a.log.WithField("fps", a.gate.FPS()).Infof("switched to %s mode", mode)
	}

	if img == nil || img.Empty() {
		return a.pushGap()
	}

	if mode == capture.ModeActive {
		hands, err := a.hands.Detect(img)
		if err != nil {
			a.log.WithError(err).Warn("hand detection failed")
			return a.pushGap()
		}
		a.lastHands = hands
	}

	a.seq++
	frame := detector.ToFrame(a.seq, a.lastHands, a.scale)

	if err := a.preview.Update(img, detector.Fingertips(a.lastHands, img.Cols(), img.Rows())); err != nil {
		a.log.WithError(err).Debug("preview update")
	}

	return a.controller.Push(frame)
}

// pushGap delivers an invalid frame for a camera or detection failure.
// Hands seen before the gap are forgotten.
func (a *App) pushGap() []gesture.Event {
	a.seq++
	a.lastHands = nil
	return a.controller.Push(tracking.Frame{ID: a.seq})
}
