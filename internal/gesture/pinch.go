package gesture

import (
	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/tracking"
)

// Pinch defaults, in sensor millimeters along the X axis.
const (
	// DefaultPinchThreshold is the thumb to index X separation at or below which a pinch engages.
	DefaultPinchThreshold = 20.5
	// DefaultReleaseHysteresis is the extra separation required beyond the threshold to release.
	DefaultReleaseHysteresis = 5.5
)

// previousFrame is the history offset used for drift correction.
const previousFrame = 1

// PinchName is the registration name of the pinch detector.
const PinchName = "pinch"

// PinchConfig holds the pinch thresholds.
type PinchConfig struct {
	EngageThreshold   float64
	ReleaseHysteresis float64
}

// DefaultPinchConfig returns the standard plunger thresholds.
func DefaultPinchConfig() PinchConfig {
	return PinchConfig{
		EngageThreshold:   DefaultPinchThreshold,
		ReleaseHysteresis: DefaultReleaseHysteresis,
	}
}

// PinchState is a snapshot of the pinch detector's retained state.
type PinchState struct {
	Pinched bool    `json:"pinched"`
	StartZ  float64 `json:"start_z"`
	EndZ    float64 `json:"end_z"`
}

// PinchDetector tracks a thumb and index pinch used to pull back a plunger.
// The pinch depth is the index fingertip's Z travel between engage and release.
type PinchDetector struct {
	config PinchConfig
	state  PinchState
	log    logrus.FieldLogger
}

// NewPinchDetector creates a PinchDetector. A nil logger uses the logrus standard logger.
func NewPinchDetector(config PinchConfig, logger logrus.FieldLogger) *PinchDetector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PinchDetector{
		config: config,
		log:    logger.WithField("detector", PinchName),
	}
}

// Name returns the registration name.
func (d *PinchDetector) Name() string {
	return PinchName
}

// State returns a copy of the current pinch state.
func (d *PinchDetector) State() PinchState {
	return d.state
}

// Inspect returns the current PinchState.
func (d *PinchDetector) Inspect() any {
	return d.state
}

// Process updates the pinch state from one frame.
//
// Frame handling:
//  1. No hand, several hands, a hand without fingers or three or more fingers
//     interrupt the gesture and release a held pinch.
//  2. A single finger while pinched is two fingers merging; it is ignored.
//  3. Two fingers are thumb (leftmost) and index (frontmost) and drive the
//     engage/release thresholds with a hysteresis band in between.
func (d *PinchDetector) Process(frame tracking.Frame, history tracking.Source) []Event {
	hands := frame.VisibleHands()
	if len(hands) != 1 {
		return d.interrupt(frame.ID)
	}

	fingers := hands[0].Fingers.Valid()
	switch len(fingers) {
	case 0:
		return d.interrupt(frame.ID)
	case 1:
		return nil
	case 2:
		return d.track(frame.ID, fingers, history)
	default:
		return d.interrupt(frame.ID)
	}
}

func (d *PinchDetector) track(frameID int64, fingers tracking.FingerList, history tracking.Source) []Event {
	thumb, _ := fingers.Leftmost()
	index, _ := fingers.Frontmost()

	distance := index.TipPosition.X - thumb.TipPosition.X
	currentZ := index.TipPosition.Z

	if distance <= d.config.EngageThreshold {
		if !d.state.Pinched {
			d.state = PinchState{Pinched: true, StartZ: currentZ, EndZ: currentZ}
			d.log.Info("FINGERS PINCHED")
			return []Event{{Kind: KindPinchStarted, FrameID: frameID}}
		}
		// Keep the end depth current in case the hand is lost before an explicit release.
		d.refine(index, history)
		return nil
	}

	if d.state.Pinched && distance > d.config.EngageThreshold+d.config.ReleaseHysteresis {
		d.log.Info("FINGERS PINCH RELEASED")
		d.state.EndZ = currentZ
		return []Event{d.release(frameID)}
	}

	return nil
}

// refine corrects the end depth using the same finger in the previous frame.
// A missing previous frame or finger leaves EndZ untouched.
func (d *PinchDetector) refine(index tracking.Finger, history tracking.Source) {
	if history == nil {
		return
	}
	prev, ok := history.FrameAt(previousFrame)
	if !ok {
		return
	}
	last, ok := prev.Finger(index.ID)
	if !ok {
		return
	}

	currentZ := index.TipPosition.Z
	switch {
	case currentZ-last.TipPosition.Z > 0:
		// Pulling back toward the user.
		d.state.EndZ = currentZ
	case currentZ > d.state.StartZ:
		// Easing forward but still behind the start.
		d.state.EndZ = currentZ
	default:
		d.state.EndZ = d.state.StartZ
	}
}

func (d *PinchDetector) interrupt(frameID int64) []Event {
	if !d.state.Pinched {
		return nil
	}
	d.log.Info("No longer pinching")
	return []Event{d.release(frameID)}
}

// release ends the pinch. EndZ never reports less than StartZ.
func (d *PinchDetector) release(frameID int64) Event {
	if d.state.EndZ < d.state.StartZ {
		d.log.WithFields(logrus.Fields{
			"start_z": d.state.StartZ,
			"end_z":   d.state.EndZ,
		}).Debug("pinch ended in front of its start, using the start position")
		d.state.EndZ = d.state.StartZ
	}
	d.state.Pinched = false

	travel := d.state.EndZ - d.state.StartZ
	d.log.Infof("Distance pinched = %.2f", travel)

	return Event{Kind: KindPinchReleased, DistanceTraveled: travel, FrameID: frameID}
}
