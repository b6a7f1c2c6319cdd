// Package gesture turns streams of tracking frames into debounced pinch and flipper events.
package gesture

import (
	"fmt"

	"github.com/ayusman/leapball/internal/tracking"
)

// Kind identifies the type of a gesture event.
type Kind string

const (
	// KindPinchStarted is emitted when thumb and index close below the engage threshold.
	KindPinchStarted Kind = "PinchStarted"
	// KindPinchReleased is emitted when a pinch ends, either by opening or by losing the hand.
	KindPinchReleased Kind = "PinchReleased"
	// KindFlipperUp is emitted when the flipper finger points up past the max height.
	KindFlipperUp Kind = "FlipperUp"
	// KindFlipperFalling is emitted when the flipper finger leaves the up position.
	KindFlipperFalling Kind = "FlipperFalling"
	// KindFlipperDown is emitted when the flipper finger points down past the min height.
	KindFlipperDown Kind = "FlipperDown"
)

// Kinds lists every event kind in a stable order.
var Kinds = []Kind{
	KindPinchStarted,
	KindPinchReleased,
	KindFlipperUp,
	KindFlipperFalling,
	KindFlipperDown,
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// Event is a single gesture transition.
type Event struct {
	Kind Kind `json:"kind"`

	// DistanceTraveled is the net Z travel of the pinch. Only set for KindPinchReleased.
	DistanceTraveled float64 `json:"distance,omitempty"`

	// FrameID is the sequence id of the frame that produced the event.
	FrameID int64 `json:"frame"`
}

func (e Event) String() string {
	if e.Kind == KindPinchReleased {
		return fmt.Sprintf("%s distance=%.2f", e.Kind, e.DistanceTraveled)
	}
	return string(e.Kind)
}

// Detector is a stateful per-frame gesture recognizer.
// Process is called once per frame in frame order and never concurrently
// for the same instance. history may be nil when no lookback is available.
type Detector interface {
	Name() string
	Process(frame tracking.Frame, history tracking.Source) []Event
}

// Inspector is implemented by detectors that expose a copy of their retained state.
type Inspector interface {
	Inspect() any
}
