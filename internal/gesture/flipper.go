package gesture

import (
	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/tracking"
)

// Flipper defaults on the Z component of the finger's pointing direction.
const (
	// DefaultFlipperMaxHeight arms UP at or below this value.
	DefaultFlipperMaxHeight = -0.40
	// DefaultFlipperMinHeight arms DOWN at or above this value.
	DefaultFlipperMinHeight = 0.50
)

// FlipperName is the registration name of the flipper detector.
const FlipperName = "flipper"

// Position is the flipper's position.
type Position int

const (
	// PositionDown is the resting position and the initial state.
	PositionDown Position = iota
	// PositionUp is the raised position.
	PositionUp
	// PositionFalling is the waypoint between UP and DOWN.
	PositionFalling
)

func (p Position) String() string {
	switch p {
	case PositionUp:
		return "UP"
	case PositionFalling:
		return "FALLING"
	default:
		return "DOWN"
	}
}

// MarshalText renders the position by name.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// FlipperConfig holds the flipper thresholds.
type FlipperConfig struct {
	MaxHeight float64
	MinHeight float64
}

// DefaultFlipperConfig returns the standard right flipper thresholds.
func DefaultFlipperConfig() FlipperConfig {
	return FlipperConfig{
		MaxHeight: DefaultFlipperMaxHeight,
		MinHeight: DefaultFlipperMinHeight,
	}
}

// FlipperState is a snapshot of the flipper detector's retained state.
type FlipperState struct {
	Position Position `json:"position"`
}

// FlipperDetector classifies the leftmost finger of the right hand as a pinball flipper.
type FlipperDetector struct {
	config   FlipperConfig
	position Position
	log      logrus.FieldLogger
}

// NewFlipperDetector creates a FlipperDetector in the DOWN position.
// A nil logger uses the logrus standard logger.
func NewFlipperDetector(config FlipperConfig, logger logrus.FieldLogger) *FlipperDetector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FlipperDetector{
		config:   config,
		position: PositionDown,
		log:      logger.WithField("detector", FlipperName),
	}
}

// Name returns the registration name.
func (d *FlipperDetector) Name() string {
	return FlipperName
}

// Position returns the current flipper position.
func (d *FlipperDetector) Position() Position {
	return d.position
}

// Inspect returns the current FlipperState.
func (d *FlipperDetector) Inspect() any {
	return FlipperState{Position: d.position}
}

// Process evaluates one frame. The flipper does not use frame history.
// Frames without exactly one hand showing a finger leave the position unchanged.
func (d *FlipperDetector) Process(frame tracking.Frame, _ tracking.Source) []Event {
	hands := frame.VisibleHands()
	if len(hands) != 1 || len(hands[0].Fingers) == 0 {
		return nil
	}

	// Assume the arms are not crossed.
	hand, _ := hands.Rightmost()
	finger, ok := hand.Fingers.Leftmost()
	if !ok || !finger.IsValid() {
		return nil
	}

	next, changed := d.next(finger.Direction.Z)
	if !changed {
		return nil
	}

	d.position = next
	d.log.Info(next.String())

	return []Event{{Kind: next.eventKind(), FrameID: frame.ID}}
}

// next applies the guarded transitions in fixed order: UP, FALLING, DOWN.
// The first matching guard wins.
func (d *FlipperDetector) next(zDir float64) (Position, bool) {
	switch {
	case d.position != PositionUp && zDir <= d.config.MaxHeight:
		return PositionUp, true
	case d.position == PositionUp && zDir > d.config.MaxHeight:
		return PositionFalling, true
	case d.position != PositionDown && zDir >= d.config.MinHeight:
		return PositionDown, true
	}
	return d.position, false
}

func (p Position) eventKind() Kind {
	switch p {
	case PositionUp:
		return KindFlipperUp
	case PositionFalling:
		return KindFlipperFalling
	default:
		return KindFlipperDown
	}
}
