package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns preset detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a MockDetector that reports no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error returned by Detect. nil clears it.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns a copy of the preset hands or the preset error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]HandLandmarks(nil), m.hands...), nil
}

// Close is a no-op.
func (m *MockDetector) Close() error {
	return nil
}

// curledFingers fills index through pinky with fingers folded into the palm.
func curledFingers(lm *HandLandmarks) {
	lm.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	lm.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	lm.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	lm.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	lm.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	lm.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	lm.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	lm.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	lm.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	lm.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	lm.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	lm.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	lm.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	lm.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	lm.Points[PinkyDIP] = Point3D{X: 0.38, Y: 0.74, Z: -0.04}
	lm.Points[PinkyTip] = Point3D{X: 0.40, Y: 0.76, Z: -0.02}
}

// FistLandmarks returns a closed right hand: no finger is extended.
func FistLandmarks() HandLandmarks {
	lm := HandLandmarks{Handedness: "Right", Score: 0.95}
	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}
	curledFingers(&lm)

	// Thumb folded across the fingers.
	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76, Z: 0.0}
	lm.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.72, Z: 0.0}
	lm.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.68, Z: 0.0}
	lm.Points[ThumbTip] = Point3D{X: 0.48, Y: 0.70, Z: 0.0}

	return lm
}

// OpenHandLandmarks returns a right hand with all five fingers extended.
func OpenHandLandmarks() HandLandmarks {
	lm := HandLandmarks{Handedness: "Right", Score: 0.95}
	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	lm.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	lm.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	lm.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	lm.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	lm.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	lm.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	lm.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	lm.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	lm.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	lm.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	lm.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	lm.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	lm.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	lm.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	lm.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	lm.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	lm.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	lm.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	lm.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return lm
}

// PinchLandmarks returns a right hand showing only thumb and index. At the
// default scale the index tip sits separationMM to the right of the thumb tip,
// at depth depthMM, and nearer the screen than the thumb.
func PinchLandmarks(separationMM, depthMM float64) HandLandmarks {
	lm := HandLandmarks{Handedness: "Right", Score: 0.95}
	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}
	curledFingers(&lm)

	gap := separationMM / DefaultScaleMM
	depth := depthMM / DefaultScaleMM

	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.76, Z: 0.0}
	lm.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.72, Z: 0.0}
	lm.Points[ThumbIP] = Point3D{X: 0.62, Y: 0.62, Z: 0.0}
	lm.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.52, Z: depth + 0.07}

	lm.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	lm.Points[IndexPIP] = Point3D{X: 0.56, Y: 0.58, Z: -0.03}
	lm.Points[IndexDIP] = Point3D{X: 0.58 + gap, Y: 0.50, Z: depth + 0.01}
	lm.Points[IndexTip] = Point3D{X: 0.60 + gap, Y: 0.45, Z: depth}

	return lm
}
