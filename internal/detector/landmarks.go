// Package detector finds hand landmarks in camera images and converts them into tracking frames.
package detector

// Hand landmark indices following the MediaPipe hand model.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Finger indices within a hand, thumb first.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// fingerJoints lists the middle, distal and tip landmarks of each finger.
// The thumb has no distinct DIP; its IP joint stands in for both.
var fingerJoints = [NumFingers]struct{ middle, distal, tip int }{
	Thumb:  {ThumbIP, ThumbIP, ThumbTip},
	Index:  {IndexPIP, IndexDIP, IndexTip},
	Middle: {MiddlePIP, MiddleDIP, MiddleTip},
	Ring:   {RingPIP, RingDIP, RingTip},
	Pinky:  {PinkyPIP, PinkyDIP, PinkyTip},
}

// Point3D is a landmark in normalized image coordinates: x and y in [0, 1]
// from the top-left corner, z is depth relative to the wrist (negative is
// closer to the camera).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}
