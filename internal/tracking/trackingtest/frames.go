// Package trackingtest provides frame builders shared by tests.
package trackingtest

import "github.com/ayusman/leapball/internal/tracking"

// Finger IDs used by the pinch builders.
const (
	ThumbID = 1
	IndexID = 2
)

// Finger returns a valid finger with the given tip position pointing forward.
func Finger(id int, x, y, z float64) tracking.Finger {
	return tracking.Finger{
		ID:          id,
		TipPosition: tracking.Vector3{X: x, Y: y, Z: z},
		Direction:   tracking.Vector3{Z: -1},
		Valid:       true,
	}
}

// HandFrame returns a valid frame with a single valid hand holding fingers.
func HandFrame(id int64, fingers ...tracking.Finger) tracking.Frame {
	return tracking.Frame{
		ID:    id,
		Valid: true,
		Hands: tracking.HandList{{
			ID:           1,
			PalmPosition: tracking.Vector3{X: 0, Y: 180, Z: 0},
			Fingers:      tracking.FingerList(fingers),
			Valid:        true,
		}},
	}
}

// EmptyFrame returns a valid frame with no hands in view.
func EmptyFrame(id int64) tracking.Frame {
	return tracking.Frame{ID: id, Valid: true}
}

// TwoHandFrame returns a valid frame with two hands, each showing one finger.
func TwoHandFrame(id int64) tracking.Frame {
	return tracking.Frame{
		ID:    id,
		Valid: true,
		Hands: tracking.HandList{
			{ID: 1, PalmPosition: tracking.Vector3{X: -100}, Valid: true, Fingers: tracking.FingerList{Finger(10, -100, 200, 0)}},
			{ID: 2, PalmPosition: tracking.Vector3{X: 100}, Valid: true, Fingers: tracking.FingerList{Finger(20, 100, 200, 0)}},
		},
	}
}

// thumbDepthOffset keeps the thumb behind the index so the index is frontmost.
const thumbDepthOffset = 15

// PinchFrame returns a two finger frame: the thumb at thumbX and the index
// finger at indexX with depth indexZ. The index is always the frontmost finger.
func PinchFrame(id int64, thumbX, indexX, indexZ float64) tracking.Frame {
	return HandFrame(id,
		Finger(ThumbID, thumbX, 200, indexZ+thumbDepthOffset),
		Finger(IndexID, indexX, 150, indexZ),
	)
}

// MergedFrame returns a frame where only the index finger is visible, as when
// two pinched fingers register as one.
func MergedFrame(id int64, indexZ float64) tracking.Frame {
	return HandFrame(id, Finger(IndexID, 5, 150, indexZ))
}

// ThreeFingerFrame returns a frame with three visible fingers.
func ThreeFingerFrame(id int64) tracking.Frame {
	return HandFrame(id,
		Finger(ThumbID, 0, 200, 0),
		Finger(IndexID, 10, 150, 0),
		Finger(3, 30, 160, 0),
	)
}

// FlipperFrame returns a single hand frame whose only finger points with the given direction Z.
func FlipperFrame(id int64, zDir float64) tracking.Frame {
	f := Finger(10, 0, 200, 0)
	f.Direction = tracking.Vector3{Y: 0, Z: zDir}
	return HandFrame(id, f)
}
