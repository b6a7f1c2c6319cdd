package detector

import (
	"image"

	"github.com/ayusman/leapball/internal/tracking"
)

// DefaultScaleMM is the width in millimeters that the full image maps onto.
const DefaultScaleMM = 300.0

// fingerIDStride separates finger IDs of different hand slots.
const fingerIDStride = 10

// toSensor maps a normalized landmark into sensor space: X to the right,
// Y upward and Z away from the camera, all scaled to millimeters.
func toSensor(p Point3D, scale float64) tracking.Vector3 {
	return tracking.Vector3{
		X: (p.X - 0.5) * scale,
		Y: (1 - p.Y) * scale,
		Z: p.Z * scale,
	}
}

// ToFrame converts detected hands into a tracking frame with sequence id seq.
// Only extended fingers are reported, the way a depth sensor only sees fingers
// that stick out of the fist. Finger IDs are handSlot*10 + finger index, so
// they stay stable while a hand keeps its position in the detector output.
func ToFrame(seq int64, hands []HandLandmarks, scale float64) tracking.Frame {
	if scale <= 0 {
		scale = DefaultScaleMM
	}

	frame := tracking.Frame{
		ID:    seq,
		Valid: true,
		Hands: make(tracking.HandList, 0, len(hands)),
	}

	for slot, h := range hands {
		frame.Hands = append(frame.Hands, toHand(slot, h, scale))
	}

	return frame
}

func toHand(slot int, h HandLandmarks, scale float64) tracking.Hand {
	var pts [NumLandmarks]tracking.Vector3
	for i, p := range h.Points {
		pts[i] = toSensor(p, scale)
	}

	palm := pts[Wrist]
	for _, mcp := range []int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP} {
		palm = palm.Add(pts[mcp])
	}
	palm = palm.Scale(1.0 / 5)

	hand := tracking.Hand{
		ID:           slot + 1,
		PalmPosition: palm,
		Valid:        h.Score > 0,
	}

	for f, j := range fingerJoints {
		if !extended(f, pts) {
			continue
		}
		hand.Fingers = append(hand.Fingers, tracking.Finger{
			ID:          slot*fingerIDStride + f,
			TipPosition: pts[j.tip],
			Direction:   pts[j.tip].Sub(pts[j.distal]).Normalize(),
			Valid:       true,
		})
	}

	return hand
}

// extended reports whether finger f sticks out: its tip is farther from the
// reference point than its middle joint. Fingers use the wrist; the thumb uses
// the pinky knuckle, since a folded thumb still lies far from the wrist.
func extended(f int, pts [NumLandmarks]tracking.Vector3) bool {
	j := fingerJoints[f]
	ref := pts[Wrist]
	if f == Thumb {
		ref = pts[PinkyMCP]
	}
	return pts[j.tip].DistanceTo(ref) > pts[j.middle].DistanceTo(ref)
}

// Fingertips returns the pixel positions of every fingertip for drawing
// overlays on a width x height image.
func Fingertips(hands []HandLandmarks, width, height int) []image.Point {
	tips := make([]image.Point, 0, len(hands)*NumFingers)
	for _, h := range hands {
		for _, j := range fingerJoints {
			p := h.Points[j.tip]
			tips = append(tips, image.Point{
				X: int(p.X * float64(width)),
				Y: int(p.Y * float64(height)),
			})
		}
	}
	return tips
}
