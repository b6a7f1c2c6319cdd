// Package tracking provides the hand tracking frame model consumed by the gesture detectors.
package tracking

import "math"

// Vector3 is a position (millimeters) or a direction (unit vector) in sensor space.
// X grows to the right, Y grows upward and Z grows toward the user.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v multiplied by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Len returns the Euclidean length of v.
func (v Vector3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the Euclidean distance between v and o.
func (v Vector3) DistanceTo(o Vector3) float64 {
	return v.Sub(o).Len()
}

// Normalize returns the unit vector pointing along v.
// The zero vector is returned unchanged.
func (v Vector3) Normalize() Vector3 {
	l := v.Len()
	if l < 1e-12 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// IsFinite reports whether every component is a finite number.
func (v Vector3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
