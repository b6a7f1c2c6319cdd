package tracking

// Finger is a single tracked finger. IDs are stable across frames while the
// finger stays tracked.
type Finger struct {
	ID          int     `json:"id"`
	TipPosition Vector3 `json:"tip_position"`
	Direction   Vector3 `json:"direction"`
	Valid       bool    `json:"valid"`
}

// IsValid reports whether the finger is flagged valid and its geometry is finite.
func (f Finger) IsValid() bool {
	return f.Valid && f.TipPosition.IsFinite() && f.Direction.IsFinite()
}

// FingerList is an ordered set of fingers belonging to one hand.
type FingerList []Finger

// Valid returns the fingers that are valid. Invalid fingers are treated as absent.
func (l FingerList) Valid() FingerList {
	out := make(FingerList, 0, len(l))
	for _, f := range l {
		if f.IsValid() {
			out = append(out, f)
		}
	}
	return out
}

// Leftmost returns the finger with the minimum tip X.
func (l FingerList) Leftmost() (Finger, bool) {
	return l.pick(func(a, b Finger) bool { return a.TipPosition.X < b.TipPosition.X })
}

// Rightmost returns the finger with the maximum tip X.
func (l FingerList) Rightmost() (Finger, bool) {
	return l.pick(func(a, b Finger) bool { return a.TipPosition.X > b.TipPosition.X })
}

// Frontmost returns the finger nearest the screen, the one with the minimum tip Z.
func (l FingerList) Frontmost() (Finger, bool) {
	return l.pick(func(a, b Finger) bool { return a.TipPosition.Z < b.TipPosition.Z })
}

// pick returns the first finger for which better holds against every other.
// Ties keep the earlier finger.
func (l FingerList) pick(better func(a, b Finger) bool) (Finger, bool) {
	if len(l) == 0 {
		return Finger{}, false
	}
	best := l[0]
	for _, f := range l[1:] {
		if better(f, best) {
			best = f
		}
	}
	return best, true
}

// Hand is one tracked hand with its currently visible fingers.
type Hand struct {
	ID           int        `json:"id"`
	PalmPosition Vector3    `json:"palm_position"`
	Fingers      FingerList `json:"fingers"`
	Valid        bool       `json:"valid"`
}

// HandList is the set of hands in one frame.
type HandList []Hand

// Valid returns the hands that are valid.
func (l HandList) Valid() HandList {
	out := make(HandList, 0, len(l))
	for _, h := range l {
		if h.Valid && h.PalmPosition.IsFinite() {
			out = append(out, h)
		}
	}
	return out
}

// Rightmost returns the hand whose palm has the maximum X.
func (l HandList) Rightmost() (Hand, bool) {
	if len(l) == 0 {
		return Hand{}, false
	}
	best := l[0]
	for _, h := range l[1:] {
		if h.PalmPosition.X > best.PalmPosition.X {
			best = h
		}
	}
	return best, true
}

// Frame is an immutable snapshot of every tracked hand.
type Frame struct {
	ID    int64    `json:"id"`
	Hands HandList `json:"hands"`
	Valid bool     `json:"valid"`
}

// VisibleHands returns the valid hands of a valid frame. An invalid frame has none.
func (f Frame) VisibleHands() HandList {
	if !f.Valid {
		return nil
	}
	return f.Hands.Valid()
}

// Finger looks up a valid finger by ID across all valid hands of the frame.
func (f Frame) Finger(id int) (Finger, bool) {
	for _, h := range f.VisibleHands() {
		for _, finger := range h.Fingers {
			if finger.ID == id && finger.IsValid() {
				return finger, true
			}
		}
	}
	return Finger{}, false
}
