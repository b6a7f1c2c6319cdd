package detector

import "gocv.io/x/gocv"

// Detector finds hand landmarks in a camera image.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice when none are visible.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config controls hand landmark detection.
type Config struct {
	// MaxHands caps the number of hands reported per image.
	MaxHands int

	// MinScore drops hands whose handedness score is below it.
	MinScore float64

	// ScriptPath points at the landmark service script. Empty searches the
	// usual install locations.
	ScriptPath string

	// Python is the interpreter used to run the script. Empty prefers a
	// virtualenv next to the binary and falls back to python3.
	Python string
}

// DefaultConfig returns the detection settings used by the application.
func DefaultConfig() Config {
	return Config{
		MaxHands: 2,
		MinScore: 0.5,
	}
}

// filter applies MaxHands and MinScore to a detection result.
func (c Config) filter(hands []HandLandmarks) []HandLandmarks {
	out := hands[:0]
	for _, h := range hands {
		if h.Score < c.MinScore {
			continue
		}
		if c.MaxHands > 0 && len(out) >= c.MaxHands {
			break
		}
		out = append(out, h)
	}
	return out
}
