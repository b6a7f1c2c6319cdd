package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurSize is the Gaussian kernel used to suppress sensor noise.
	blurSize = 21
	// pixelDelta is the per-pixel intensity change counted as motion.
	pixelDelta = 25
)

// MotionDetector measures how much of the image changed since the previous call.
type MotionDetector struct {
	mu     sync.Mutex
	prev   gocv.Mat
	primed bool
}

// NewMotionDetector returns a detector with no baseline image.
func NewMotionDetector() *MotionDetector {
	return &MotionDetector{prev: gocv.NewMat()}
}

// Change returns the percentage of pixels that moved compared to the previous
// image. The first image only sets the baseline and returns 0.
func (m *MotionDetector) Change(frame *gocv.Mat) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(diff)
	total := diff.Rows() * diff.Cols()

	blurred.CopyTo(&m.prev)
	return float64(changed) / float64(total) * 100
}

// Reset drops the baseline so the next image starts fresh.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline image.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}

// Mode is the capture rate regime.
type Mode int

const (
	ModeIdle Mode = iota
	ModeActive
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "idle"
}

// GateConfig controls when the gate switches between idle and active.
type GateConfig struct {
	// Threshold is the changed-pixel percentage that counts as motion.
	Threshold   float64
	IdleTimeout time.Duration
	IdleFPS     int
	ActiveFPS   int
}

// DefaultGateConfig returns the capture rates used by the application.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Threshold:   1.0,
		IdleTimeout: 2 * time.Second,
		IdleFPS:     5,
		ActiveFPS:   15,
	}
}

// Gate switches to active on motion and back to idle after IdleTimeout of stillness.
// It is safe for concurrent use.
type Gate struct {
	mu         sync.Mutex
	cfg        GateConfig
	motion     *MotionDetector
	mode       Mode
	lastMotion time.Time
}

// NewGate returns a gate in idle mode.
func NewGate(cfg GateConfig) *Gate {
	def := DefaultGateConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	return &Gate{cfg: cfg, motion: NewMotionDetector()}
}

// Observe measures frame and returns the resulting mode and whether it changed.
func (g *Gate) Observe(frame *gocv.Mat, now time.Time) (Mode, bool) {
	return g.observeChange(g.motion.Change(frame), now)
}

func (g *Gate) observeChange(change float64, now time.Time) (Mode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.mode

	if change > g.cfg.Threshold {
		g.lastMotion = now
		g.mode = ModeActive
	} else if g.mode == ModeActive && now.Sub(g.lastMotion) > g.cfg.IdleTimeout {
		g.mode = ModeIdle
	}

	return g.mode, g.mode != prev
}

// Mode returns the current mode.
func (g *Gate) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// FPS returns the capture rate for the current mode.
func (g *Gate) FPS() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mode == ModeActive {
		return g.cfg.ActiveFPS
	}
	return g.cfg.IdleFPS
}

// Reset returns the gate to idle with no motion baseline.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.mode = ModeIdle
	g.mu.Unlock()
	g.motion.Reset()
}

// Close releases the motion baseline.
func (g *Gate) Close() {
	g.motion.Close()
}
