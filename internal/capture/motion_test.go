package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestMotionDetector_Change(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector()
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	if got := md.Change(&black); got != 0 {
		t.Errorf("first frame change = %f, want 0", got)
	}
	if got := md.Change(&black); got != 0 {
		t.Errorf("identical frame change = %f, want 0", got)
	}
	if got := md.Change(&white); got < 50 {
		t.Errorf("black to white change = %f, want > 50", got)
	}

	md.Reset()
	if got := md.Change(&black); got != 0 {
		t.Errorf("change after reset = %f, want 0", got)
	}
}

func TestMotionDetector_EmptyFrame(t *testing.T) {
	md := NewMotionDetector()
	defer md.Close()

	if got := md.Change(nil); got != 0 {
		t.Errorf("nil frame change = %f, want 0", got)
	}
}

func TestMotionDetector_CloseTwice(t *testing.T) {
	md := NewMotionDetector()
	md.Close()
	md.Close()
}

func TestGate_Transitions(t *testing.T) {
	cfg := GateConfig{Threshold: 1, IdleTimeout: 2 * time.Second, IdleFPS: 5, ActiveFPS: 15}
	start := time.Unix(1000, 0)

	steps := []struct {
		name       string
		change     float64
		at         time.Duration
		wantMode   Mode
		wantSwitch bool
	}{
		{"still scene stays idle", 0, 0, ModeIdle, false},
		{"at threshold is not motion", 1, 100 * time.Millisecond, ModeIdle, false},
		{"motion activates", 5, 200 * time.Millisecond, ModeActive, true},
		{"still within timeout stays active", 0, 2200 * time.Millisecond, ModeActive, false},
		{"motion refreshes timer", 3, 2300 * time.Millisecond, ModeActive, false},
		{"still past timeout goes idle", 0, 4400 * time.Millisecond, ModeIdle, true},
	}

	g := NewGate(cfg)
	defer g.Close()

	for _, s := range steps {
		mode, switched := g.observeChange(s.change, start.Add(s.at))
		if mode != s.wantMode || switched != s.wantSwitch {
			t.Errorf("%s: got (%v, %v), want (%v, %v)", s.name, mode, switched, s.wantMode, s.wantSwitch)
		}
	}
}

func TestGate_FPS(t *testing.T) {
	g := NewGate(GateConfig{})
	defer g.Close()

	if g.FPS() != 5 {
		t.Errorf("idle FPS = %d, want 5", g.FPS())
	}

	g.observeChange(50, time.Now())
	if g.FPS() != 15 {
		t.Errorf("active FPS = %d, want 15", g.FPS())
	}

	g.Reset()
	if g.Mode() != ModeIdle {
		t.Errorf("mode after reset = %v, want idle", g.Mode())
	}
}

func TestMode_String(t *testing.T) {
	if ModeIdle.String() != "idle" || ModeActive.String() != "active" {
		t.Errorf("unexpected mode names %q %q", ModeIdle, ModeActive)
	}
}
