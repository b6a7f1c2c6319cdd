package gesture

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ayusman/leapball/internal/tracking"
	"github.com/ayusman/leapball/internal/tracking/trackingtest"
)

// feed pushes f into h and runs d over it, the way the controller does.
func feed(d Detector, h *tracking.History, f tracking.Frame) []Event {
	h.Push(f)
	return d.Process(f, h)
}

func newTestPinch() (*PinchDetector, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewPinchDetector(DefaultPinchConfig(), logger), hook
}

func TestPinchDetector_Scenarios(t *testing.T) {
	d, _ := newTestPinch()
	h := tracking.NewHistory(10)

	t.Run("A: close fingers start a pinch", func(t *testing.T) {
		events := feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))

		want := []Event{{Kind: KindPinchStarted, FrameID: 1}}
		if diff := cmp.Diff(want, events); diff != "" {
			t.Fatalf("events mismatch (-want +got):\n%s", diff)
		}

		state := d.State()
		if !state.Pinched {
			t.Error("expected pinched state")
		}
		if state.StartZ != 50 || state.EndZ != 50 {
			t.Errorf("expected start/end Z 50/50, got %f/%f", state.StartZ, state.EndZ)
		}
	})

	t.Run("B: pulling back updates end depth", func(t *testing.T) {
		events := feed(d, h, trackingtest.PinchFrame(2, 0, 10, 51))

		if len(events) != 0 {
			t.Fatalf("expected no events, got %v", events)
		}
		if got := d.State().EndZ; got != 51 {
			t.Errorf("expected end Z 51, got %f", got)
		}
	})

	t.Run("C: opening past the hysteresis band releases", func(t *testing.T) {
		events := feed(d, h, trackingtest.PinchFrame(3, 0, 30, 53))

		want := []Event{{Kind: KindPinchReleased, DistanceTraveled: 3, FrameID: 3}}
		if diff := cmp.Diff(want, events); diff != "" {
			t.Fatalf("events mismatch (-want +got):\n%s", diff)
		}
		if d.State().Pinched {
			t.Error("expected pinch to be released")
		}
	})
}

func TestPinchDetector_Hysteresis(t *testing.T) {
	tests := []struct {
		name      string
		distance  float64
		wantEvent bool
	}{
		{"inside band low edge", 20.6, false},
		{"inside band", 24, false},
		{"at release boundary", 26, false},
		{"beyond release boundary", 26.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestPinch()
			h := tracking.NewHistory(10)

			feed(d, h, trackingtest.PinchFrame(1, 0, 10, 0))
			events := feed(d, h, trackingtest.PinchFrame(2, 0, tt.distance, 0))

			if got := len(events) == 1; got != tt.wantEvent {
				t.Errorf("distance %.1f: release = %v, want %v", tt.distance, got, tt.wantEvent)
			}
			if d.State().Pinched == tt.wantEvent {
				t.Errorf("distance %.1f: pinched = %v after frame", tt.distance, d.State().Pinched)
			}
		})
	}

	t.Run("band does not engage when open", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		events := feed(d, h, trackingtest.PinchFrame(1, 0, 24, 0))
		if len(events) != 0 || d.State().Pinched {
			t.Errorf("expected no pinch inside the band, got %v", events)
		}
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		events := feed(d, h, trackingtest.PinchFrame(1, 0, DefaultPinchThreshold, 0))
		if len(events) != 1 || events[0].Kind != KindPinchStarted {
			t.Errorf("expected pinch start at the threshold, got %v", events)
		}
	})
}

func TestPinchDetector_Interruptions(t *testing.T) {
	fingerless := trackingtest.HandFrame(3)
	invalid := trackingtest.PinchFrame(3, 0, 10, 60)
	invalid.Valid = false
	invalidHand := trackingtest.PinchFrame(3, 0, 10, 60)
	invalidHand.Hands[0].Valid = false

	tests := []struct {
		name  string
		frame tracking.Frame
	}{
		{"no hands", trackingtest.EmptyFrame(3)},
		{"two hands", trackingtest.TwoHandFrame(3)},
		{"no fingers", fingerless},
		{"E: three fingers", trackingtest.ThreeFingerFrame(3)},
		{"invalid frame", invalid},
		{"invalid hand", invalidHand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, hook := newTestPinch()
			h := tracking.NewHistory(10)

			feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))
			feed(d, h, trackingtest.PinchFrame(2, 0, 10, 58))
			events := feed(d, h, tt.frame)

			want := []Event{{Kind: KindPinchReleased, DistanceTraveled: 8, FrameID: 3}}
			if diff := cmp.Diff(want, events); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
			if d.State().Pinched {
				t.Error("expected pinch to be cleared")
			}
			if hook.LastEntry() == nil || hook.LastEntry().Message != "Distance pinched = 8.00" {
				t.Errorf("expected distance log line, got %+v", hook.LastEntry())
			}

			// A second gap frame must not release again.
			if events := feed(d, h, tt.frame); len(events) != 0 {
				t.Errorf("expected no events on repeated gap, got %v", events)
			}
		})
	}

	t.Run("gap without pinch emits nothing", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		if events := feed(d, h, trackingtest.EmptyFrame(1)); len(events) != 0 {
			t.Errorf("expected no events, got %v", events)
		}
	})
}

func TestPinchDetector_MergedFingers(t *testing.T) {
	d, _ := newTestPinch()
	h := tracking.NewHistory(10)

	feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))
	feed(d, h, trackingtest.PinchFrame(2, 0, 10, 54))

	events := feed(d, h, trackingtest.MergedFrame(3, 90))
	if len(events) != 0 {
		t.Fatalf("expected merged fingers to be ignored, got %v", events)
	}

	state := d.State()
	if !state.Pinched {
		t.Fatal("expected pinch to survive a single finger frame")
	}
	if state.EndZ != 54 {
		t.Errorf("expected end Z to stay at 54, got %f", state.EndZ)
	}

	t.Run("single finger without pinch is ignored", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		if events := feed(d, h, trackingtest.MergedFrame(1, 0)); len(events) != 0 || d.State().Pinched {
			t.Errorf("expected no change, got %v", events)
		}
	})
}

func TestPinchDetector_DriftCorrection(t *testing.T) {
	d, _ := newTestPinch()
	h := tracking.NewHistory(10)

	feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))

	steps := []struct {
		name string
		z    float64
		want float64
	}{
		{"pulling back", 60, 60},
		{"easing forward behind start", 55, 55},
		{"forward past the start clamps", 45, 50},
		{"pulling back while in front of start", 47, 47},
	}

	for i, step := range steps {
		events := feed(d, h, trackingtest.PinchFrame(int64(i+2), 0, 10, step.z))
		if len(events) != 0 {
			t.Fatalf("%s: expected no events, got %v", step.name, events)
		}
		if got := d.State().EndZ; got != step.want {
			t.Errorf("%s: expected end Z %f, got %f", step.name, step.want, got)
		}
	}

	t.Run("release never reports negative travel", func(t *testing.T) {
		events := feed(d, h, trackingtest.EmptyFrame(10))
		if len(events) != 1 {
			t.Fatalf("expected one release, got %v", events)
		}
		if events[0].DistanceTraveled != 0 {
			t.Errorf("expected travel clamped to 0, got %f", events[0].DistanceTraveled)
		}
	})

	t.Run("opening release clamps to start", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))
		events := feed(d, h, trackingtest.PinchFrame(2, 0, 40, 30))

		if len(events) != 1 || events[0].DistanceTraveled != 0 {
			t.Errorf("expected a zero travel release, got %v", events)
		}
	})
}

func TestPinchDetector_HistoryUnavailable(t *testing.T) {
	t.Run("nil history skips refinement", func(t *testing.T) {
		d, _ := newTestPinch()

		d.Process(trackingtest.PinchFrame(1, 0, 10, 50), nil)
		events := d.Process(trackingtest.PinchFrame(2, 0, 10, 70), nil)

		if len(events) != 0 {
			t.Fatalf("expected no events, got %v", events)
		}
		if got := d.State().EndZ; got != 50 {
			t.Errorf("expected end Z unchanged at 50, got %f", got)
		}
	})

	t.Run("history of one frame skips refinement", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(1)

		feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))
		feed(d, h, trackingtest.PinchFrame(2, 0, 10, 70))

		if got := d.State().EndZ; got != 50 {
			t.Errorf("expected end Z unchanged at 50, got %f", got)
		}
	})

	t.Run("finger missing from previous frame skips refinement", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))

		next := trackingtest.PinchFrame(2, 0, 10, 70)
		next.Hands[0].Fingers[1].ID = 99
		feed(d, h, next)

		if got := d.State().EndZ; got != 50 {
			t.Errorf("expected end Z unchanged at 50, got %f", got)
		}
	})

	t.Run("invalid previous frame skips refinement", func(t *testing.T) {
		d, _ := newTestPinch()
		h := tracking.NewHistory(10)

		feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))
		broken := trackingtest.PinchFrame(2, 0, 10, 52)
		broken.Valid = false
		h.Push(broken)

		current := trackingtest.PinchFrame(3, 0, 10, 70)
		h.Push(current)
		events := d.Process(current, h)

		if len(events) != 0 {
			t.Fatalf("expected no events, got %v", events)
		}
		if got := d.State().EndZ; got != 50 {
			t.Errorf("expected end Z unchanged at 50, got %f", got)
		}
	})
}

func TestPinchDetector_Idempotent(t *testing.T) {
	d, _ := newTestPinch()
	h := tracking.NewHistory(10)

	var events []Event
	for i := int64(1); i <= 20; i++ {
		events = append(events, feed(d, h, trackingtest.PinchFrame(i, 0, 10, 50))...)
	}

	want := []Event{{Kind: KindPinchStarted, FrameID: 1}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPinchDetector_LogLines(t *testing.T) {
	d, hook := newTestPinch()
	h := tracking.NewHistory(10)

	feed(d, h, trackingtest.PinchFrame(1, 0, 10, 50))
	feed(d, h, trackingtest.PinchFrame(2, 0, 40, 62))

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}

	want := []string{"FINGERS PINCHED", "FINGERS PINCH RELEASED", "Distance pinched = 12.00"}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Errorf("log lines mismatch (-want +got):\n%s", diff)
	}
}

func TestPinchDetector_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		d, _ := newTestPinch()
		h := tracking.NewHistory(4)
		pinched := false

		for i := int64(1); i <= 300; i++ {
			var frame tracking.Frame
			switch rng.Intn(8) {
			case 0:
				frame = trackingtest.EmptyFrame(i)
			case 1:
				frame = trackingtest.MergedFrame(i, rng.Float64()*100-50)
			case 2:
				frame = trackingtest.ThreeFingerFrame(i)
			default:
				frame = trackingtest.PinchFrame(i, 0, rng.Float64()*40, rng.Float64()*100-50)
			}

			events := feed(d, h, frame)
			if len(events) > 1 {
				t.Fatalf("run %d frame %d: expected at most one event, got %v", run, i, events)
			}

			for _, e := range events {
				switch e.Kind {
				case KindPinchStarted:
					if pinched {
						t.Fatalf("run %d frame %d: start while already pinched", run, i)
					}
					pinched = true
				case KindPinchReleased:
					if !pinched {
						t.Fatalf("run %d frame %d: release without start", run, i)
					}
					if e.DistanceTraveled < 0 {
						t.Fatalf("run %d frame %d: negative travel %f", run, i, e.DistanceTraveled)
					}
					pinched = false
				default:
					t.Fatalf("run %d frame %d: unexpected event %v", run, i, e)
				}
			}

			if d.State().Pinched != pinched {
				t.Fatalf("run %d frame %d: state pinched=%v, events say %v", run, i, d.State().Pinched, pinched)
			}
		}
	}
}
