package gesture

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestMultiSink_Notify(t *testing.T) {
	var first, second []Event
	sink := MultiSink{
		SinkFunc(func(e Event) { first = append(first, e) }),
		nil,
		SinkFunc(func(e Event) { second = append(second, e) }),
	}

	events := []Event{
		{Kind: KindPinchStarted, FrameID: 1},
		{Kind: KindPinchReleased, DistanceTraveled: 4.5, FrameID: 2},
	}
	for _, e := range events {
		sink.Notify(e)
	}

	if diff := cmp.Diff(events, first); diff != "" {
		t.Errorf("first sink mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(events, second); diff != "" {
		t.Errorf("second sink mismatch (-want +got):\n%s", diff)
	}
}

func TestLogSink_Notify(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	sink := NewLogSink(logger)

	sink.Notify(Event{Kind: KindPinchReleased, DistanceTraveled: 7, FrameID: 12})

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Data["event"] != "PinchReleased" {
		t.Errorf("expected event field PinchReleased, got %v", entry.Data["event"])
	}
	if entry.Data["distance"] != 7.0 {
		t.Errorf("expected distance field 7, got %v", entry.Data["distance"])
	}

	sink.Notify(Event{Kind: KindFlipperUp, FrameID: 13})
	if _, ok := hook.LastEntry().Data["distance"]; ok {
		t.Error("expected no distance field for flipper events")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %q", k, got)
		}
	}

	if _, err := ParseKind("Wave"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestEvent_String(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{Event{Kind: KindPinchStarted}, "PinchStarted"},
		{Event{Kind: KindPinchReleased, DistanceTraveled: 3.25}, "PinchReleased distance=3.25"},
		{Event{Kind: KindFlipperDown}, "FlipperDown"},
	}

	for _, tt := range tests {
		if got := tt.event.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
