package e2e

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gocv.io/x/gocv"

	"github.com/ayusman/leapball/internal/app"
	"github.com/ayusman/leapball/internal/capture"
	"github.com/ayusman/leapball/internal/detector"
	"github.com/ayusman/leapball/internal/gesture"
	"github.com/ayusman/leapball/internal/server"
)

func TestE2E_PinchOverWebsocket(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	logger, _ := logtest.NewNullLogger()
	hands := detector.NewMockDetector()

	application := app.New(app.Config{
		Camera: capture.NewMockCamera(64, 48),
		Hands:  hands,
		Gate:   capture.GateConfig{Threshold: 1, IdleTimeout: time.Second, IdleFPS: 5, ActiveFPS: 15},
		Logger: logger,
	})
	application.Register(gesture.NewPinchDetector(gesture.DefaultPinchConfig(), logger), true)
	application.Register(gesture.NewFlipperDetector(gesture.DefaultFlipperConfig(), logger), true)

	hub := server.NewHub(application.Session(), logger)
	application.Controller().SetSink(gesture.MultiSink{gesture.NewLogSink(logger), hub})

	srv := server.New(server.Config{
		Controls: application,
		Hub:      hub,
		Preview:  application.Preview(),
		Logger:   logger,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	t.Run("DetachFlipper", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/detectors/flipper", strings.NewReader(`{"enabled": false}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("toggle error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if application.DetectorEnabled(gesture.FlipperName) {
			t.Error("expected flipper detached")
		}
	})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("websocket client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	black := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	now := time.Unix(1000, 0)
	images := []*gocv.Mat{&black, &white}
	feed := func(i int) {
		now = now.Add(100 * time.Millisecond)
		application.ProcessFrame(images[i%2], now)
	}

	t.Run("PinchGesture", func(t *testing.T) {
		feed(0)
		hands.SetHands(detector.PinchLandmarks(10, 0))
		feed(1)
		hands.SetHands(detector.PinchLandmarks(10, 6))
		feed(2)
		hands.SetHands(detector.PinchLandmarks(40, 6))
		feed(3)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msgs []server.Message
		for i := 0; i < 2; i++ {
			var m server.Message
			if err := conn.ReadJSON(&m); err != nil {
				t.Fatalf("read event %d: %v", i, err)
			}
			msgs = append(msgs, m)
		}

		if msgs[0].Kind != gesture.KindPinchStarted {
			t.Errorf("expected PinchStarted first, got %s", msgs[0].Kind)
		}
		if msgs[1].Kind != gesture.KindPinchReleased {
			t.Fatalf("expected PinchReleased second, got %s", msgs[1].Kind)
		}
		if math.Abs(msgs[1].Distance-6) > 1e-6 {
			t.Errorf("expected distance 6, got %f", msgs[1].Distance)
		}
		if msgs[1].Session != application.Session() {
			t.Errorf("expected session %s, got %s", application.Session(), msgs[1].Session)
		}
	})

	t.Run("State", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatalf("state error = %v", err)
		}
		defer resp.Body.Close()

		var state struct {
			Frames    int64 `json:"frames"`
			Detectors []struct {
				Name     string         `json:"name"`
				Attached bool           `json:"attached"`
				State    map[string]any `json:"state"`
			} `json:"detectors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
			t.Fatalf("decode state: %v", err)
		}

		if state.Frames != 4 {
			t.Errorf("expected 4 frames, got %d", state.Frames)
		}
		if len(state.Detectors) != 2 {
			t.Fatalf("expected 2 detectors, got %d", len(state.Detectors))
		}
		pinch := state.Detectors[0]
		if pinch.Name != gesture.PinchName || !pinch.Attached {
			t.Errorf("unexpected pinch state %+v", pinch)
		}
		if pinched, _ := pinch.State["pinched"].(bool); pinched {
			t.Error("expected pinch released")
		}
		if flipper := state.Detectors[1]; flipper.Attached || flipper.State["position"] != "DOWN" {
			t.Errorf("unexpected flipper state %+v", flipper)
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})
}
