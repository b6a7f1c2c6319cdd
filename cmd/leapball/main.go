package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/app"
	"github.com/ayusman/leapball/internal/capture"
	"github.com/ayusman/leapball/internal/config"
	"github.com/ayusman/leapball/internal/detector"
	"github.com/ayusman/leapball/internal/gesture"
	"github.com/ayusman/leapball/internal/logging"
	"github.com/ayusman/leapball/internal/plugin"
	"github.com/ayusman/leapball/internal/server"
	"github.com/ayusman/leapball/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	mock := flag.Bool("mock", false, "use a synthetic camera and hand detector")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(cfg.LogLevel, os.Stdout)
	if err := run(cfg, log, *withTray, *mock); err != nil {
		log.WithError(err).Fatal("leapball failed")
	}
}

func run(cfg config.Config, log *logrus.Logger, withTray, mock bool) error {
	log.Info("Leapball - pinball gestures")

	camera, hands, err := sensor(cfg, log, mock)
	if err != nil {
		return err
	}

	a := app.New(app.Config{
		Camera: camera,
		Hands:  hands,
		Gate: capture.GateConfig{
			Threshold:   cfg.Sensor.MotionThreshold,
			IdleTimeout: time.Duration(cfg.Sensor.IdleTimeoutMs) * time.Millisecond,
			IdleFPS:     cfg.Sensor.IdleFPS,
			ActiveFPS:   cfg.Sensor.ActiveFPS,
		},
		ScaleMM:     cfg.Sensor.ScaleMM,
		HistorySize: cfg.HistorySize,
		Logger:      log,
	})
	a.Register(gesture.NewPinchDetector(cfg.PinchDetector(), log), cfg.DetectorEnabled(gesture.PinchName))
	a.Register(gesture.NewFlipperDetector(cfg.FlipperDetector(), log), cfg.DetectorEnabled(gesture.FlipperName))

	sinks := gesture.MultiSink{gesture.NewLogSink(log)}

	dispatcher, err := newDispatcher(cfg, log, a.Session().String())
	if err != nil {
		return err
	}
	defer dispatcher.Close()
	sinks = append(sinks, dispatcher)

	hub := server.NewHub(a.Session(), log)
	sinks = append(sinks, hub)

	var t *tray.Tray
	if withTray {
		t = tray.New(a, log, gesture.PinchName, gesture.FlipperName)
		sinks = append(sinks, t)
	}
	a.Controller().SetSink(sinks)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Addr != "" {
		srv := server.New(server.Config{
			StaticDir: findWebDir(),
			Controls:  a,
			Hub:       hub,
			Preview:   a.Preview(),
			Logger:    log,
		})
		go func() {
			if err := srv.Run(ctx, cfg.Server.Addr); err != nil {
				log.WithError(err).Error("http server stopped")
				stop()
			}
		}()
	}

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()

	if t != nil {
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		// The tray owns the main thread until quit.
		t.Run()
		return nil
	}

	go func() {
		fmt.Println("Press Enter to quit...")
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
			log.WithError(err).Warn("stdin closed")
		}
		stop()
	}()
	<-ctx.Done()
	return nil
}

func sensor(cfg config.Config, log logrus.FieldLogger, mock bool) (capture.Camera, detector.Detector, error) {
	if mock {
		log.Warn("using synthetic camera and hands")
		return capture.NewMockCamera(capture.DefaultWidth, capture.DefaultHeight), detector.NewMockDetector(), nil
	}

	hands, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), log)
	if err != nil {
		return nil, nil, fmt.Errorf("hand detector: %w", err)
	}
	camera := capture.NewCamera(capture.Options{DeviceID: cfg.Sensor.CameraID, FPS: cfg.Sensor.IdleFPS})
	return camera, hands, nil
}

func newDispatcher(cfg config.Config, log logrus.FieldLogger, session string) (*plugin.Dispatcher, error) {
	manager := plugin.NewManager(cfg.PluginDir, log)
	if err := manager.Discover(); err != nil {
		return nil, err
	}

	bindings := make([]plugin.Binding, 0, len(cfg.Bindings))
	for _, b := range cfg.Bindings {
		binding, err := plugin.NewBinding(b.Event, b.Plugin, b.Action, b.Params)
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", b.Event, err)
		}
		bindings = append(bindings, binding)
	}

	return plugin.NewDispatcher(plugin.DispatcherConfig{
		Plugins:  manager,
		Runner:   plugin.NewExecutor(time.Duration(cfg.PluginTimeoutMs) * time.Millisecond),
		Bindings: bindings,
		Session:  session,
		Logger:   log,
	}), nil
}

// findWebDir searches "web", "../web" and ~/.leapball/web for static files.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	candidates := []string{"web", filepath.Join("..", "web")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".leapball", "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
