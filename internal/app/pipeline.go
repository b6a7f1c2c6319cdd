package app

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// Start opens the camera and runs the frame loop until Stop.
// Starting a running App is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	a.gate.Reset()
	a.camera.SetFPS(a.gate.FPS())

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	a.log.Info("detection pipeline started")
	return nil
}

// Stop halts the frame loop and releases the camera and hand detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	var errs []error
	errs = append(errs, a.camera.Close(), a.hands.Close())
	if err := errors.Join(errs...); err != nil {
		a.log.WithError(err).Warn("pipeline shutdown")
	}
	a.gate.Close()

	a.log.Info("detection pipeline stopped")
}

// run reads one image per tick. The tick rate follows the gate: idle while
// the scene is still, active while it moves.
func (a *App) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	img := gocv.NewMat()
	defer img.Close()

	fps := a.gate.FPS()
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			if err := a.camera.Read(&img); err != nil {
				a.log.WithError(err).Warn("camera read failed")
				a.ProcessFrame(nil, now)
			} else {
				a.ProcessFrame(&img, now)
			}

			if next := a.gate.FPS(); next != fps {
				fps = next
				ticker.Reset(time.Second / time.Duration(fps))
			}
		}
	}
}
