package capture

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

var tipColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Preview keeps the most recent camera image as JPEG, annotated with fingertips.
type Preview struct {
	mu      sync.RWMutex
	jpeg    []byte
	version uint64
	notify  chan struct{}
}

// NewPreview returns an empty preview.
func NewPreview() *Preview {
	return &Preview{notify: make(chan struct{})}
}

// Update encodes frame with a circle at each tip and publishes it.
// frame is not modified.
func (p *Preview) Update(frame *gocv.Mat, tips []image.Point) error {
	if frame == nil || frame.Empty() {
		return ErrNoFrame
	}

	annotated := frame.Clone()
	defer annotated.Close()
	for _, tip := range tips {
		gocv.Circle(&annotated, tip, 6, tipColor, 2)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	p.mu.Lock()
	p.jpeg = data
	p.version++
	close(p.notify)
	p.notify = make(chan struct{})
	p.mu.Unlock()

	return nil
}

// Latest returns the current JPEG and its version. Version 0 means no image yet.
func (p *Preview) Latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.version
}

// Changed returns a channel that is closed on the next Update.
func (p *Preview) Changed() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notify
}
