package capture

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera produces synthetic images. Each Read draws a filled square at the
// next position from its script; a repeated position yields an identical image.
type MockCamera struct {
	mu        sync.Mutex
	open      bool
	fps       int
	width     int
	height    int
	positions []image.Point
	index     int
	reads     int
}

// NewMockCamera returns a camera that draws a square at each of positions in
// turn, holding the last one once the script runs out. No positions yields a
// blank image on every read.
func NewMockCamera(width, height int, positions ...image.Point) *MockCamera {
	return &MockCamera{
		fps:       DefaultFPS,
		width:     width,
		height:    height,
		positions: positions,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) Read(dst *gocv.Mat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return ErrCameraNotOpen
	}

	img := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
	defer img.Close()

	if len(c.positions) > 0 {
		p := c.positions[c.index]
		if c.index < len(c.positions)-1 {
			c.index++
		}
		rect := image.Rect(p.X, p.Y, p.X+c.width/4, p.Y+c.height/4)
		gocv.Rectangle(&img, rect, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	}

	img.CopyTo(dst)
	c.reads++
	return nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many images have been produced.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetPositions replaces the script and restarts it.
func (c *MockCamera) SetPositions(positions ...image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions = positions
	c.index = 0
}
