package tracking

import "sync"

// DefaultHistorySize is the number of frames a History keeps when no size is given.
const DefaultHistorySize = 60

// Source is a read-only view of recently delivered frames.
type Source interface {
	// CurrentFrame returns the most recent frame, or an invalid zero Frame if none
	// has been delivered yet.
	CurrentFrame() Frame

	// FrameAt returns the frame offset frames before the current one.
	// Offset 0 is the current frame. The second result is false when the
	// history does not reach that far back.
	FrameAt(offset int) (Frame, bool)
}

// History is a fixed-capacity ring buffer of frames that implements Source.
type History struct {
	frames []Frame
	pos    int
	count  int
	mu     sync.RWMutex
}

// NewHistory creates a History retaining up to size frames.
// Sizes below 1 fall back to DefaultHistorySize.
func NewHistory(size int) *History {
	if size < 1 {
		size = DefaultHistorySize
	}
	return &History{frames: make([]Frame, size)}
}

// Push records f as the new current frame, evicting the oldest frame when full.
func (h *History) Push(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.frames[h.pos] = f
	h.pos = (h.pos + 1) % len(h.frames)
	if h.count < len(h.frames) {
		h.count++
	}
}

// CurrentFrame returns the most recently pushed frame.
func (h *History) CurrentFrame() Frame {
	f, _ := h.FrameAt(0)
	return f
}

// FrameAt returns the frame offset frames in the past.
func (h *History) FrameAt(offset int) (Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if offset < 0 || offset >= h.count {
		return Frame{}, false
	}
	idx := (h.pos - 1 - offset + len(h.frames)) % len(h.frames)
	return h.frames[idx], true
}

// Len returns the number of frames currently retained.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Cap returns the retention depth.
func (h *History) Cap() int {
	return len(h.frames)
}

// Reset drops every retained frame.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.frames {
		h.frames[i] = Frame{}
	}
	h.pos = 0
	h.count = 0
}
