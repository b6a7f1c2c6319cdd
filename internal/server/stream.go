package server

import (
	"fmt"
	"net/http"
	"time"
)

// FrameSource provides the latest preview JPEG.
type FrameSource interface {
	Latest() ([]byte, uint64)
	Changed() <-chan struct{}
}

// keepAlive is how often an unchanged image is sent again.
const keepAlive = 2 * time.Second

// StreamHandler serves the preview as MJPEG.
type StreamHandler struct {
	source FrameSource
}

// NewStreamHandler creates a StreamHandler for source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP writes a part for every new preview image until the client leaves.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var sent uint64
	for {
		changed := h.source.Changed()
		data, version := h.source.Latest()

		if version != 0 && version != sent {
			if err := writePart(w, data); err != nil {
				return
			}
			sent = version
		}

		select {
		case <-r.Context().Done():
			return
		case <-changed:
		case <-time.After(keepAlive):
			sent = 0
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
