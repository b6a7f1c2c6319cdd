// Package api provides the HTTP handlers for inspecting and toggling gesture detectors.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/leapball/internal/app"
)

// Controls is the part of the application the API drives.
type Controls interface {
	State() app.State
	SetDetectorEnabled(name string, on bool) error
}

// DetectorHandler serves /api/detectors and /api/detectors/{name}.
type DetectorHandler struct {
	controls Controls
}

// NewDetectorHandler creates a DetectorHandler.
func NewDetectorHandler(c Controls) *DetectorHandler {
	return &DetectorHandler{controls: c}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type listDetectorsResponse struct {
	Detectors []app.DetectorState `json:"detectors"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}

func (h *DetectorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/detectors")
	name = strings.Trim(name, "/")

	if name == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, name)
	case http.MethodPut:
		h.toggle(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DetectorHandler) list(w http.ResponseWriter) {
	detectors := h.controls.State().Detectors
	if detectors == nil {
		detectors = []app.DetectorState{}
	}
	WriteJSON(w, http.StatusOK, listDetectorsResponse{Detectors: detectors})
}

func (h *DetectorHandler) find(name string) (app.DetectorState, bool) {
	for _, d := range h.controls.State().Detectors {
		if d.Name == name {
			return d, true
		}
	}
	return app.DetectorState{}, false
}

func (h *DetectorHandler) get(w http.ResponseWriter, name string) {
	d, ok := h.find(name)
	if !ok {
		WriteError(w, http.StatusNotFound, "Detector not found")
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// toggle handles PUT /api/detectors/{name} with {"enabled": bool}.
func (h *DetectorHandler) toggle(w http.ResponseWriter, r *http.Request, name string) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Enabled == nil {
		WriteError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := h.controls.SetDetectorEnabled(name, *req.Enabled); err != nil {
		if errors.Is(err, app.ErrUnknownDetector) {
			WriteError(w, http.StatusNotFound, "Detector not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to toggle detector")
		return
	}

	d, _ := h.find(name)
	WriteJSON(w, http.StatusOK, d)
}
