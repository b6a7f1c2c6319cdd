// Package plugin runs external actuator programs in response to gesture events.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// Each invocation receives one JSON Request on stdin and answers with one
// JSON Response on stdout.
package plugin

import "encoding/json"

// Manifest describes a plugin and the actions it accepts.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether action is listed in the manifest. A manifest with
// no actions accepts any.
func (m Manifest) Supports(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action   string          `json:"action"`
	Event    string          `json:"event"`
	Distance float64         `json:"distance,omitempty"`
	Frame    int64           `json:"frame"`
	Session  string          `json:"session,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
