// Package main provides a keyboard plugin for macOS.
// It presses, holds and releases pinball keys via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action   string          `json:"action"`
	Event    string          `json:"event"`
	Distance float64         `json:"distance"`
	Frame    int64           `json:"frame"`
	Params   json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyParams names the key an action presses.
type KeyParams struct {
	// KeyCode is a macOS virtual key code, e.g. 44 for "/" (right flipper).
	KeyCode int `json:"key_code"`

	// HoldPerMM stretches a keystroke by this many milliseconds per millimeter
	// of pinch travel, so a deeper pull launches the plunger harder.
	HoldPerMM float64 `json:"hold_per_mm"`

	// MaxHoldMs caps the stretched keystroke.
	MaxHoldMs int `json:"max_hold_ms"`
}

const defaultMaxHold = 1500 * time.Millisecond

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var p KeyParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse params: %v", err))
			return
		}
	}

	var script []string
	switch req.Action {
	case "key-down":
		script = []string{keyScript("key down", p.KeyCode)}
	case "key-up":
		script = []string{keyScript("key up", p.KeyCode)}
	case "keystroke":
		script = strokeScript(p, req.Distance)
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	if err := runAppleScript(script); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccessResponse()
}

func keyScript(verb string, code int) string {
	return fmt.Sprintf(`tell application "System Events" to %s (key code %d)`, verb, code)
}

// strokeScript presses and releases the key, holding it longer for a deeper pinch.
func strokeScript(p KeyParams, distance float64) []string {
	hold := time.Duration(p.HoldPerMM*distance) * time.Millisecond
	limit := defaultMaxHold
	if p.MaxHoldMs > 0 {
		limit = time.Duration(p.MaxHoldMs) * time.Millisecond
	}
	if hold > limit {
		hold = limit
	}
	if hold <= 0 {
		return []string{fmt.Sprintf(`tell application "System Events" to key code %d`, p.KeyCode)}
	}

	return []string{
		keyScript("key down", p.KeyCode),
		fmt.Sprintf("delay %.3f", hold.Seconds()),
		keyScript("key up", p.KeyCode),
	}
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes the script lines in one osascript call.
func runAppleScript(lines []string) error {
	args := make([]string, 0, 2*len(lines))
	for _, l := range lines {
		args = append(args, "-e", l)
	}
	output, err := exec.Command("osascript", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
