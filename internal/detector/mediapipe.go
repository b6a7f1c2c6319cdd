package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	scriptName = "landmark_service.py"

	// idleShutdown stops the landmark process after this long without a request.
	idleShutdown = 30 * time.Second
)

// ErrScriptNotFound is returned when the landmark service script cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// MediaPipeDetector runs MediaPipe hand landmarking in a Python subprocess.
// Each request is a 4-byte big-endian length followed by a JPEG image; each
// reply is one JSON line.
type MediaPipeDetector struct {
	config Config
	script string
	python string
	log    logrus.FieldLogger

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	idleTimer *time.Timer
}

// NewMediaPipeDetector locates the landmark script. The subprocess starts on
// the first Detect call.
func NewMediaPipeDetector(config Config, logger logrus.FieldLogger) (*MediaPipeDetector, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	script := config.ScriptPath
	if script == "" {
		script = findFile(filepath.Join("scripts", scriptName))
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}

	python := config.Python
	if python == "" {
		python = findFile(filepath.Join("venv", "bin", "python"))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		log:    logger.WithField("component", "mediapipe"),
	}, nil
}

// Detect sends frame to the landmark process and returns the hands it reports.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	hands, err := d.roundTrip(buf.GetBytes())
	if err != nil {
		// The process is in an unknown state; restart it on the next call.
		d.stop()
		return nil, err
	}

	d.resetIdleTimer()
	return d.config.filter(hands), nil
}

// Close stops the landmark process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) roundTrip(image []byte) ([]HandLandmarks, error) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(image)))

	if _, err := d.stdin.Write(length[:]); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return decodeResponse(line)
}

func (d *MediaPipeDetector) start() error {
	if d.cmd != nil {
		return nil
	}

	cmd := exec.Command(d.python, d.script)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.log.WithField("pid", cmd.Process.Pid).Debug("landmark service started")

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	return nil
}

func (d *MediaPipeDetector) stop() error {
	if d.cmd == nil {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	d.stdin.Close()
	err := d.cmd.Wait()

	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.log.Debug("landmark service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.stop(); err != nil {
			d.log.WithError(err).Warn("landmark service exit")
		}
	})
}

// findFile returns the absolute path of rel under the working directory, its
// parents, the executable directory or ~/.leapball, or "" if none exist.
func findFile(rel string) string {
	var candidates []string
	candidates = append(candidates, rel, filepath.Join("..", rel), filepath.Join("..", "..", rel))

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".leapball", rel))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// decodeResponse parses one reply line from the landmark service.
func decodeResponse(line []byte) ([]HandLandmarks, error) {
	var resp struct {
		Hands []wireHand `json:"hands"`
		Error string     `json:"error,omitempty"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", resp.Error)
	}

	hands := make([]HandLandmarks, 0, len(resp.Hands))
	for _, wh := range resp.Hands {
		if len(wh.Points) < NumLandmarks {
			return nil, fmt.Errorf("parse response: hand has %d points, want %d", len(wh.Points), NumLandmarks)
		}
		h := HandLandmarks{Handedness: wh.Handedness, Score: wh.Score}
		copy(h.Points[:], wh.Points)
		hands = append(hands, h)
	}
	return hands, nil
}
