package gesture

import "github.com/sirupsen/logrus"

// Sink receives gesture events in emission order.
// Notify must not block the frame loop for long.
type Sink interface {
	Notify(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Notify calls f(e).
func (f SinkFunc) Notify(e Event) {
	f(e)
}

// MultiSink fans events out to every sink in order. Nil entries are skipped.
type MultiSink []Sink

// Notify forwards e to each sink.
func (m MultiSink) Notify(e Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(e)
		}
	}
}

// LogSink renders every event as a log line.
type LogSink struct {
	log logrus.FieldLogger
}

// NewLogSink creates a LogSink. A nil logger uses the logrus standard logger.
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{log: logger}
}

// Notify logs e.
func (s *LogSink) Notify(e Event) {
	entry := s.log.WithFields(logrus.Fields{
		"event": string(e.Kind),
		"frame": e.FrameID,
	})
	if e.Kind == KindPinchReleased {
		entry = entry.WithField("distance", e.DistanceTraveled)
	}
	entry.Info("gesture event")
}
