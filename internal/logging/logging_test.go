package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, &bytes.Buffer{})
			if l.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", l.GetLevel(), tt.want)
			}
		})
	}
}

func TestSimpleFormatter_Format(t *testing.T) {
	f := &SimpleFormatter{}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 4, 6, 17, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "FINGERS PINCHED",
		Data:    logrus.Fields{"detector": "pinch", "frame": 12},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "2025/04/06 17:30:00.000000 [WAR] FINGERS PINCHED detector=pinch frame=12\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", &buf)

	l.WithField("detector", "flipper").Info("UP")

	if !strings.Contains(buf.String(), "[INF] UP detector=flipper") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
