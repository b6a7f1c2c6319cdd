// Package logging configures the logrus logger used across the application.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultTimestampFormat matches the standard log package with microseconds.
const DefaultTimestampFormat = "2006/01/02 15:04:05.000000"

// New creates a logger writing to out at the named level.
// An unknown level falls back to info. A nil out writes to stdout.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)
	l.SetFormatter(&SimpleFormatter{TimestampFormat: DefaultTimestampFormat})

	return l
}

// SimpleFormatter renders one compact line per entry:
//
//	2025/04/06 17:30:00.000000 [INF] message key1=value1 key2=value2
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter.
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	format := f.TimestampFormat
	if format == "" {
		format = DefaultTimestampFormat
	}

	b.WriteString(entry.Time.Format(format))
	b.WriteByte(' ')

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 3 {
		level = level[:3]
	}
	fmt.Fprintf(b, "[%s] ", level)

	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
