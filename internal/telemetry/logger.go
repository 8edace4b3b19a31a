package telemetry

import (
	"io"
	"os"
	"sort"
	"time"

	clog "github.com/charmbracelet/log"
)

// JSONLogger writes one JSON object per line. A nil or path-less logger discards output.
type JSONLogger struct {
	w   io.WriteCloser
	log *clog.Logger
}

func NewJSONLogger(path string) (*JSONLogger, error) {
	if path == "" {
		return newJSONLogger(nopCloser{Writer: io.Discard}), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return newJSONLogger(f), nil
}

// NewWriterLogger logs to w without taking ownership of it.
func NewWriterLogger(w io.Writer) *JSONLogger {
	return newJSONLogger(nopCloser{Writer: w})
}

func newJSONLogger(w io.WriteCloser) *JSONLogger {
	l := clog.NewWithOptions(w, clog.Options{
		Formatter:       clog.JSONFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		TimeFunction:    func(t time.Time) time.Time { return t.UTC() },
		Level:           clog.InfoLevel,
	})
	return &JSONLogger{w: w, log: l}
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Info(msg, keyvals(fields)...)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Error(msg, keyvals(fields)...)
}

func (l *JSONLogger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

func keyvals(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
