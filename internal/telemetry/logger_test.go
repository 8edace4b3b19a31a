package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterLoggerEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.Info("puzzles.load.done", map[string]any{"eligible": 3, "location": "puzzles.json"})
	l.Error("puzzles.load.failed", map[string]any{"error": "boom"})

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line is not json: %q: %v", sc.Text(), err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0]["msg"] != "puzzles.load.done" || lines[0]["location"] != "puzzles.json" {
		t.Fatalf("unexpected first entry %#v", lines[0])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "boom" {
		t.Fatalf("unexpected second entry %#v", lines[1])
	}
}

func TestFileLoggerAndNilSafety(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info("app.start", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !bytes.Contains(b, []byte("app.start")) {
		t.Fatalf("expected entry in file, got %q", b)
	}

	var nilLogger *JSONLogger
	nilLogger.Info("ignored", nil)
	if err := nilLogger.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}

	discard, err := NewJSONLogger("")
	if err != nil {
		t.Fatalf("discard logger: %v", err)
	}
	discard.Error("ignored", map[string]any{"k": "v"})
}
