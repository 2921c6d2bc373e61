package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatterHandlerRendersThroughLogFormatter(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()

	l := NewText(&TextFormatter{}, DEBUG, w)
	l.Info("hello", "peer", "abc")
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "peer=abc") {
		t.Fatalf("output missing expected fields: %q", out)
	}
}

func TestFormatterHandlerRespectsMinLevel(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()

	l := NewText(&TextFormatter{}, WARN, w)
	l.Info("should be dropped")
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.Len() != 0 {
		t.Fatalf("expected no output below min level, got %q", buf.String())
	}
}

func TestNewRotatingWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.log")
	l := NewRotating(RotatingFileConfig{Path: path, MaxSizeMB: 1}, -4)
	l.Info("rotating entry")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "rotating entry") {
		t.Fatalf("log file missing entry: %q", data)
	}
}
