package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	l.Info("hello", map[string]any{"n": 1})

	var entry Entry
	if err := json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &entry); err != nil {
		t.Fatalf("output not valid JSON: %v (%s)", err, buf.String())
	}
	if entry.Message != "hello" || entry.Level != LevelInfo {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestLogger_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("hidden")
	l.Info("also hidden")
	l.Warn("visible")

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if strings.TrimSpace(buf.String()) == "" {
		t.Fatal("expected at least one line")
	}
	if lines != 1 {
		t.Errorf("expected exactly 1 emitted line, got %d: %s", lines, buf.String())
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithComponent("ingest")
	l.SetOutput(&buf)

	l.Info("working")

	var entry Entry
	if err := json.Unmarshal(bytes.TrimRight(buf.Bytes(), "\n"), &entry); err != nil {
		t.Fatalf("bad output: %v", err)
	}
	if entry.Component != "ingest" {
		t.Errorf("expected component 'ingest', got %q", entry.Component)
	}
}
