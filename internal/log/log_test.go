package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" Error ", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLevelsAndErrorKey(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	SetLevel(LevelInfo)
	Debug("hidden debug line")
	Info("visible info line", "event_id", 42)
	Error("fetch failed", errors.New("boom"), "url", "https://example.com")

	got := buf.String()
	if strings.Contains(got, "hidden debug line") {
		t.Errorf("debug line logged at info level:\n%s", got)
	}
	if !strings.Contains(got, "visible info line") || !strings.Contains(got, "event_id=42") {
		t.Errorf("info line missing:\n%s", got)
	}
	if !strings.Contains(got, "err=boom") {
		t.Errorf("error not logged under err key:\n%s", got)
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("debug line missing after SetLevel(debug):\n%s", buf.String())
	}
}
