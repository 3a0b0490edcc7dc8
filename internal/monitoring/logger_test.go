package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("skipped row %d", 3)
	if !called {
		t.Error("custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("skipped row %d", 4)
	if called {
		t.Error("nil logger should mute diagnostics")
	}
}

func TestCapture(t *testing.T) {
	var lines []string
	restore := Capture(&lines)
	Logf("target %03d: %s", 7, "no candidate image")
	restore()

	if len(lines) != 1 {
		t.Fatalf("captured %d lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], "target 007") {
		t.Errorf("captured %q, want formatted target index", lines[0])
	}

	// After restore, further logging must not reach the capture slice.
	Logf("ignored")
	if len(lines) != 1 {
		t.Errorf("capture kept receiving lines after restore: %v", lines)
	}
}
