package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Fatalf("below-level messages logged: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Fatalf("at-level messages missing: %q", out)
	}
}

func TestLevelTags(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)

	l.Debug("a")
	l.Info("b")
	l.Warn("c")
	l.Error("d")

	out := buf.String()
	for _, tag := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"} {
		if !strings.Contains(out, tag) {
			t.Errorf("missing tag %s in %q", tag, out)
		}
	}
}

func TestKeyValueFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)

	l.Info("registered", "fd", 7, "token", 3)

	out := buf.String()
	if !strings.Contains(out, "registered fd=7 token=3") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestDanglingKey(t *testing.T) {
	if got := formatKV([]any{"orphan"}); got != " orphan=?" {
		t.Fatalf("formatKV dangling key = %q", got)
	}
	if got := formatKV(nil); got != "" {
		t.Fatalf("formatKV(nil) = %q", got)
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	a := Default()
	b := Default()
	if a != b {
		t.Fatal("Default returned distinct loggers")
	}

	var buf bytes.Buffer
	custom := New(LevelError, &buf)
	SetDefault(custom)
	defer SetDefault(a)

	if Default() != custom {
		t.Fatal("SetDefault not observed")
	}
}
