package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer SetSink(os.Stdout)
	defer SetLevel(Notice)

	logger := New("test")

	SetLevel(Warning)
	logger.Info("hidden")
	logger.Warning("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info message to be filtered at warning level; got %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected warning message tagged with module name; got %q", out)
	}
}

func TestSetSinkKeepsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLevel(Debug)
	defer SetLevel(Notice)

	SetSink(&buf)
	defer SetSink(os.Stdout)

	New("test").Debugf("value %d", 42)
	if !strings.Contains(buf.String(), "value 42") {
		t.Fatalf("expected debug output after sink swap; got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	specs := []struct {
		in  string
		exp Level
		ok  bool
	}{
		{"debug", Debug, true},
		{" INFO ", Info, true},
		{"warn", Warning, true},
		{"error", Error, true},
		{"bogus", Notice, false},
	}

	for index, s := range specs {
		level, ok := ParseLevel(s.in)
		if level != s.exp || ok != s.ok {
			t.Fatalf("[spec %d] expected (%d, %t); got (%d, %t)", index, s.exp, s.ok, level, ok)
		}
	}
}
