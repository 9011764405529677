package log

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelWarn)

	Debug("hidden debug")
	Info("hidden info")
	Warn("shown warn", "k", 1)
	Error("shown error", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered lines leaked:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] shown warn k=1") {
		t.Errorf("missing warn line:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] shown error err=boom") {
		t.Errorf("missing error line:\n%s", out)
	}
}

func TestKeyValueFormatting(t *testing.T) {
	buf := capture(t, LevelDebug)

	Info("fmt", "name", "two words", 3, "skipped", "dangling")
	line := buf.String()
	if !strings.Contains(line, `name="two words"`) {
		t.Errorf("quoted value missing: %s", line)
	}
	if strings.Contains(line, "skipped") || strings.Contains(line, "dangling") {
		t.Errorf("malformed pairs were written: %s", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		want Level
		ok   bool
	}{
		"debug":   {LevelDebug, true},
		"WARNING": {LevelWarn, true},
		"":        {LevelInfo, true},
		"loud":    {LevelInfo, false},
	}
	for in, tc := range tests {
		got, ok := ParseLevel(in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseLevel(%q) = %s, %v", in, got, ok)
		}
	}
}
