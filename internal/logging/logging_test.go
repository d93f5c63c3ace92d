// ABOUTME: Tests for logger construction.
// ABOUTME: Checks levels and that output lands on the given writer.
package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		verbose bool
		want    logrus.Level
	}{
		{false, logrus.WarnLevel},
		{true, logrus.DebugLevel},
	}
	for _, tt := range tests {
		l := New(tt.verbose, &bytes.Buffer{})
		if got := l.GetLevel(); got != tt.want {
			t.Errorf("New(%v) level = %v, want %v", tt.verbose, got, tt.want)
		}
	}
}

func TestNewWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(false, &buf)

	l.Debug("hidden")
	l.WithField("entry_id", "01ABC").Warn("rolled back")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered: %q", out)
	}
	if !strings.Contains(out, "rolled back") || !strings.Contains(out, "entry_id=01ABC") {
		t.Errorf("warning missing from output: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nobody hears this")
}
