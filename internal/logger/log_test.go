package logger_test

import (
	"strings"
	"testing"

	"github.com/ZacGeurts/acornarc-AI/internal/logger"
)

func TestCentralLogger(t *testing.T) {
	logger.Clear()

	w := &strings.Builder{}
	logger.Write(w)
	if w.String() != "" {
		t.Errorf("expected empty log, got %q", w.String())
	}

	logger.Log(logger.Debug, "test", "this is a test")
	w.Reset()
	logger.Write(w)
	if w.String() != "test: debug: this is a test\n" {
		t.Errorf("unexpected log contents: %q", w.String())
	}
}

func TestDeduplication(t *testing.T) {
	logger.Clear()

	logger.Log(logger.Info, "bus", "repeat me")
	logger.Log(logger.Info, "bus", "repeat me")
	logger.Log(logger.Info, "bus", "repeat me")

	w := &strings.Builder{}
	logger.Write(w)
	if strings.Count(w.String(), "\n") != 1 {
		t.Errorf("expected consecutive identical entries to be collapsed, got %q", w.String())
	}
	if !strings.Contains(w.String(), "repeat x3") {
		t.Errorf("expected repeat count in collapsed entry, got %q", w.String())
	}
}

func TestTail(t *testing.T) {
	logger.Clear()

	for i := 0; i < 5; i++ {
		logger.Logf(logger.Debug, "bus", "entry %d", i)
	}

	w := &strings.Builder{}
	logger.Tail(w, 2)
	lines := strings.Split(strings.TrimRight(w.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}
}
