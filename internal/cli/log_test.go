package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/pyview/hiergraph/pkg/transform"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug message written at info level: %q", buf.String())
	}
	logger.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("info message missing: %q", buf.String())
	}
}

func TestRunTimerLogsStageTransitions(t *testing.T) {
	var buf bytes.Buffer
	timer := newRunTimer(newLogger(&buf, log.DebugLevel))

	timer.observe(transform.Progress{Stage: transform.StagePackages})
	timer.observe(transform.Progress{Stage: transform.StagePackages, Fraction: 0.05})
	if buf.Len() != 0 {
		t.Fatalf("no stage finished yet, got %q", buf.String())
	}

	timer.observe(transform.Progress{Stage: transform.StageModules})
	out := buf.String()
	if strings.Count(out, "stage finished") != 1 {
		t.Fatalf("want one stage line, got %q", out)
	}
	if !strings.Contains(out, transform.StagePackages.Label()) {
		t.Errorf("stage line should name the finished stage: %q", out)
	}
}

func TestRunTimerDone(t *testing.T) {
	var buf bytes.Buffer
	timer := newRunTimer(newLogger(&buf, log.InfoLevel))

	timer.done("Built shop", "nodes", 4)

	out := buf.String()
	for _, want := range []string{"Built shop", "nodes=4", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("expected the default logger without one attached")
	}

	custom := newLogger(&bytes.Buffer{}, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if loggerFromContext(ctx) != custom {
		t.Error("expected the attached logger")
	}
}
