// Package cli implements the hiergraph command-line interface.
//
// The commands build clustered views of an analysis file, serve them over
// HTTP, search entities, print statistics, and manage the result cache.
// The CLI is built on cobra and logs with charmbracelet/log.
//
// # Commands
//
//   - build: transform an analysis and write JSON, DOT, SVG, PNG or PDF views
//   - serve: run the HTTP API, optionally reloading the analysis on change
//   - search: find entities by name or glob
//   - stats: summarize entities, edges, cycles and view sizes
//   - cache: inspect and prune the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pyview/hiergraph/pkg/transform"
)

// newLogger writes to w with short wall-clock timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// runTimer times a transformation run. Each stage transition is logged at
// debug level with the time spent in the previous stage.
type runTimer struct {
	logger *log.Logger
	start  time.Time

	mu         sync.Mutex
	stage      transform.Stage
	stageStart time.Time
	seen       bool
}

func newRunTimer(l *log.Logger) *runTimer {
	now := time.Now()
	return &runTimer{logger: l, start: now, stageStart: now}
}

// observe records a progress report. It may be called from the
// transformation goroutine.
func (t *runTimer) observe(p transform.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen && p.Stage == t.stage {
		return
	}
	now := time.Now()
	if t.seen {
		t.logger.Debug("stage finished", "stage", t.stage.Label(), "elapsed", now.Sub(t.stageStart).Round(time.Millisecond))
	}
	t.stage, t.stageStart, t.seen = p.Stage, now, true
}

// done logs msg with the total elapsed time.
func (t *runTimer) done(msg string, keyvals ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.start).Round(time.Millisecond)
	t.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default when none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
