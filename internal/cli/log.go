// Package cli implements the reefgrid command-line interface.
//
// # Commands
//
//   - build: render the untouched tile grid of a source
//   - simulate: run scripted removals and render the result
//   - play: interactive simulation in the terminal
//   - window: interactive simulation in a desktop window
//   - serve: HTTP API with per-client sessions
//   - runs: list archived simulations
//   - config: write or show the configuration file
//   - cache: manage the local document and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reefgrid/pkg/observability"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of an operation at debug level when done
// is called.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond.
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Debug hooks
// =============================================================================

// debugHooks logs every observability event at debug level.
type debugHooks struct {
	logger *log.Logger
}

func registerDebugHooks(l *log.Logger) {
	h := debugHooks{logger: l.WithPrefix("hook")}
	observability.SetPipelineHooks(h)
	observability.SetSimulationHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h debugHooks) OnLoadStart(_ context.Context, source string) {
	h.logger.Debug("load start", "source", source)
}

func (h debugHooks) OnLoadComplete(_ context.Context, source, strategy string, tiles int, d time.Duration, err error) {
	h.logger.Debug("load complete", "source", source, "strategy", strategy, "tiles", tiles, "duration", d, "err", err)
}

func (h debugHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h debugHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render complete", "formats", formats, "duration", d, "err", err)
}

func (h debugHooks) OnReset(_ context.Context, strategy string, total, groups int) {
	h.logger.Debug("reset", "strategy", strategy, "tiles", total, "groups", groups)
}

func (h debugHooks) OnKill(_ context.Context, cause string, killed, removed, total int) {
	h.logger.Debug("kill", "cause", cause, "killed", killed, "removed", removed, "total", total)
}

func (h debugHooks) OnCollapse(_ context.Context, removed, total, actions int) {
	h.logger.Debug("collapse", "removed", removed, "total", total, "actions", actions)
}

func (h debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h debugHooks) OnRequest(context.Context, string, string) {}

func (h debugHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}
