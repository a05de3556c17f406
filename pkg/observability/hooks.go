// Package observability lets a binary watch reefgrid without the library
// packages depending on a metrics or tracing backend.
//
// Events are grouped by the part of the system that emits them: grid loads
// and renders in the pipeline, kills and collapse in the simulation, cache
// traffic, and HTTP requests. Every group starts out as a no-op. The CLI
// installs logging hooks when --verbose is set:
//
//	observability.SetSimulationHooks(h)
//
// and the engine reports through whatever is installed:
//
//	observability.Simulation().OnKill(ctx, "batch", killed, removed, total)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load and render stages.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source, strategy string, tileCount int, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Simulation Hooks
// =============================================================================

// SimulationHooks receives events from the removal state machine.
type SimulationHooks interface {
	// OnReset records a full rebuild of the tile set.
	OnReset(ctx context.Context, strategy string, total, groups int)

	// OnKill records a removal. Cause is "point", "random" or "batch".
	OnKill(ctx context.Context, cause string, killed, removed, total int)

	// OnCollapse records the transition into the collapsed state.
	OnCollapse(ctx context.Context, removed, total, actions int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopSimulationHooks is a no-op implementation of SimulationHooks.
type NoopSimulationHooks struct{}

func (NoopSimulationHooks) OnReset(context.Context, string, int, int)     {}
func (NoopSimulationHooks) OnKill(context.Context, string, int, int, int) {}
func (NoopSimulationHooks) OnCollapse(context.Context, int, int, int)     {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Installed Hooks
// =============================================================================

type hookSet struct {
	pipeline   PipelineHooks
	simulation SimulationHooks
	cache      CacheHooks
	http       HTTPHooks
}

func noopHooks() hookSet {
	return hookSet{
		pipeline:   NoopPipelineHooks{},
		simulation: NoopSimulationHooks{},
		cache:      NoopCacheHooks{},
		http:       NoopHTTPHooks{},
	}
}

var (
	hooksMu sync.RWMutex
	hooks   = noopHooks()
)

// SetPipelineHooks installs h for load and render events. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		hooks.pipeline = h
	}
}

// SetSimulationHooks installs h for reset, kill and collapse events. Nil is
// ignored.
func SetSimulationHooks(h SimulationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		hooks.simulation = h
	}
}

// SetCacheHooks installs h for cache events. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		hooks.cache = h
	}
}

// SetHTTPHooks installs h for API requests. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		hooks.http = h
	}
}

func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks.pipeline
}

func Simulation() SimulationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks.simulation
}

func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks.cache
}

func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks.http
}

// Reset puts every group back to its no-op.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = noopHooks()
}
