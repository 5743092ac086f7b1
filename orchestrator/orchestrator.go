// Package orchestrator is the single pipeline turning (slug, raw input) into
// an executed, rendered capability response. Payment has already been
// enforced by the time a request reaches it.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cronosai/opsgate/logger"
	"github.com/cronosai/opsgate/metrics"
	"github.com/cronosai/opsgate/registry"
	"github.com/cronosai/opsgate/types"
)

// Response is the envelope returned to the HTTP boundary. RawResult is
// always populated on success; rendering is best-effort and never withholds
// the structured data.
type Response struct {
	Success          bool
	Capability       string
	Cost             string
	RawResult        *types.CapabilityResult
	Rendered         string
	ProcessingTimeMs int64
}

// Orchestrator dispatches validated input to the right executor and attempts
// natural-language rendering with a deterministic fallback.
type Orchestrator struct {
	registry      *registry.Registry
	renderer      Renderer
	renderTimeout time.Duration
	log           logger.Logger
	metrics       metrics.Recorder
}

// Options configures an Orchestrator. Renderer may be nil; every render then
// uses the fallback templates.
type Options struct {
	Registry      *registry.Registry
	Renderer      Renderer
	RenderTimeout time.Duration
	Log           logger.Logger
	Metrics       metrics.Recorder
}

// New builds an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Log == nil {
		opts.Log = logger.NoopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 15 * time.Second
	}
	return &Orchestrator{
		registry:      opts.Registry,
		renderer:      opts.Renderer,
		renderTimeout: opts.RenderTimeout,
		log:           opts.Log,
		metrics:       opts.Metrics,
	}
}

// Execute runs the full pipeline: lookup, input validation, execution,
// rendering, timing. Domain errors from executors propagate unchanged;
// anything unrecognized is wrapped as an opaque internal error and logged
// with full detail server-side.
func (o *Orchestrator) Execute(ctx context.Context, slug string, raw json.RawMessage) (*Response, error) {
	start := time.Now()

	o.log.Info("executing capability", map[string]any{"capability": slug})

	cap, ok := o.registry.Get(slug)
	if !ok {
		return nil, types.ErrCapabilityUnknown.With(
			fmt.Sprintf("Capability '%s' does not exist.", slug))
	}

	input, err := o.registry.ParseInput(cap, raw)
	if err != nil {
		return nil, err
	}

	result, err := cap.Executor.Execute(ctx, input)
	if err != nil {
		if capErr, ok := err.(*types.CapabilityError); ok {
			return nil, capErr
		}
		o.log.Error("capability execution error", map[string]any{
			"capability": slug,
			"error":      err.Error(),
		})
		o.metrics.IncCounter("capability_error", map[string]string{"capability": slug})
		return nil, types.ErrUnexpected
	}

	rendered := o.render(ctx, slug, result)

	elapsed := time.Since(start)
	o.metrics.IncCounter("capability_executed", map[string]string{"capability": slug})
	o.metrics.ObserveLatency("execute", elapsed, map[string]string{"capability": slug})

	o.log.Info("capability completed", map[string]any{
		"capability": slug,
		"elapsedMs":  elapsed.Milliseconds(),
	})

	return &Response{
		Success:          true,
		Capability:       slug,
		Cost:             cap.Price,
		RawResult:        result,
		Rendered:         rendered,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

// render attempts the external renderer under a bounded timeout and falls
// back to the deterministic templates on any failure. Rendering never blocks
// the raw result.
func (o *Orchestrator) render(ctx context.Context, slug string, result *types.CapabilityResult) string {
	if o.renderer != nil {
		renderCtx, cancel := context.WithTimeout(ctx, o.renderTimeout)
		defer cancel()

		text, err := o.renderer.Render(renderCtx, slug, result)
		if err == nil && text != "" {
			return text
		}
		o.log.Warn("renderer failed, using fallback", map[string]any{
			"capability": slug,
			"error":      fmt.Sprint(err),
		})
	}

	o.metrics.IncCounter("render_fallback", map[string]string{"capability": slug})
	return FallbackRender(slug, result)
}
