// Package tracing wraps OpenTelemetry spans behind the explicit
// start/end Span handle described in SPEC_FULL.md §9's re-architecture
// note for the source's context-manager-based tracing. NewProvider installs
// a real OTLP exporter when tracing credentials are configured; absent
// credentials leave the global provider unset and calls proceed untraced
// with identical semantics, per §4.3.
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the process-wide tracing singleton (per §5's shared-resources
// list). A zero-value Tracer is valid and produces no-op spans — tracing is
// optional per §4.3.
type Tracer struct {
	once sync.Once
	impl trace.Tracer
	name string
}

// New returns a Tracer that lazily resolves the named OTel tracer from the
// global provider on first use, mirroring the lazy-instrument-init idiom
// used for OTel meters/tracers elsewhere in the retrieved pack.
func New(instrumentationName string) *Tracer {
	return &Tracer{name: instrumentationName}
}

func (t *Tracer) tracer() trace.Tracer {
	t.once.Do(func() {
		t.impl = otel.Tracer(t.name)
	})
	return t.impl
}

// Span wraps an OTel span with the session-propagation metadata §4.3
// requires (provider, model, timeout, session id).
type Span struct {
	span trace.Span
	ctx  context.Context
}

// StartSpan opens the root span for one LLM attempt, named trace_name, with
// provider/model/timeout/session metadata attached.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, *Span) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	spanCtx, span := t.tracer().Start(ctx, name, trace.WithAttributes(kvs...))
	return spanCtx, &Span{span: span, ctx: spanCtx}
}

// StartGeneration opens the nested "generation" child span whose input is
// the prompt; the caller records the output text via RecordOutput before
// calling End.
func (t *Tracer) StartGeneration(ctx context.Context, prompt string) (context.Context, *Span) {
	genCtx, span := t.tracer().Start(ctx, "generation", trace.WithAttributes(
		attribute.String("input", prompt),
	))
	return genCtx, &Span{span: span, ctx: genCtx}
}

// RecordOutput attaches the LLM's response text to the span, completing the
// generation span's input/output contract.
func (s *Span) RecordOutput(text string) {
	if s == nil || s.span == nil {
		return
	}
	s.span.SetAttributes(attribute.String("output", text))
}

// RecordError marks the span as failed.
func (s *Span) RecordError(err error) {
	if s == nil || s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
}

// End closes the span.
func (s *Span) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}

// Context returns the span's context, carrying the session id forward to
// nested I/O calls per §9's "worker-local context" note.
func (s *Span) Context() context.Context {
	if s == nil {
		return context.Background()
	}
	return s.ctx
}
