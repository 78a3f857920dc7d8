// Package llmgateway submits prompts to the configured LLM providers and
// normalizes every outcome into a Result, replacing the source's
// exception-driven try/except control flow (§9) with an explicit sum type
// the worker switches on.
package llmgateway

import (
	"context"
	"net/http"
	"time"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/tracing"
)

const (
	// temperature is fixed for every provider call per §6.
	temperature = 0.2
	// callTimeout bounds a single provider attempt per §4.3.
	callTimeout = 120 * time.Second
)

type provider interface {
	name() Provider
	call(ctx context.Context, prompt string) (text string, tokens int, err error)
}

// Config wires both providers plus the shared tracer.
type Config struct {
	Primary   PrimaryConfig
	Secondary SecondaryConfig
}

// Gateway tries the primary provider, falling back to the secondary on any
// failure, and reports both attempts via tracing spans (§4.3).
type Gateway struct {
	providers []provider
	tracer    *tracing.Tracer
}

// New builds a Gateway with providers tried in the fixed order primary, then
// secondary, per §4.3.
func New(cfg Config, tracer *tracing.Tracer) *Gateway {
	return newWithProviders([]provider{
		newPrimaryProvider(cfg.Primary),
		newSecondaryProvider(cfg.Secondary, &http.Client{Timeout: callTimeout}),
	}, tracer)
}

func newWithProviders(providers []provider, tracer *tracing.Tracer) *Gateway {
	return &Gateway{providers: providers, tracer: tracer}
}

// Analyse submits prompt for the given session, returning the first Ok
// result in provider order, or KindUnavailable once both are exhausted.
func (g *Gateway) Analyse(ctx context.Context, sessionID, model string, prompt string) Result {
	var last Result
	for _, p := range g.providers {
		res := g.attempt(ctx, p, sessionID, model, prompt)
		if res.Ok() {
			return res
		}
		last = res
	}
	if last.Kind == 0 {
		last = Result{Kind: KindUnavailable, Provider: ""}
	} else {
		last.Kind = KindUnavailable
	}
	return last
}

func (g *Gateway) attempt(ctx context.Context, p provider, sessionID, model, prompt string) Result {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	spanCtx, span := g.tracer.StartSpan(callCtx, "Batch Monitoring Analysis", map[string]string{
		"provider":   string(p.name()),
		"model":      model,
		"timeout":    callTimeout.String(),
		"session_id": sessionID,
	})
	defer span.End()

	genCtx, gen := g.tracer.StartGeneration(spanCtx, prompt)
	defer gen.End()

	text, tokens, err := p.call(genCtx, prompt)
	if err != nil {
		gen.RecordError(err)
		span.RecordError(err)
		return Result{Kind: classifyError(err), Provider: p.name(), Err: err}
	}

	gen.RecordOutput(text)

	if tokens == 0 {
		tokens = EstimateTokens(prompt, text)
	}

	return Result{Kind: KindOk, Text: text, Tokens: tokens, Provider: p.name()}
}

// classifyError distinguishes a malformed-response parse failure from a
// transient network/timeout/status failure. Every error surfaced by a
// provider's call method that isn't a parse failure is treated as
// transient, matching §9's two-bucket error model.
func classifyError(err error) ResultKind {
	if _, ok := err.(parseFailure); ok {
		return KindParseError
	}
	return KindTransientError
}

// parseFailure tags provider errors caused by a malformed response body
// rather than a network/timeout/status failure.
type parseFailure struct{ error }
