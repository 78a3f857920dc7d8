package tracing

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nervesparksdev05/aidevops-monitor/pkg/config"
)

// Provider owns the process-wide OTel SDK tracer provider. It is the
// concrete backend behind the lazily-resolved Tracer values handed out by
// New; installing one makes otel.Tracer calls elsewhere in the process emit
// real spans instead of no-ops.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider builds and installs the global TracerProvider from the
// resolved tracing credentials, standing in for the source's
// initialize_langfuse (app/services/langfuse_service.py): a disabled
// config (missing host/keys) is not an error, it simply yields a Provider
// whose Shutdown is a no-op and whose spans go nowhere, per §4.3's
// tolerant-of-absence contract.
func NewProvider(ctx context.Context, cfg config.TracingConfig, serviceName string) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	auth := base64.StdEncoding.EncodeToString([]byte(cfg.PublicKey + ":" + cfg.SecretKey))
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint+"/api/public/otel"),
		otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Basic " + auth,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("build otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans and releases the exporter, the tracing
// half of §4.9's shutdown ordering. Safe to call on a disabled Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
