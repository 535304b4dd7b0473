// ABOUTME: OpenTelemetry tracer provider for outgoing API calls
// ABOUTME: Exports spans as JSON to a file and installs W3C trace propagation

package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName identifies this client in exported spans
const ServiceName = "crediteval"

// Provider owns the installed tracer provider and its output
type Provider struct {
	provider *sdktrace.TracerProvider
	out      io.Closer
}

// Setup installs a global tracer provider writing spans to path.
func Setup(path string) (*Provider, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	exporter, err := stdout.New(stdout.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}

	p := install(sdktrace.WithBatcher(exporter))
	p.out = f
	return p, nil
}

func install(opt sdktrace.TracerProviderOption) *Provider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		opt,
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceNameKey.String(ServiceName),
			)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return &Provider{provider: tp}
}

// Tracer returns a named tracer from this provider
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.provider.Tracer(name)
}

// Shutdown flushes pending spans and closes the output file
func (p *Provider) Shutdown(ctx context.Context) error {
	err := p.provider.Shutdown(ctx)
	if p.out != nil {
		if cerr := p.out.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
