// Package telemetry wires optional OpenTelemetry tracing for the HTTP host.
// Spans are exported to stdout; nothing is installed when tracing is off.
package telemetry

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config names the traced service.
type Config struct {
	Enabled     bool
	ServiceName string
	Instance    string
	Version     string
	// Writer receives exported spans; defaults to stdout.
	Writer io.Writer
}

// Provider owns the tracer provider and its shutdown.
type Provider struct {
	tracer   trace.TracerProvider
	shutdown func(context.Context) error
	enabled  bool
}

// Init builds the tracer provider and installs it globally when enabled.
// Exporter failures are logged and tracing stays off.
func Init(ctx context.Context, logger *zap.Logger, cfg Config) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	disabled := &Provider{
		tracer:   noop.NewTracerProvider(),
		shutdown: func(context.Context) error { return nil },
	}
	if !cfg.Enabled {
		return disabled
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "formflow"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
		attribute.String("service.instance.id", cfg.Instance),
		attribute.String("service.version", cfg.Version),
	))
	if err != nil {
		logger.Warn("telemetry: resource init failed (continuing)", zap.Error(err))
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer), stdouttrace.WithPrettyPrint())
	if err != nil {
		logger.Warn("telemetry: exporter init failed, tracing disabled", zap.Error(err))
		return disabled
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info("telemetry: tracing initialized", zap.String("service", name))
	return &Provider{tracer: tp, shutdown: tp.Shutdown, enabled: true}
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p != nil && p.enabled
}

// TracerProvider returns the provider, a no-op one when disabled.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p == nil || p.tracer == nil {
		return noop.NewTracerProvider()
	}
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}
