package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInitDisabled(t *testing.T) {
	p := Init(context.Background(), nil, Config{})
	if p.Enabled() {
		t.Fatalf("expected disabled provider")
	}
	if p.TracerProvider() == nil {
		t.Fatalf("expected no-op tracer provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInitExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	p := Init(context.Background(), nil, Config{Enabled: true, ServiceName: "formflow-test", Writer: &buf})
	if !p.Enabled() {
		t.Fatalf("expected enabled provider")
	}

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "render page")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "render page") {
		t.Fatalf("expected span in output, got %q", buf.String())
	}
}
