package telemetry

import (
	"context"
	"testing"
)

func TestSetupTracingNoneIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{ServiceName: "test", Exporter: "none"})
	if err != nil {
		t.Fatalf("setup tracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := SetupTracing(context.Background(), TracingConfig{Exporter: "zipkin"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
