package otel_test

import (
	"context"
	"testing"

	"github.com/louisbranch/rolltables/internal/platform/otel"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("ROLLTABLES_OTEL_ENDPOINT", "")
	t.Setenv("ROLLTABLES_OTEL_ENABLED", "true")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("ROLLTABLES_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("ROLLTABLES_OTEL_ENABLED", "false")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_RejectsMalformedSettings(t *testing.T) {
	t.Setenv("ROLLTABLES_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("ROLLTABLES_OTEL_ENABLED", "sometimes")

	shutdown, err := otel.Setup(context.Background(), "test-service")
	if err == nil {
		t.Fatal("expected settings error")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown error: %v", err)
	}
}

func TestSetupWithSettings_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no actual export happens.
	shutdown, err := otel.SetupWithSettings(context.Background(), "test-service", otel.Settings{
		Endpoint:    "http://192.0.2.1:4318",
		Enabled:     true,
		SampleRatio: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	t.Setenv("ROLLTABLES_OTEL_ENDPOINT", "")
	t.Setenv("ROLLTABLES_OTEL_ENABLED", "true")

	shutdown, err := otel.Setup(context.Background(), "noop-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
