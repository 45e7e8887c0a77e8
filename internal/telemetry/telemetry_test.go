package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/shaiso/Concord/internal/domain"
)

// --- Logging Tests ---

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLogger(LogConfig{Level: "INFO", Output: &buf})

	WithTarget(logger, domain.NewTargetRef("Order", "42")).Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["target"] != "Order#42" {
		t.Errorf("expected target attribute, got %v", rec["target"])
	}
}

func TestSetupLogger_TextRespectsLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLogger(LogConfig{Level: "WARN", Format: "text", Output: &buf})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at WARN, got %q", buf.String())
	}

	logger.Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte("msg=shown")) {
		t.Errorf("expected text record, got %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
}

// --- Tracing Tests ---

func TestNewTracerProvider_Disabled(t *testing.T) {
	p, err := NewTracerProvider(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Enabled() {
		t.Error("provider should be disabled")
	}

	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNewTracerProvider_UnknownExporter(t *testing.T) {
	_, err := NewTracerProvider(context.Background(), TracingConfig{Enabled: true, Exporter: "file"})
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestNewTracerProvider_NoneExporter(t *testing.T) {
	p, err := NewTracerProvider(context.Background(), TracingConfig{Enabled: true, Exporter: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Shutdown(context.Background())

	if !p.Enabled() {
		t.Error("provider should be enabled")
	}

	_, span := p.Tracer().Start(context.Background(), "work")
	if !span.SpanContext().IsValid() {
		t.Error("expected a sampled span")
	}
	span.End()
}
