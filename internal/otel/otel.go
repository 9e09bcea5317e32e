package otel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playbook-ai/playbook-ai/internal/config"
	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

// ShutdownFunc flushes and stops the telemetry providers
type ShutdownFunc func(ctx context.Context) error

// SetupOTEL installs the global tracer and log providers. When telemetry is
// disabled the no-op globals stay in place and the shutdown function does nothing.
func SetupOTEL(ctx context.Context, cfg *config.OTELConfig, serviceName string, version string, logger *slog.Logger) (ShutdownFunc, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("OpenTelemetry is disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := newResource(ctx, cfg, serviceName, version)
	if err != nil {
		return nil, err
	}

	exporter, err := newTraceExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	shutdowns := []ShutdownFunc{tracerProvider.Shutdown}

	if cfg.EnableLogs {
		logExporter, err := stdoutlog.New()
		if err != nil {
			return nil, err
		}
		loggerProvider := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(loggerProvider)
		shutdowns = append(shutdowns, loggerProvider.Shutdown)
	}

	logger.Info("OpenTelemetry enabled", "exporter", cfg.ExporterType, "endpoint", cfg.ExporterEndpoint, "logs", cfg.EnableLogs)

	return func(ctx context.Context) error {
		var errs []error
		for _, shutdown := range shutdowns {
			errs = append(errs, shutdown(ctx))
		}
		return errors.Join(errs...)
	}, nil
}

func newResource(ctx context.Context, cfg *config.OTELConfig, serviceName string, version string) (*resource.Resource, error) {
	opts := []resource.Option{
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
		resource.WithProcess(),
		resource.WithHost(),
	}
	if cfg.DetectECS {
		opts = append(opts, resource.WithDetectors(ecs.NewResourceDetector()))
	}
	return resource.New(ctx, opts...)
}

func newTraceExporter(ctx context.Context, cfg *config.OTELConfig) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case "", ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{}
		if cfg.ExporterEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.ExporterEndpoint))
		}
		if cfg.ExporterInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case ExporterOTLPHTTP:
		opts := []otlptracehttp.Option{}
		if cfg.ExporterEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.ExporterEndpoint))
		}
		if cfg.ExporterInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OpenTelemetry exporter type %q", cfg.ExporterType)
	}
}
