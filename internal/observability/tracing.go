package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"homestead/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "homestead-api"

// Tracer is the tracer used by services and the HTTP middleware.
var Tracer trace.Tracer = otel.Tracer(tracerName)

// TracingConfig selects where spans go. Exporter is "stdout", "otlp" or
// "none".
type TracingConfig struct {
	ServiceVersion string
	Environment    string
	StorageDriver  string
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	SamplerRatio   float64

	// Writer receives stdout exporter output. Defaults to os.Stdout.
	Writer io.Writer
}

// TracingConfigFrom maps application config onto TracingConfig.
func TracingConfigFrom(cfg *config.Config, version string) TracingConfig {
	return TracingConfig{
		ServiceVersion: version,
		Environment:    cfg.Env,
		StorageDriver:  cfg.StorageDriver,
		Enabled:        cfg.TracingEnabled,
		Exporter:       strings.ToLower(strings.TrimSpace(cfg.TracingExporter)),
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	}
}

// InitTracing installs the global tracer provider and W3C propagators. The
// returned func flushes pending spans and stops the provider.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled || cfg.Exporter == "none" {
		Tracer = otel.Tracer(tracerName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(tracingResource(cfg)),
		sdktrace.WithSampler(samplerFor(cfg.SamplerRatio)),
	)
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer(tracerName)

	return func(ctx context.Context) error {
		return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
	}, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", "stdout":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	case "otlp":
		opts, err := otlpOptions(cfg.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported TRACING_EXPORTER %q", cfg.Exporter)
	}
}

// otlpOptions accepts either host:port (plain HTTP) or a full http(s) URL.
func otlpOptions(endpoint string) ([]otlptracehttp.Option, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("OTLP_ENDPOINT is required for the otlp exporter")
	}
	if !strings.Contains(endpoint, "://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure()}, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid OTLP_ENDPOINT %q", endpoint)
	}
	switch u.Scheme {
	case "https":
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}, nil
	case "http":
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint), otlptracehttp.WithInsecure()}, nil
	default:
		return nil, fmt.Errorf("invalid OTLP_ENDPOINT scheme %q", u.Scheme)
	}
}

func tracingResource(cfg TracingConfig) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(tracerName),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}
	if cfg.StorageDriver != "" {
		attrs = append(attrs, attribute.String("homestead.storage.driver", cfg.StorageDriver))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// samplerFor honours upstream sampling decisions and samples new traces at
// ratio. Ratios outside (0, 1) clamp to never or always.
func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// StartServiceSpan starts an internal span named "<service>.<method>".
func StartServiceSpan(ctx context.Context, serviceName, method string) (context.Context, trace.Span) {
	ctx, span := Tracer.Start(ctx, serviceName+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("rpc.service", serviceName),
		attribute.String("rpc.method", method),
	)
	return ctx, span
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
