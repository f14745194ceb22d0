// Package observability wires OpenTelemetry tracing for the redirect service.
//
// HTTP spans come from otelgin and database spans from the GORM tracing
// plugin. The service starts two span kinds of its own: slug.fetch around a
// cache miss that reaches the store, and hit.write around one persisted hit.
// Both are no-ops until SetupOTel installs a provider.
package observability

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-redirect-service/internal/config"
)

// TracerName is the instrumentation scope of spans started by this service.
const TracerName = "github.com/tbourn/go-redirect-service"

const (
	SpanSlugFetch = "slug.fetch"
	SpanHitWrite  = "hit.write"
)

// Attribute keys carried by service spans.
var (
	attrSlug          = attribute.Key("redirect.slug")
	attrDestinationID = attribute.Key("redirect.destination_id")
	attrAliasID       = attribute.Key("redirect.alias_id")
)

// Swapped in tests.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newExporter = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newResource = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer { return otel.Tracer(TracerName) }

// StartSlugFetch starts the span wrapping one store fetch for slug.
func StartSlugFetch(ctx context.Context, slug string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, SpanSlugFetch,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrSlug.String(slug)),
	)
}

// StartHitWrite starts the span wrapping one hit insert. aliasID may be nil.
// Hit writes run detached from the request, so the span is a new root.
func StartHitWrite(ctx context.Context, destinationID string, aliasID *string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attrDestinationID.String(destinationID)}
	if aliasID != nil {
		attrs = append(attrs, attrAliasID.String(*aliasID))
	}
	return Tracer().Start(ctx, SpanHitWrite,
		trace.WithNewRoot(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetupOTel installs a batching OTLP/gRPC tracer provider and the W3C
// propagators. It returns the provider's shutdown func. When tracing is
// disabled nothing is installed and the returned func is a no-op. On error
// the globals are left untouched.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newExporter(ctx, newOTLPClient(clientOptions(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := newResource(ctx, cfg.ServiceName, version)
	if err != nil {
		_ = exp.Shutdown(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func clientOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		return append(opts, otlptracegrpc.WithInsecure())
	}
	return append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
}

// sampler honors the parent's decision and samples roots by ratio. A NaN
// ratio samples everything.
func sampler(ratio float64) sdktrace.Sampler {
	if math.IsNaN(ratio) {
		ratio = 1
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
