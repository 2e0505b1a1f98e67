package interceptors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const instrumentationName = "saas-auth-core/internal/server/interceptors"

// TelemetryUnary returns a unary server interceptor that wraps each RPC in a
// span and records a request counter and duration histogram tagged with the
// full method and status code. Uses the global tracer and meter providers,
// so it is a cheap no-op until SetGlobal installs real ones.
func TelemetryUnary() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)

	requests, _ := meter.Int64Counter("rpc.server.requests",
		metric.WithDescription("Completed RPCs by method and status code"))
	duration, _ := meter.Float64Histogram("rpc.server.duration",
		metric.WithDescription("RPC handling duration"),
		metric.WithUnit("ms"))

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		start := time.Now()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := metric.WithAttributes(
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("rpc.status_code", code.String()),
		)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), attrs)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		span.SetAttributes(attribute.String("rpc.status_code", code.String()))
		span.End()
		return resp, err
	}
}
