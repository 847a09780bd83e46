package middleware_grpc

import (
	"context"
	"log/slog"
	"time"

	"inventory-api/internal/logger"
	"inventory-api/internal/tracer"

	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var grpcTracer = otel.Tracer("GrpcMiddleware")

// UnaryTracingInterceptor continues the caller's trace from the incoming
// metadata and logs each call with its outcome.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.GetTextMapPropagator().Extract(ctx, tracer.MetadataCarrier(md.Copy()))

		ctx, span := grpcTracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := logger.LogGRPCRequest(info.FullMethod, md, req, "incoming::request")
		if p, ok := peer.FromContext(ctx); ok {
			attrs = append(attrs, slog.String("grpc.remote", p.Addr.String()))
		}
		logger.Info(ctx, "GRPC", attrs...)

		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(info.FullMethod, code, resp, time.Since(start), "incoming::response")...)
		return resp, err
	}
}

// UnaryClientTracingInterceptor starts a client span and injects its context
// into the outgoing metadata.
func UnaryClientTracingInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, span := grpcTracer.Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		md, ok := metadata.FromOutgoingContext(ctx)
		if !ok {
			md = metadata.MD{}
		} else {
			md = md.Copy()
		}
		otel.GetTextMapPropagator().Inject(ctx, tracer.MetadataCarrier(md))
		ctx = metadata.NewOutgoingContext(ctx, md)

		logger.Info(ctx, "GRPC", logger.LogGRPCRequest(method, md, req, "outgoing::request")...)

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, status.Code(err).String())
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(method, status.Code(err), reply, time.Since(start), "outgoing::response")...)
		return err
	}
}
