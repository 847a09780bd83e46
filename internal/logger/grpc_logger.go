package logger

import (
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// MetadataAttrs applies the HTTP header allow-list to gRPC metadata.
func MetadataAttrs(md metadata.MD) []slog.Attr {
	return headerAttrs("grpc.header.", md)
}

// messageAttrs flattens a protobuf message through its JSON form.
func messageAttrs(prefix string, m any) []slog.Attr {
	if m == nil {
		return nil
	}
	if pm, ok := m.(proto.Message); ok {
		if b, err := protojson.Marshal(pm); err == nil {
			return jsonAttrs(prefix, b)
		}
	}
	return []slog.Attr{slog.String(prefix, redactIfNeeded(fmt.Sprintf("%v", m)))}
}

// LogGRPCRequest builds attributes for a unary call. fullMethod has the form
// "/package.Service/Method".
func LogGRPCRequest(fullMethod string, md metadata.MD, req any, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.method", fullMethod),
	}
	attrs = append(attrs, MetadataAttrs(md)...)
	return append(attrs, messageAttrs("grpc.request", req)...)
}

func LogGRPCResponse(fullMethod string, code codes.Code, resp any, elapsed time.Duration, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("grpc.direction", direction),
		slog.String("grpc.method", fullMethod),
		slog.String("grpc.code", code.String()),
		slog.Int64("grpc.duration_ms", elapsed.Milliseconds()),
	}
	return append(attrs, messageAttrs("grpc.response", resp)...)
}
