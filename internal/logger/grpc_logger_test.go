package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestMetadataAttrs(t *testing.T) {
	md := metadata.Pairs(
		"authorization", "Bearer secret",
		"x-request-id", "req-1",
		"x-internal", "dropped",
	)

	attrs := MetadataAttrs(md)

	assert.Len(t, attrs, 2)
	assert.Equal(t, "grpc.header.authorization", attrs[0].Key)
	assert.Equal(t, map[string]string{
		"grpc.header.authorization": "***",
		"grpc.header.x-request-id":  "req-1",
	}, attrMap(attrs))
}

func TestLogGRPCRequestAndResponse(t *testing.T) {
	req := LogGRPCRequest("/grpc.health.v1.Health/Check", nil, &healthpb.HealthCheckRequest{Service: "inventory-api"}, "incoming::request")
	got := attrMap(req)
	assert.Equal(t, "incoming::request", got["grpc.direction"])
	assert.Equal(t, "inventory-api", got["grpc.request.service"])

	resp := LogGRPCResponse("/grpc.health.v1.Health/Check", codes.OK,
		&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, 3*time.Millisecond, "incoming::response")
	got = attrMap(resp)
	assert.Equal(t, "OK", got["grpc.code"])
	assert.Equal(t, "SERVING", got["grpc.response.status"])
	assert.Equal(t, "3", got["grpc.duration_ms"])
}
