package middleware_http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"inventory-api/internal/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("HttpMiddleware")

const RequestIDHeader = "X-Request-ID"

// ResponseWriter records the status code and a bounded copy of the body.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	size        int64
	buf         bytes.Buffer
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	if room := logger.MaxBodyLogged - rw.buf.Len(); room > 0 {
		rw.buf.Write(b[:min(room, len(b))])
	}
	return n, err
}

func (rw *ResponseWriter) Status() int {
	return rw.statusCode
}

// TraceMiddleware continues or starts a trace for each request, tags it with
// a request id, logs the request and response, and turns a panic into a 500.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(RequestIDHeader, requestID)
		}
		span.SetAttributes(attribute.String("http.request_id", requestID))

		r = r.WithContext(ctx)
		logger.Info(ctx, "HTTP", logger.LogHTTPRequest(r, "incoming::request")...)

		rw := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		rw.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())
		rw.Header().Set(RequestIDHeader, requestID)
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic occurred")
				logger.Error(ctx, "Recovered from panic", slog.String("error", err.Error()))
				if !rw.wroteHeader {
					rw.Header().Set("Content-Type", "application/json")
					rw.WriteHeader(http.StatusInternalServerError)
					_, _ = rw.Write([]byte(`{"error":"internal server error"}` + "\n"))
				}
			}

			status := rw.statusCode
			span.SetAttributes(attribute.Int("http.status_code", status))
			switch {
			case status >= 500:
				span.SetStatus(codes.Error, "internal server error")
			case status >= 400:
				span.SetStatus(codes.Error, "client error")
			default:
				span.SetStatus(codes.Ok, "")
			}

			attrs := logger.LogHTTPResponse(r, rw.Header(), status, rw.buf.Bytes(), time.Since(start), "incoming::response")
			logger.Info(ctx, "HTTP", attrs...)
		}()

		next.ServeHTTP(rw, r)
	})
}
