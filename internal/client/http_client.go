package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inventory-api/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient sends JSON requests to a base URL and propagates the trace
// context of the caller.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

type RequestOptions struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{},
	}
}

func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Do sends the request and returns the raw response. Non-2xx statuses are
// not errors; inspect the returned status.
func (c *HTTPClient) Do(ctx context.Context, opts RequestOptions) (*Response[[]byte], error) {
	ctx, span := HttpClientTracer.Start(ctx, "HttpClient."+opts.Method)
	defer span.End()

	fullURL, err := c.buildURL(opts.Path, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	req.Header.Set("X-Trace-ID", span.SpanContext().TraceID().String())

	logger.Info(ctx, "HTTP", logger.LogHTTPRequest(req, "outgoing::request")...)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, logger.MaxBodyLogged))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	logger.Info(ctx, "HTTP", logger.LogHTTPResponse(req, resp.Header, resp.StatusCode, raw, time.Since(start), "outgoing::response")...)

	return &Response[[]byte]{
		Data:       raw,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    raw,
	}, nil
}

// DoJSON sends the request and decodes a 2xx body into T.
func DoJSON[T any](ctx context.Context, c *HTTPClient, opts RequestOptions) (*Response[T], error) {
	raw, err := c.Do(ctx, opts)
	if err != nil {
		return nil, err
	}

	out := &Response[T]{
		StatusCode: raw.StatusCode,
		Headers:    raw.Headers,
		RawBody:    raw.RawBody,
	}
	if !out.IsSuccess() || len(raw.RawBody) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw.RawBody, &out.Data); err != nil {
		logger.Error(ctx, "Failed to parse response", slog.String("error", err.Error()))
		return out, fmt.Errorf("parse response: %w", err)
	}
	return out, nil
}

func (c *HTTPClient) buildURL(path string, query map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response[T]) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response[T]) IsServerError() bool {
	return r.StatusCode >= 500
}
