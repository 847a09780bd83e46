package logger

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MaxBodyLogged caps how much of a body is read for logging. 1 MiB.
const MaxBodyLogged = 1 << 20

var allowedHeaders = map[string]bool{
	"content-type":   true,
	"user-agent":     true,
	"content-length": true,
	"x-request-id":   true,
	"x-trace-id":     true,
	"traceparent":    true,
	"authorization":  true,
	"set-cookie":     true,
}

var redactedHeaders = map[string]bool{
	"authorization": true,
	"set-cookie":    true,
}

// CaptureBody reads up to MaxBodyLogged bytes of r.Body and replaces it with
// a reader over the same bytes.
func CaptureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyLogged))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func HeaderAttrs(hdr http.Header) []slog.Attr {
	return headerAttrs("http.header.", hdr)
}

// headerAttrs keeps allow-listed keys in sorted order and masks credentials.
// http.Header and metadata.MD share this shape.
func headerAttrs(prefix string, kv map[string][]string) []slog.Attr {
	keys := make([]string, 0, len(kv))
	for name := range kv {
		if allowedHeaders[strings.ToLower(name)] {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, name := range keys {
		lower := strings.ToLower(name)
		joined := strings.Join(kv[name], ", ")
		if redactedHeaders[lower] {
			joined = "***"
		}
		attrs = append(attrs, slog.String(prefix+lower, joined))
	}
	return attrs
}

func QueryAttrs(q url.Values) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		attrs = append(attrs, slog.String("http.query."+key, strings.Join(values, ",")))
	}
	return attrs
}

// DecodeBody turns a body into attributes according to its content type.
func DecodeBody(contentType string, body []byte) ([]slog.Attr, error) {
	if len(body) == 0 {
		return nil, nil
	}

	ct, _, _ := mime.ParseMediaType(contentType)
	switch {
	case ct == "application/json":
		return jsonAttrs("http.body", body), nil
	case ct == "application/x-www-form-urlencoded":
		return formAttrs(body)
	case strings.HasPrefix(ct, "text/"):
		return []slog.Attr{slog.String("http.body", redactIfNeeded(truncate(string(body), 512)))}, nil
	default:
		return binaryAttrs(body), nil
	}
}

func jsonAttrs(prefix string, b []byte) []slog.Attr {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String(prefix, truncate(string(b), 512))}
	}
	attrs := make([]slog.Attr, 0, 8)
	flattenJSON(prefix, data, &attrs)
	return attrs
}

// flattenJSON emits one attribute per scalar leaf. Arrays contribute only
// their first and last element.
func flattenJSON(prefix string, v any, dst *[]slog.Attr) {
	switch t := v.(type) {
	case map[string]any:
		for k, v2 := range t {
			flattenJSON(prefix+"."+k, v2, dst)
		}
	case []any:
		n := len(t)
		if n == 0 {
			return
		}
		flattenJSON(prefix+".0", t[0], dst)
		if n > 1 {
			flattenJSON(prefix+"."+strconv.Itoa(n-1), t[n-1], dst)
		}
	case string:
		*dst = append(*dst, slog.String(prefix, redactIfNeeded(t)))
	case float64:
		*dst = append(*dst, slog.Float64(prefix, t))
	case bool:
		*dst = append(*dst, slog.Bool(prefix, t))
	case nil:
	default:
		*dst = append(*dst, slog.String(prefix, fmt.Sprintf("%v", t)))
	}
}

func formAttrs(b []byte) ([]slog.Attr, error) {
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, err
	}
	attrs := make([]slog.Attr, 0, len(vals))
	for k, v := range vals {
		attrs = append(attrs, slog.String("http.body."+k, redactIfNeeded(strings.Join(v, ", "))))
	}
	return attrs, nil
}

func binaryAttrs(b []byte) []slog.Attr {
	const max = 256
	if len(b) <= max {
		return []slog.Attr{slog.String("http.body.base64", base64.StdEncoding.EncodeToString(b))}
	}
	return []slog.Attr{
		slog.Int("http.body.size_bytes", len(b)),
		slog.String("http.body.sample_base64", base64.StdEncoding.EncodeToString(b[:max])),
	}
}

func redactIfNeeded(s string) string {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "password") || strings.Contains(lower, "secret") {
		return "***"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// LogHTTPRequest builds attributes describing r. The body is captured and
// restored so handlers can still read it.
func LogHTTPRequest(r *http.Request, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}
	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)

	body, err := CaptureBody(r)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	bodyAttrs, err := DecodeBody(r.Header.Get("Content-Type"), body)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	return append(attrs, bodyAttrs...)
}

// LogHTTPResponse builds attributes describing a completed exchange.
func LogHTTPResponse(r *http.Request, header http.Header, status int, body []byte, elapsed time.Duration, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
		slog.Int("http.status", status),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	}
	attrs = append(attrs, HeaderAttrs(header)...)

	bodyAttrs, err := DecodeBody(header.Get("Content-Type"), body)
	if err != nil {
		return append(attrs, slog.String("http.body.error", err.Error()))
	}
	return append(attrs, bodyAttrs...)
}
