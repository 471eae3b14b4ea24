package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-admin-session/internal/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/go-admin-session/pipeline"

// HTTPDispatcher issues a single HTTP call per request against a base URL.
type HTTPDispatcher struct {
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
}

// DispatcherOption configures an HTTPDispatcher.
type DispatcherOption func(*HTTPDispatcher)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *HTTPDispatcher) {
		d.client = client
	}
}

// WithTracer replaces the tracer from the global otel provider.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *HTTPDispatcher) {
		d.tracer = tracer
	}
}

// NewHTTPDispatcher creates a dispatcher for baseURL (e.g. "https://api.example.com/api/v1").
func NewHTTPDispatcher(baseURL string, timeout time.Duration, opts ...DispatcherOption) *HTTPDispatcher {
	d := &HTTPDispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handler exposes the dispatcher as the innermost Handler of a chain.
func (d *HTTPDispatcher) Handler() Handler {
	return d.Dispatch
}

// Dispatch sends req. Failures to reach the server or read its reply wrap ErrTransport;
// a request that cannot be built (bad method or URL) fails before anything is sent and does not.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := d.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	defer span.End()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, d.url(req.Path), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, fmt.Errorf("%s: %w: %w", req, apperrors.ErrTransport, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "body read error")
		return nil, fmt.Errorf("%s: read body: %w: %w", req, apperrors.ErrTransport, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if httpResp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, httpResp.Status)
	}

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   respBody,
	}, nil
}

func (d *HTTPDispatcher) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return d.baseURL + path
}
