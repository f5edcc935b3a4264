package gateway

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader carries the per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

const defaultTracerName = "github.com/MrEthical07/goSession/gateway"

// RequestID stamps each request with a fresh UUID unless the caller already set one.
func RequestID() Interceptor {
	return InterceptorFuncs{
		Before: func(req *http.Request) *http.Request {
			if req.Header.Get(RequestIDHeader) == "" {
				req.Header.Set(RequestIDHeader, uuid.NewString())
			}
			return req
		},
	}
}

// Tracing opens a client span per call and propagates its context in the request headers.
// A nil provider uses the global OpenTelemetry tracer provider.
func Tracing(provider trace.TracerProvider) Interceptor {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(defaultTracerName)
	propagator := otel.GetTextMapPropagator()

	return InterceptorFuncs{
		Before: func(req *http.Request) *http.Request {
			ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method+" "+req.URL.Path,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("url.path", req.URL.Path),
					attribute.String("server.address", req.URL.Host),
				),
			)
			if id := req.Header.Get(RequestIDHeader); id != "" {
				span.SetAttributes(attribute.String("http.request.id", id))
			}
			out := req.WithContext(ctx)
			propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))
			return out
		},
		After: func(req *http.Request, resp *http.Response, err error) {
			span := trace.SpanFromContext(req.Context())
			defer span.End()
			if !span.IsRecording() {
				return
			}

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return
			}
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if resp.StatusCode >= 400 {
				span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
			}
		},
	}
}
