package httppresentation

import (
	"strconv"
	"time"

	"github.com/Zhima-Mochi/marketplace/internal/observability"
	"github.com/Zhima-Mochi/marketplace/internal/observability/logctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID = "X-Request-ID"
	tracerName      = "marketplace.http"
	unmatchedRoute  = "unmatched"
)

// routeOf returns the registered route template, which keeps metric labels
// low-cardinality.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return unmatchedRoute
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func withTrace() gin.HandlerFunc {
	prop := otel.GetTextMapPropagator()
	return func(c *gin.Context) {
		parent := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		route := routeOf(c)

		ctx, span := otel.Tracer(tracerName).Start(parent,
			c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", c.Request.URL.Path),
				attribute.String("http.user_agent", c.Request.UserAgent()),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
	}
}

// withObservability injects the request-scoped logger (dynamic fields only),
// echoes X-Request-ID, and records HTTP metrics with low-cardinality labels.
func withObservability(base observability.Logger, tel observability.Observability) gin.HandlerFunc {
	m := tel.Metrics()
	requests := m.Counter(observability.MHTTPRequests)
	durations := m.Histogram(observability.MHTTPRequestDuration)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sc := trace.SpanContextFromContext(ctx)

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		if sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		c.Request = c.Request.WithContext(logctx.WithFields(ctx, base, fields...))

		start := time.Now()
		c.Next()

		labels := []observability.Label{
			observability.L("method", c.Request.Method),
			observability.L("route", routeOf(c)),
			observability.L("status", strconv.Itoa(c.Writer.Status())),
		}
		requests.Add(1, labels...)
		durations.Observe(time.Since(start).Seconds(), labels...)
	}
}

// withAccessLog writes a single access log after the handler completes.
func withAccessLog(fallback observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []observability.Field{
			observability.F("method", c.Request.Method),
			observability.F("route", routeOf(c)),
			observability.F("path", c.Request.URL.Path),
			observability.F("status", c.Writer.Status()),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.F("error", c.Errors.String()))
		}
		logctx.FromOr(c.Request.Context(), fallback).Info("http_access", fields...)
	}
}

// withRecovery turns handler panics into a 500 envelope and an error log.
func withRecovery(fallback observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logctx.FromOr(c.Request.Context(), fallback).Error("http_panic",
					observability.F("panic", r),
					observability.F("route", routeOf(c)),
				)
				c.AbortWithStatusJSON(500, errorBody{Message: msgInternal})
			}
		}()
		c.Next()
	}
}
