package lcd

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/Cogwheel-Validator/reified-portal/lcd")

var (
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	failoverCounter metric.Int64Counter
)

func init() {
	var err error
	requestCounter, err = meter.Int64Counter("lcd.requests",
		metric.WithDescription("REST requests sent to the chain, by endpoint and outcome."),
		metric.WithUnit("{request}"))
	if err != nil {
		otel.Handle(err)
	}
	requestDuration, err = meter.Float64Histogram("lcd.request.duration",
		metric.WithDescription("Latency of single REST requests."),
		metric.WithUnit("s"))
	if err != nil {
		otel.Handle(err)
	}
	failoverCounter, err = meter.Int64Counter("lcd.failovers",
		metric.WithDescription("Switches from one REST endpoint to another."),
		metric.WithUnit("{failover}"))
	if err != nil {
		otel.Handle(err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "api_error"
	}
	return "error"
}

func recordRequest(ctx context.Context, endpoint, method string, start time.Time, err error) {
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method),
		attribute.String("outcome", outcome(err)),
	)
	requestCounter.Add(ctx, 1, attrs)
	requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
