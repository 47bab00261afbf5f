package lcd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zeebo/assert"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("/x: %w", ErrNotFound), "not_found"},
		{context.DeadlineExceeded, "canceled"},
		{&APIError{StatusCode: 500, Code: 2, Message: "boom"}, "api_error"},
		{errors.New("connection refused"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, outcome(tt.err), tt.want)
	}
}

func TestRequestsAreMetered(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewWithFailover(srv.URL, nil, FailoverConfig{Timeout: time.Second})
	assert.NoError(t, err)
	defer client.Close()

	var out map[string]any
	assert.NoError(t, client.Get(context.Background(), "/status", &out))

	var rm metricdata.ResourceMetrics
	assert.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "lcd.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			assert.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, total, int64(1))
}
