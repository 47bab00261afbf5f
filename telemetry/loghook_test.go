package telemetry

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/zeebo/assert"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type emitted struct {
	body     string
	severity otellog.Severity
}

type recordingExporter struct {
	mu      sync.Mutex
	records []emitted
}

func (e *recordingExporter) Export(ctx context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, emitted{body: r.Body().AsString(), severity: r.Severity()})
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func TestLogHookForwardsEvents(t *testing.T) {
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	global.SetLoggerProvider(provider)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	logger := zerolog.New(io.Discard).Hook(NewLogHook("test", "rpc"))
	logger.Warn().Str("ignored", "field").Msg("endpoint unhealthy")
	logger.Info().Msg("server starting")
	logger.Log().Msg("no level")

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	assert.Equal(t, len(exporter.records), 2)
	assert.Equal(t, exporter.records[0], emitted{body: "endpoint unhealthy", severity: otellog.SeverityWarn})
	assert.Equal(t, exporter.records[1], emitted{body: "server starting", severity: otellog.SeverityInfo})
}

func TestSeverityOf(t *testing.T) {
	severity, ok := severityOf(zerolog.ErrorLevel)
	assert.True(t, ok)
	assert.Equal(t, severity, otellog.SeverityError)

	_, ok = severityOf(zerolog.NoLevel)
	assert.False(t, ok)
	_, ok = severityOf(zerolog.Disabled)
	assert.False(t, ok)
}
