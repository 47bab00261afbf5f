package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// LogHook forwards zerolog events to the global OpenTelemetry logger
// provider. Only the level and message are forwarded, zerolog does not
// expose the fields of an event to hooks.
type LogHook struct {
	name      string
	component string
}

// NewLogHook returns a hook emitting under the instrumentation scope name.
// component, when set, is attached to every record.
func NewLogHook(name, component string) LogHook {
	return LogHook{name: name, component: component}
}

func (h LogHook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	severity, ok := severityOf(level)
	if !ok {
		return
	}

	ctx := e.GetCtx()
	if ctx == nil {
		ctx = context.Background()
	}

	var record otellog.Record
	record.SetTimestamp(time.Now())
	record.SetSeverity(severity)
	record.SetSeverityText(level.String())
	record.SetBody(otellog.StringValue(message))
	if h.component != "" {
		record.AddAttributes(otellog.String("component", h.component))
	}
	global.GetLoggerProvider().Logger(h.name).Emit(ctx, record)
}

func severityOf(level zerolog.Level) (otellog.Severity, bool) {
	switch level {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace, true
	case zerolog.DebugLevel:
		return otellog.SeverityDebug, true
	case zerolog.InfoLevel:
		return otellog.SeverityInfo, true
	case zerolog.WarnLevel:
		return otellog.SeverityWarn, true
	case zerolog.ErrorLevel:
		return otellog.SeverityError, true
	case zerolog.FatalLevel:
		return otellog.SeverityFatal, true
	case zerolog.PanicLevel:
		return otellog.SeverityFatal4, true
	}
	return otellog.SeverityUndefined, false
}
