// Package log provides slog loggers backed by zerolog with standard defaults.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	slogcommon "github.com/samber/slog-common"
	slogzerolog "github.com/samber/slog-zerolog/v2"

	"github.com/zircuit-labs/zkr-go-capture/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-capture/xerrors/stacktrace"
)

const (
	ErrorKey      = "error"
	SourceKey     = "source"
	StackTraceKey = "stacktrace"
	ErrClassKey   = "class"
)

// Identity identifies a running service instance.
type Identity struct {
	ServiceName string
	InstanceID  string
}

func (i Identity) String() string {
	return fmt.Sprintf("%s-%s", i.ServiceName, i.InstanceID)
}

var (
	logLevel = &slog.LevelVar{}
	identity = Identity{
		ServiceName: "unknown",
		InstanceID:  xid.New().String(),
	}
)

// WhoAmI returns the identity of this instance.
func WhoAmI() Identity {
	return identity
}

// SetLogLevel sets the global log level from its text form (eg "debug").
func SetLogLevel(level string) error {
	if level != "" {
		return logLevel.UnmarshalText([]byte(level))
	}
	return nil
}

// ErrAttr is a helper for logging error values.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// NewTestLogger creates a new logger for testing.
// NOTE: Since this logger uses the testing t.Log method, it only emits when
// the test fails, and panics if used after the test has completed. The latter
// can be helpful for finding goroutine leaks.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slogt.New(t, slogt.JSON()).With(slog.String("test", t.Name()))
}

// NewLogger creates a new slog logger backed by zerolog with standard defaults.
func NewLogger(serviceName string) *slog.Logger {
	// ms granularity should be sufficient
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	identity.ServiceName = serviceName

	zlogger := zerolog.
		New(os.Stdout).With().                // log to stdout not stderr
		Timestamp().                          // include timestamp
		Str("service", identity.ServiceName). // include the service name
		Str("instance", identity.InstanceID). // include unique id for instance
		Logger()

	return slog.New(slogzerolog.Option{
		Converter: converter,
		Level:     logLevel,
		Logger:    &zlogger,
	}.NewZerologHandler())
}

// converter mirrors slogcommon.DefaultConverter, except that error attributes
// are expanded with their class and stack trace when present.
func converter(addSource bool, replaceAttr func(groups []string, a slog.Attr) slog.Attr, loggerAttr []slog.Attr, groups []string, record *slog.Record) map[string]any {
	attrs := slogcommon.AppendRecordAttrsToAttrs(loggerAttr, groups, record)
	attrs = expandErrors(attrs)
	if addSource {
		attrs = append(attrs, slogcommon.Source(SourceKey, record))
	}
	attrs = slogcommon.ReplaceAttrs(replaceAttr, []string{}, attrs...)
	return slogcommon.AttrsToMap(attrs...)
}

// expandErrors replaces any top-level "error" attribute holding an error
// value with its message, and appends an "error_context" group carrying the
// error class and stack trace when those exist.
func expandErrors(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key != ErrorKey {
			out = append(out, a)
			continue
		}

		err, ok := a.Value.Any().(error)
		if !ok || err == nil {
			out = append(out, a)
			continue
		}

		out = append(out, slog.String(ErrorKey, err.Error()))

		var ctx []any
		if trace := stacktrace.Marshal(err); trace != nil {
			ctx = append(ctx, slog.Any(StackTraceKey, trace))
		}
		if class := errclass.GetClass(err); class != errclass.Unknown {
			ctx = append(ctx, slog.String(ErrClassKey, class.String()))
		}
		if len(ctx) > 0 {
			out = append(out, slog.Group("error_context", ctx...))
		}
	}
	return out
}
