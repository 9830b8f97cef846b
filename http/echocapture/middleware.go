// Package echocapture installs body capturing wrappers around each exchange
// handled by an echo server, recording a bounded copy of the request and
// response bodies as a pure side channel: handlers observe and produce
// exactly what they would without it.
package echocapture

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/zircuit-labs/zkr-go-capture/capture"
	"github.com/zircuit-labs/zkr-go-capture/config"
	"github.com/zircuit-labs/zkr-go-capture/log"
	"github.com/zircuit-labs/zkr-go-capture/store"
	"github.com/zircuit-labs/zkr-go-capture/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-capture/xerrors/stacktrace"
)

const (
	requestContextKey  = "zkr-capture-request"
	responseContextKey = "zkr-capture-response"
)

type middlewareConfig struct {
	InitialRequestCapacity                  int  `koanf:"initial-request-capacity"`
	InitialRequestCapacityFromContentLength bool `koanf:"initial-request-capacity-from-content-length"`
	RequestLimit                            int  `koanf:"request-limit"`
	ConsiderRequestReadAfterContentLength   bool `koanf:"consider-request-read-after-content-length"`
	EnsureRequestBodyConsumed               bool `koanf:"ensure-request-body-consumed"`
	InitialResponseCapacity                 int  `koanf:"initial-response-capacity"`
	ResponseLimit                           int  `koanf:"response-limit"`
}

func (c middlewareConfig) validate() error {
	capacities := map[string]int{
		"initial-request-capacity":  c.InitialRequestCapacity,
		"initial-response-capacity": c.InitialResponseCapacity,
	}
	for name, v := range capacities {
		if v < 0 {
			return configErr(name, v)
		}
	}

	// limits accept the explicit unlimited sentinel
	limits := map[string]int{
		"request-limit":  c.RequestLimit,
		"response-limit": c.ResponseLimit,
	}
	for name, v := range limits {
		if v < 0 && v != capture.NoLimit {
			return configErr(name, v)
		}
	}
	return nil
}

func configErr(name string, v int) error {
	return errclass.WrapAs(stacktrace.Wrap(
		fmt.Errorf("option %q must not be negative, got %d", name, v),
	), errclass.Persistent)
}

type options struct {
	listener  Listener
	logger    *slog.Logger
	drainWith capture.Accessor
	archive   *store.Store
}

// Option is an option func for Middleware.
type Option func(*options)

// WithListener sets the lifecycle listener.
func WithListener(l Listener) Option {
	return func(o *options) {
		o.listener = l
	}
}

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDrainAccessor sets which capturer a forced drain opens when the handler
// never touched the body. The default is the byte stream.
func WithDrainAccessor(a capture.Accessor) Option {
	return func(o *options) {
		o.drainWith = a
	}
}

// WithStore archives each completed exchange into the given store.
func WithStore(s *store.Store) Option {
	return func(o *options) {
		o.archive = s
	}
}

// Middleware builds the capturing pipeline stage from configuration rooted at
// cfgPath. Invalid option values fail immediately. A nil cfg uses defaults:
// unlimited retention, no forced drain.
func Middleware(cfg *config.Configuration, cfgPath string, opts ...Option) (echo.MiddlewareFunc, error) {
	mcfg := middlewareConfig{
		InitialRequestCapacity:  capture.DefaultCapacity,
		InitialResponseCapacity: capture.DefaultCapacity,
		RequestLimit:            capture.NoLimit,
		ResponseLimit:           capture.NoLimit,
	}
	if cfg != nil {
		if err := cfg.Unmarshal(cfgPath, &mcfg); err != nil {
			return nil, err
		}
	}
	if err := mcfg.validate(); err != nil {
		return nil, err
	}

	o := options{
		listener:  NopListener{},
		logger:    log.NewNilLogger(),
		drainWith: capture.AccessorStream,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := capture.NewRequest(c.Request(),
				capture.WithRequestCapacity(mcfg.InitialRequestCapacity),
				capture.WithRequestCapacityFromContentLength(mcfg.InitialRequestCapacityFromContentLength),
				capture.WithRequestLimit(mcfg.RequestLimit),
				capture.WithCompleteAfterContentLength(mcfg.ConsiderRequestReadAfterContentLength),
				capture.WithRequestBodyReadFunc(o.listener.OnRequestBodyRead),
				capture.WithRequestLimitFunc(o.listener.OnRequestLimitReached),
			)

			res := c.Response()
			rw := capture.NewResponseWriter(res.Writer,
				capture.WithResponseCapacity(mcfg.InitialResponseCapacity),
				capture.WithResponseLimit(mcfg.ResponseLimit),
			)
			res.Writer = rw

			c.Set(requestContextKey, req)
			c.Set(responseContextKey, rw)

			// Handler failures propagate untouched; capturing must never
			// alter the outcome of the exchange.
			if err := next(c); err != nil {
				return err
			}

			if mcfg.EnsureRequestBodyConsumed {
				if err := capture.EnsureBodyConsumed(c.Request(), o.drainWith); err != nil {
					return err
				}
			}

			// Other stages may have wrapped the writer again; walk back down
			// to ours. Response events fire only if something was written.
			if crw, ok := capture.FindResponseWriter(c.Response().Writer); ok && crw.Mode() != capture.ModeNone {
				if crw.LimitReached() {
					o.listener.OnResponseLimitReached(crw, req)
				}
				o.listener.OnResponseBodyProduced(crw, req)
			}

			if o.archive != nil {
				id := o.archive.Add(record(c, req, rw))
				o.logger.Debug("exchange archived",
					slog.String("id", id),
					slog.Int64("request_size", req.TotalBodySize()),
					slog.Int64("response_size", rw.TotalBodySize()),
				)
			}

			return nil
		}
	}, nil
}

// RequestFromContext returns the capturing request wrapper installed for this
// exchange, if any.
func RequestFromContext(c echo.Context) (*capture.Request, bool) {
	req, ok := c.Get(requestContextKey).(*capture.Request)
	return req, ok
}

// ResponseFromContext returns the capturing response writer installed for
// this exchange, if any.
func ResponseFromContext(c echo.Context) (*capture.ResponseWriter, bool) {
	rw, ok := c.Get(responseContextKey).(*capture.ResponseWriter)
	return rw, ok
}

func record(c echo.Context, req *capture.Request, rw *capture.ResponseWriter) store.Record {
	return store.Record{
		Method:       c.Request().Method,
		Path:         c.Request().URL.Path,
		Status:       rw.StatusCode(),
		RequestBody:  capturedBody(req.Mode(), req.CapturedBytes, req.CapturedText),
		ResponseBody: capturedBody(rw.Mode(), rw.CapturedBytes, rw.CapturedText),
		RequestSize:  req.TotalBodySize(),
		ResponseSize: rw.TotalBodySize(),
	}
}

// capturedBody flattens either capture representation to bytes for archiving.
func capturedBody(mode capture.Mode, bytesOf func() ([]byte, error), textOf func() (string, error)) []byte {
	switch mode {
	case capture.ModeBytes:
		b, _ := bytesOf()
		return b
	case capture.ModeText:
		s, _ := textOf()
		return []byte(s)
	}
	return nil
}
