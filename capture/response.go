package capture

import (
	"net/http"

	"golang.org/x/text/transform"

	"github.com/zircuit-labs/zkr-go-capture/xerrors/stacktrace"
)

type responseOptions struct {
	capacity int
	limit    int
	onLimit  func(*ResponseWriter)
}

// ResponseOption is an option func for NewResponseWriter.
type ResponseOption func(*responseOptions)

// WithResponseCapacity sets the initial capture buffer capacity.
func WithResponseCapacity(n int) ResponseOption {
	return func(o *responseOptions) {
		o.capacity = n
	}
}

// WithResponseLimit caps how many bytes (or runes) of the body are retained.
func WithResponseLimit(n int) ResponseOption {
	return func(o *responseOptions) {
		o.limit = n
	}
}

// WithResponseLimitFunc sets a callback fired exactly once when the retention
// limit is first exceeded.
func WithResponseLimitFunc(f func(*ResponseWriter)) ResponseOption {
	return func(o *responseOptions) {
		o.onLimit = f
	}
}

// ResponseWriter decorates an http.ResponseWriter so that a bounded copy of
// the body is recorded as the handler produces it. The response is unchanged
// except for body access: writing bytes locks ModeBytes, TextBody locks
// ModeText, and the matching capturer is created lazily on first use.
type ResponseWriter struct {
	w      http.ResponseWriter
	status int
	mode   Mode
	stream *Writer
	text   *TextWriter
	opts   responseOptions
}

// NewResponseWriter wraps w. The wrapper holds state for one exchange only.
func NewResponseWriter(w http.ResponseWriter, opts ...ResponseOption) *ResponseWriter {
	o := responseOptions{
		capacity: DefaultCapacity,
		limit:    NoLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &ResponseWriter{w: w, opts: o}
}

// Header returns the header map of the decorated writer.
func (rw *ResponseWriter) Header() http.Header {
	return rw.w.Header()
}

// WriteHeader records the status code and forwards it.
func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.status = statusCode
	rw.w.WriteHeader(statusCode)
}

// Write locks the byte capture mode on first use and tees p through it.
func (rw *ResponseWriter) Write(p []byte) (int, error) {
	s, err := rw.BodyStream()
	if err != nil {
		return 0, err
	}
	return s.Write(p)
}

// BodyStream returns the byte-oriented body capturer, creating it and locking
// ModeBytes on first use. It fails if the body was already produced as text.
func (rw *ResponseWriter) BodyStream() (*Writer, error) {
	switch rw.mode {
	case ModeText:
		return nil, modeConflict(rw.mode)
	case ModeNone:
		rw.mode = ModeBytes
		rw.stream = NewWriter(rw.w,
			WithWriterCapacity(rw.opts.capacity),
			WithWriterLimit(rw.opts.limit),
			WithWriterLimitFunc(rw.fireLimit),
		)
	}
	return rw.stream, nil
}

// TextBody returns the char-oriented body capturer, creating it and locking
// ModeText on first use. Output is encoded with the charset of the response
// Content-Type header as set at that moment, defaulting to UTF-8. It fails
// if the body was already produced as bytes.
func (rw *ResponseWriter) TextBody() (*TextWriter, error) {
	switch rw.mode {
	case ModeBytes:
		return nil, modeConflict(rw.mode)
	case ModeNone:
		rw.mode = ModeText
		rw.text = NewTextWriter(rw.w, encodingFor(rw.w.Header().Get("Content-Type")),
			WithWriterCapacity(rw.opts.capacity),
			WithWriterLimit(rw.opts.limit),
			WithWriterLimitFunc(rw.fireLimit),
		)
	}
	return rw.text, nil
}

// Reset discards the capture in lockstep with the caller discarding the real
// output, clearing both the buffer and the total counter.
func (rw *ResponseWriter) Reset() {
	switch rw.mode {
	case ModeBytes:
		rw.stream.Reset()
	case ModeText:
		rw.text.Reset()
	}
}

// CapturedBytes returns the retained body prefix. It fails if the body was
// produced as text; before anything was written it returns nil.
func (rw *ResponseWriter) CapturedBytes() ([]byte, error) {
	switch rw.mode {
	case ModeText:
		return nil, modeConflict(rw.mode)
	case ModeNone:
		return nil, nil
	}
	return rw.stream.Captured(), nil
}

// CapturedText returns the retained body prefix as text. It fails if the body
// was produced as bytes; before anything was written it returns the empty
// string.
func (rw *ResponseWriter) CapturedText() (string, error) {
	switch rw.mode {
	case ModeBytes:
		return "", modeConflict(rw.mode)
	case ModeNone:
		return "", nil
	}
	return rw.text.CapturedText(), nil
}

// CapturedBytesAsText decodes the retained byte capture with the charset of
// the response Content-Type. It is subject to the same mode gate as
// CapturedBytes.
func (rw *ResponseWriter) CapturedBytesAsText() (string, error) {
	b, err := rw.CapturedBytes()
	if err != nil {
		return "", err
	}
	enc := encodingFor(rw.w.Header().Get("Content-Type"))
	if enc == nil {
		return string(b), nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", stacktrace.Wrap(err)
	}
	return string(decoded), nil
}

// TotalBodySize returns how many bytes (or runes) of the body passed through,
// captured or not.
func (rw *ResponseWriter) TotalBodySize() int64 {
	switch rw.mode {
	case ModeBytes:
		return rw.stream.TotalSize()
	case ModeText:
		return rw.text.TotalSize()
	}
	return 0
}

// LimitReached reports whether the retention limit was exceeded.
func (rw *ResponseWriter) LimitReached() bool {
	switch rw.mode {
	case ModeBytes:
		return rw.stream.LimitReached()
	case ModeText:
		return rw.text.LimitReached()
	}
	return false
}

// Mode returns the capture mode locked so far.
func (rw *ResponseWriter) Mode() Mode {
	return rw.mode
}

// StatusCode returns the recorded status code, defaulting to 200 when the
// handler never called WriteHeader explicitly.
func (rw *ResponseWriter) StatusCode() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// Flush forwards to the decorated writer when it supports flushing.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the decorated writer, following the convention used by
// http.ResponseController.
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.w
}

func (rw *ResponseWriter) fireLimit() {
	if rw.opts.onLimit != nil {
		rw.opts.onLimit(rw)
	}
}

// FindResponseWriter walks w through any number of delegating wrapper layers,
// each exposing its delegate via Unwrap, until a capturing writer is found or
// none remains.
func FindResponseWriter(w http.ResponseWriter) (*ResponseWriter, bool) {
	for w != nil {
		if rw, ok := w.(*ResponseWriter); ok {
			return rw, true
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return nil, false
		}
		w = u.Unwrap()
	}
	return nil, false
}
