package capture

import (
	"io"
	"net/http"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/zircuit-labs/zkr-go-capture/xerrors/stacktrace"
)

type requestOptions struct {
	capacity                   int
	capacityFromContentLength  bool
	limit                      int
	completeAfterContentLength bool
	onBodyRead                 func(*Request)
	onLimit                    func(*Request)
}

// RequestOption is an option func for NewRequest.
type RequestOption func(*requestOptions)

// WithRequestCapacity sets the initial capture buffer capacity.
func WithRequestCapacity(n int) RequestOption {
	return func(o *requestOptions) {
		o.capacity = n
	}
}

// WithRequestCapacityFromContentLength derives the initial capacity from the
// advertised Content-Length when one is present.
func WithRequestCapacityFromContentLength(enabled bool) RequestOption {
	return func(o *requestOptions) {
		o.capacityFromContentLength = enabled
	}
}

// WithRequestLimit caps how many bytes (or runes) of the body are retained.
func WithRequestLimit(n int) RequestOption {
	return func(o *requestOptions) {
		o.limit = n
	}
}

// WithCompleteAfterContentLength treats the body as fully read once the
// advertised Content-Length has passed through, even if the transport
// considers it still open.
func WithCompleteAfterContentLength(enabled bool) RequestOption {
	return func(o *requestOptions) {
		o.completeAfterContentLength = enabled
	}
}

// WithRequestBodyReadFunc sets a callback fired exactly once when the body is
// complete. It fires from inside the capturer, so it may fire mid-handler.
func WithRequestBodyReadFunc(f func(*Request)) RequestOption {
	return func(o *requestOptions) {
		o.onBodyRead = f
	}
}

// WithRequestLimitFunc sets a callback fired exactly once when the retention
// limit is first exceeded.
func WithRequestLimitFunc(f func(*Request)) RequestOption {
	return func(o *requestOptions) {
		o.onLimit = f
	}
}

// Request decorates an *http.Request so that a bounded copy of its body is
// recorded as the handler reads it. The request is unchanged except for body
// access: NewRequest installs a lazy capturing Body, and the matching
// capturer is created on first access, locking the capture mode.
type Request struct {
	req    *http.Request
	src    io.ReadCloser
	mode   Mode
	stream *Reader
	text   *TextReader
	opts   requestOptions
}

// NewRequest wraps r, replacing r.Body with a capturing body. The wrapper
// holds state for one exchange only.
func NewRequest(r *http.Request, opts ...RequestOption) *Request {
	o := requestOptions{
		capacity: DefaultCapacity,
		limit:    NoLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	src := r.Body
	if src == nil {
		src = http.NoBody
	}

	cr := &Request{req: r, src: src, opts: o}
	r.Body = &Body{req: cr}
	return cr
}

// Unwrap returns the decorated request.
func (r *Request) Unwrap() *http.Request {
	return r.req
}

// Mode returns the capture mode locked so far.
func (r *Request) Mode() Mode {
	return r.mode
}

// BodyStream returns the byte-oriented body capturer, creating it and locking
// ModeBytes on first use. It fails if the body was already accessed as text.
func (r *Request) BodyStream() (*Reader, error) {
	switch r.mode {
	case ModeText:
		return nil, modeConflict(r.mode)
	case ModeNone:
		r.mode = ModeBytes
		r.stream = NewReader(r.src,
			WithReaderCapacity(r.capacity()),
			WithReaderLimit(r.opts.limit),
			WithCompleteAfter(r.completeAfter()),
			WithReaderDoneFunc(r.fireBodyRead),
			WithReaderLimitFunc(r.fireLimit),
		)
	}
	return r.stream, nil
}

// BodyReader returns the char-oriented body capturer, creating it and locking
// ModeText on first use. The body is decoded with the charset of the request
// Content-Type, defaulting to UTF-8. It fails if the body was already
// accessed as bytes.
func (r *Request) BodyReader() (*TextReader, error) {
	switch r.mode {
	case ModeBytes:
		return nil, modeConflict(r.mode)
	case ModeNone:
		r.mode = ModeText
		r.text = NewTextReader(r.src, r.encoding(),
			WithReaderCapacity(r.capacity()),
			WithReaderLimit(r.opts.limit),
			WithCompleteAfter(r.completeAfter()),
			WithReaderDoneFunc(r.fireBodyRead),
			WithReaderLimitFunc(r.fireLimit),
		)
	}
	return r.text, nil
}

// CapturedBytes returns the retained body prefix. It fails if the body was
// accessed as text; before any access it returns nil.
func (r *Request) CapturedBytes() ([]byte, error) {
	switch r.mode {
	case ModeText:
		return nil, modeConflict(r.mode)
	case ModeNone:
		return nil, nil
	}
	return r.stream.Captured(), nil
}

// CapturedText returns the retained body prefix as text. It fails if the body
// was accessed as bytes; before any access it returns the empty string.
func (r *Request) CapturedText() (string, error) {
	switch r.mode {
	case ModeBytes:
		return "", modeConflict(r.mode)
	case ModeNone:
		return "", nil
	}
	return r.text.CapturedText(), nil
}

// CapturedBytesAsText decodes the retained byte capture with the charset of
// the request Content-Type. It is subject to the same mode gate as
// CapturedBytes.
func (r *Request) CapturedBytesAsText() (string, error) {
	b, err := r.CapturedBytes()
	if err != nil {
		return "", err
	}
	enc := r.encoding()
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
func (r *Request) TotalBodySize() int64 {
	switch r.mode {
	case ModeBytes:
		return r.stream.TotalSize()
	case ModeText:
		return r.text.TotalSize()
	}
	return 0
}

// BodyConsumed reports whether the body was read through to genuine
// end-of-stream.
func (r *Request) BodyConsumed() bool {
	switch r.mode {
	case ModeBytes:
		return r.stream.Consumed()
	case ModeText:
		return r.text.Consumed()
	}
	return false
}

// LimitReached reports whether the retention limit was exceeded.
func (r *Request) LimitReached() bool {
	switch r.mode {
	case ModeBytes:
		return r.stream.LimitReached()
	case ModeText:
		return r.text.LimitReached()
	}
	return false
}

// Drain exhausts any unread remainder of the body through the live capturer.
// If no capture mode was ever chosen, a fresh capturer is opened via the
// preferred accessor, so a capture record is produced even when the handler
// ignored the body entirely. Drain is idempotent and safe on an empty body.
// I/O failures from the transport are returned untouched.
func (r *Request) Drain(prefer Accessor) error {
	switch r.mode {
	case ModeBytes:
		return drain(r.stream)
	case ModeText:
		return drain(r.text)
	}

	if prefer == AccessorReader {
		tr, err := r.BodyReader()
		if err != nil {
			return err
		}
		return drain(tr)
	}
	s, err := r.BodyStream()
	if err != nil {
		return err
	}
	return drain(s)
}

func drain(src io.Reader) error {
	_, err := io.Copy(io.Discard, src)
	return err
}

func (r *Request) capacity() int {
	if r.opts.capacityFromContentLength && r.req.ContentLength > 0 {
		return int(r.req.ContentLength)
	}
	return r.opts.capacity
}

func (r *Request) completeAfter() int64 {
	if r.opts.completeAfterContentLength && r.req.ContentLength >= 0 {
		return r.req.ContentLength
	}
	return NoLimit
}

func (r *Request) encoding() encoding.Encoding {
	return encodingFor(r.req.Header.Get("Content-Type"))
}

func (r *Request) fireBodyRead() {
	if r.opts.onBodyRead != nil {
		r.opts.onBodyRead(r)
	}
}

func (r *Request) fireLimit() {
	if r.opts.onLimit != nil {
		r.opts.onLimit(r)
	}
}

// Body is the concrete capturing body a wrapped request carries. Reading it
// locks ModeBytes, matching handlers that consume the body directly. Other
// pipeline stages may wrap it further in delegating readers; EnsureBodyConsumed
// unwraps such layers to find it again.
type Body struct {
	req    *Request
	closed bool
}

// Read locks the byte capture mode on first use and delegates to it.
func (b *Body) Read(p []byte) (int, error) {
	s, err := b.req.BodyStream()
	if err != nil {
		return 0, err
	}
	return s.Read(p)
}

// Close closes the live capturer, or the original body if none was opened.
// Only the first call has any effect.
func (b *Body) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	switch b.req.mode {
	case ModeBytes:
		return b.req.stream.Close()
	case ModeText:
		return b.req.text.Close()
	}
	return b.req.src.Close()
}

// Request returns the owning capture wrapper.
func (b *Body) Request() *Request {
	return b.req
}
