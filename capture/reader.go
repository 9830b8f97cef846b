package capture

import (
	"io"
	"sync/atomic"
)

type readerOptions struct {
	capacity      int
	limit         int
	completeAfter int64
	onDone        func()
	onLimit       func()
}

// ReaderOption is an option func for NewReader and NewTextReader.
type ReaderOption func(*readerOptions)

// WithReaderCapacity sets the initial capture buffer capacity.
func WithReaderCapacity(n int) ReaderOption {
	return func(o *readerOptions) {
		o.capacity = n
	}
}

// WithReaderLimit caps how many bytes (or runes) are retained. NoLimit
// disables the cap. The limit never stops real data flow.
func WithReaderLimit(n int) ReaderOption {
	return func(o *readerOptions) {
		o.limit = n
	}
}

// WithCompleteAfter treats the body as fully read once n bytes (or runes)
// have passed through, even if the source has not reported end-of-stream.
// NoLimit disables the threshold.
func WithCompleteAfter(n int64) ReaderOption {
	return func(o *readerOptions) {
		o.completeAfter = n
	}
}

// WithReaderDoneFunc sets a callback fired exactly once when the body is
// complete, either at genuine end-of-stream or at the complete-after threshold.
func WithReaderDoneFunc(f func()) ReaderOption {
	return func(o *readerOptions) {
		o.onDone = f
	}
}

// WithReaderLimitFunc sets a callback fired exactly once when the retention
// limit is first exceeded. When both fire, it fires strictly before done.
func WithReaderLimitFunc(f func()) ReaderOption {
	return func(o *readerOptions) {
		o.onLimit = f
	}
}

func applyReaderOptions(opts []ReaderOption) readerOptions {
	o := readerOptions{
		capacity:      DefaultCapacity,
		limit:         NoLimit,
		completeAfter: NoLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Reader tees every byte actually read from the wrapped source into a bounded
// capture buffer before handing it to the caller. The data returned and any
// error from the source are passed through untouched.
type Reader struct {
	src           io.Reader
	buf           *buffer[byte]
	completeAfter int64
	markOffset    int64
	consumed      bool
	closed        bool
	doneFired     atomic.Bool
	limitFired    atomic.Bool
	onDone        func()
	onLimit       func()
}

// NewReader wraps src in a byte capturer.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	o := applyReaderOptions(opts)
	return &Reader{
		src:           src,
		buf:           newBuffer[byte](o.capacity, o.limit),
		completeAfter: o.completeAfter,
		onDone:        o.onDone,
		onLimit:       o.onLimit,
	}
}

// Read delegates to the source, then captures exactly the bytes returned.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		if r.buf.append(p[:n]) {
			r.fireLimit()
		}
		if r.completeAfter != NoLimit && r.buf.total >= r.completeAfter {
			r.fireDone()
		}
	}
	if err == io.EOF {
		r.consumed = true
		r.fireDone()
	}
	return n, err
}

// Mark records the current source position for a later Reset. Only sources
// implementing io.Seeker support this; bytes replayed after a Reset are
// captured again on re-read.
func (r *Reader) Mark() error {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return markUnsupported()
	}
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	r.markOffset = pos
	return nil
}

// Reset rewinds the source to the last Mark, or to its start if Mark was
// never called.
func (r *Reader) Reset() error {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return markUnsupported()
	}
	_, err := s.Seek(r.markOffset, io.SeekStart)
	return err
}

// MarkSupported reports whether the source supports Mark/Reset.
func (r *Reader) MarkSupported() bool {
	_, ok := r.src.(io.Seeker)
	return ok
}

// Close closes the source if it is a closer. Only the first call has any
// effect.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Captured returns the retained body prefix. The slice is valid until the
// next Read.
func (r *Reader) Captured() []byte {
	return r.buf.data
}

// TotalSize returns how many bytes passed through, captured or not.
func (r *Reader) TotalSize() int64 {
	return r.buf.total
}

// Consumed reports whether the source reported genuine end-of-stream. It
// stays false when completion was triggered solely by the complete-after
// threshold.
func (r *Reader) Consumed() bool {
	return r.consumed
}

// LimitReached reports whether the retention limit was exceeded.
func (r *Reader) LimitReached() bool {
	return r.buf.limitHit
}

func (r *Reader) fireDone() {
	if r.doneFired.CompareAndSwap(false, true) && r.onDone != nil {
		r.onDone()
	}
}

func (r *Reader) fireLimit() {
	if r.limitFired.CompareAndSwap(false, true) && r.onLimit != nil {
		r.onLimit()
	}
}
