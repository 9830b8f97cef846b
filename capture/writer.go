package capture

import (
	"io"
	"sync/atomic"
)

type writerOptions struct {
	capacity int
	limit    int
	onLimit  func()
}

// WriterOption is an option func for NewWriter and NewTextWriter.
type WriterOption func(*writerOptions)

// WithWriterCapacity sets the initial capture buffer capacity.
func WithWriterCapacity(n int) WriterOption {
	return func(o *writerOptions) {
		o.capacity = n
	}
}

// WithWriterLimit caps how many bytes (or runes) are retained. NoLimit
// disables the cap. The limit never stops real data flow.
func WithWriterLimit(n int) WriterOption {
	return func(o *writerOptions) {
		o.limit = n
	}
}

// WithWriterLimitFunc sets a callback fired exactly once when the retention
// limit is first exceeded.
func WithWriterLimitFunc(f func()) WriterOption {
	return func(o *writerOptions) {
		o.onLimit = f
	}
}

func applyWriterOptions(opts []WriterOption) writerOptions {
	o := writerOptions{
		capacity: DefaultCapacity,
		limit:    NoLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Writer tees every byte written through it into a bounded capture buffer,
// then forwards it to the destination unchanged. Completion is decided by
// the owner of the exchange, not by the writer itself.
type Writer struct {
	dst        io.Writer
	buf        *buffer[byte]
	limitFired atomic.Bool
	onLimit    func()
}

// NewWriter wraps dst in a byte capturer.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	o := applyWriterOptions(opts)
	return &Writer{
		dst:     dst,
		buf:     newBuffer[byte](o.capacity, o.limit),
		onLimit: o.onLimit,
	}
}

// Write captures p, then forwards it unmodified.
func (w *Writer) Write(p []byte) (int, error) {
	if w.buf.append(p) {
		w.fireLimit()
	}
	return w.dst.Write(p)
}

// Reset discards the capture, clearing both the buffer and the total counter.
// It may be used at any point before the real output is committed.
func (w *Writer) Reset() {
	w.buf.reset()
}

// Captured returns the retained body prefix. The slice is valid until the
// next Write or Reset.
func (w *Writer) Captured() []byte {
	return w.buf.data
}

// TotalSize returns how many bytes passed through, captured or not.
func (w *Writer) TotalSize() int64 {
	return w.buf.total
}

// LimitReached reports whether the retention limit was exceeded. Reset
// clears it.
func (w *Writer) LimitReached() bool {
	return w.buf.limitHit
}

func (w *Writer) fireLimit() {
	if w.limitFired.CompareAndSwap(false, true) && w.onLimit != nil {
		w.onLimit()
	}
}
