package capture

import (
	"io"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// TextWriter tees every rune written through it into a bounded capture
// buffer, then forwards it encoded with the given charset. The capture,
// sizes and limits are all in runes.
type TextWriter struct {
	dst        io.Writer
	buf        *buffer[rune]
	limitFired atomic.Bool
	onLimit    func()
}

// NewTextWriter wraps dst in a rune capturer encoding with enc.
// A nil enc writes UTF-8 through unchanged.
func NewTextWriter(dst io.Writer, enc encoding.Encoding, opts ...WriterOption) *TextWriter {
	o := applyWriterOptions(opts)

	encoded := dst
	if enc != nil {
		// transform.Writer's Close flushes the transformer without closing dst.
		encoded = transform.NewWriter(dst, enc.NewEncoder())
	}

	return &TextWriter{
		dst:     encoded,
		buf:     newBuffer[rune](o.capacity, o.limit),
		onLimit: o.onLimit,
	}
}

// WriteString captures the runes of s, then forwards s unmodified.
// It returns the number of bytes of s consumed, per io.StringWriter.
func (w *TextWriter) WriteString(s string) (int, error) {
	if w.buf.append([]rune(s)) {
		w.fireLimit()
	}
	return io.WriteString(w.dst, s)
}

// WriteRune captures r, then forwards it.
func (w *TextWriter) WriteRune(r rune) (int, error) {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	return w.WriteString(string(tmp[:n]))
}

// Close flushes any buffered encoder state to the destination. It does not
// close the destination itself.
func (w *TextWriter) Close() error {
	if c, ok := w.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Reset discards the capture, clearing both the buffer and the total counter.
func (w *TextWriter) Reset() {
	w.buf.reset()
}

// CapturedText returns the retained body prefix as text.
func (w *TextWriter) CapturedText() string {
	return string(w.buf.data)
}

// TotalSize returns how many runes passed through, captured or not.
func (w *TextWriter) TotalSize() int64 {
	return w.buf.total
}

// LimitReached reports whether the retention limit was exceeded. Reset
// clears it.
func (w *TextWriter) LimitReached() bool {
	return w.buf.limitHit
}

func (w *TextWriter) fireLimit() {
	if w.limitFired.CompareAndSwap(false, true) && w.onLimit != nil {
		w.onLimit()
	}
}
