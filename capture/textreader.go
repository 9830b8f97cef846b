package capture

import (
	"bufio"
	"io"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// TextReader tees every rune actually read from the wrapped source into a
// bounded capture buffer. The source is decoded with the given charset; the
// capture, sizes and limits are all in runes. Mark/Reset is never supported,
// as the decode pipeline is not seekable.
type TextReader struct {
	br            *bufio.Reader
	closer        io.Closer
	buf           *buffer[rune]
	completeAfter int64
	pending       []byte
	scratch       [1]rune
	consumed      bool
	closed        bool
	doneFired     atomic.Bool
	limitFired    atomic.Bool
	onDone        func()
	onLimit       func()
}

// NewTextReader wraps src in a rune capturer decoding with enc.
// A nil enc reads src as UTF-8.
func NewTextReader(src io.Reader, enc encoding.Encoding, opts ...ReaderOption) *TextReader {
	o := applyReaderOptions(opts)

	decoded := src
	if enc != nil {
		decoded = transform.NewReader(src, enc.NewDecoder())
	}

	t := &TextReader{
		br:            bufio.NewReader(decoded),
		buf:           newBuffer[rune](o.capacity, o.limit),
		completeAfter: o.completeAfter,
		onDone:        o.onDone,
		onLimit:       o.onLimit,
	}
	if c, ok := src.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// ReadRune delegates to the decoded source, then captures the rune returned.
func (t *TextReader) ReadRune() (rune, int, error) {
	ch, size, err := t.br.ReadRune()
	if err != nil {
		if err == io.EOF {
			t.consumed = true
			t.fireDone()
		}
		return 0, 0, err
	}

	t.scratch[0] = ch
	if t.buf.append(t.scratch[:]) {
		t.fireLimit()
	}
	if t.completeAfter != NoLimit && t.buf.total >= t.completeAfter {
		t.fireDone()
	}
	return ch, size, nil
}

// Read fills p with whole UTF-8 encoded runes from the decoded source. A rune
// split across calls is carried over, so each rune is captured exactly once.
func (t *TextReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(t.pending) > 0 {
			c := copy(p[n:], t.pending)
			t.pending = t.pending[c:]
			n += c
			continue
		}

		ch, _, err := t.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		var tmp [utf8.UTFMax]byte
		w := utf8.EncodeRune(tmp[:], ch)
		c := copy(p[n:], tmp[:w])
		if c < w {
			t.pending = append(t.pending[:0], tmp[c:w]...)
		}
		n += c
	}
	return n, nil
}

// Close closes the source if it is a closer. Only the first call has any
// effect.
func (t *TextReader) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// CapturedText returns the retained body prefix as text.
func (t *TextReader) CapturedText() string {
	return string(t.buf.data)
}

// TotalSize returns how many runes passed through, captured or not.
func (t *TextReader) TotalSize() int64 {
	return t.buf.total
}

// Consumed reports whether the source reported genuine end-of-stream.
func (t *TextReader) Consumed() bool {
	return t.consumed
}

// LimitReached reports whether the retention limit was exceeded.
func (t *TextReader) LimitReached() bool {
	return t.buf.limitHit
}

func (t *TextReader) fireDone() {
	if t.doneFired.CompareAndSwap(false, true) && t.onDone != nil {
		t.onDone()
	}
}

func (t *TextReader) fireLimit() {
	if t.limitFired.CompareAndSwap(false, true) && t.onLimit != nil {
		t.onLimit()
	}
}
