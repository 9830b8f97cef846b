package capture

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestTextReaderDecodesCharset(t *testing.T) {
	t.Parallel()

	latin1 := []byte{'h', 0xE9, 'l', 'l', 'o'} // "héllo" in ISO-8859-1
	r := NewTextReader(bytes.NewReader(latin1), charmap.ISO8859_1)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "héllo", string(data))
	assert.Equal(t, "héllo", r.CapturedText())
	assert.Equal(t, int64(5), r.TotalSize(), "sizes are counted in runes, not bytes")
	assert.True(t, r.Consumed())
}

func TestTextReaderUTF8Default(t *testing.T) {
	t.Parallel()

	r := NewTextReader(strings.NewReader("Hello world"), nil)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(data))
	assert.Equal(t, int64(11), r.TotalSize())
}

func TestTextReaderRuneLimit(t *testing.T) {
	t.Parallel()

	limits := 0
	r := NewTextReader(strings.NewReader("héllo wörld"), nil,
		WithReaderLimit(5),
		WithReaderLimitFunc(func() { limits++ }),
	)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", string(data), "the limit must not stop real data flow")
	assert.Equal(t, "héllo", r.CapturedText())
	assert.Equal(t, int64(11), r.TotalSize())
	assert.Equal(t, 1, limits)
	assert.True(t, r.LimitReached())
}

func TestTextReaderReadRune(t *testing.T) {
	t.Parallel()

	r := NewTextReader(strings.NewReader("héllo"), nil)
	ch, size, err := r.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'h', ch)
	assert.Equal(t, 1, size)

	ch, size, err = r.ReadRune()
	require.NoError(t, err)
	assert.Equal(t, 'é', ch)
	assert.Equal(t, 2, size)

	assert.Equal(t, "hé", r.CapturedText())
	assert.Equal(t, int64(2), r.TotalSize())
}

func TestTextReaderSmallDestination(t *testing.T) {
	t.Parallel()

	// one-byte reads force multi-byte runes to carry over between calls
	r := NewTextReader(strings.NewReader("héllo"), nil)
	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "héllo", string(out))
	assert.Equal(t, "héllo", r.CapturedText(), "each rune should be captured exactly once")
	assert.Equal(t, int64(5), r.TotalSize())
}

func TestTextReaderCompleteAfter(t *testing.T) {
	t.Parallel()

	done := 0
	r := NewTextReader(strings.NewReader("Hello world"), nil,
		WithCompleteAfter(6),
		WithReaderDoneFunc(func() { done++ }),
	)

	buf := make([]byte, 6)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)

	assert.Equal(t, 1, done)
	assert.False(t, r.Consumed())
}

func TestTextReaderCloseIdempotent(t *testing.T) {
	t.Parallel()

	src := &closeCounter{Reader: strings.NewReader("body")}
	r := NewTextReader(src, nil)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, src.closes)
}
