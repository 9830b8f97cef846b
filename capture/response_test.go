package capture

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriterTransparent(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusCreated)
	n, err := rw.Write([]byte("Hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Hello world", rec.Body.String(), "writes must reach the real response unmodified")
	assert.Equal(t, http.StatusCreated, rw.StatusCode())

	captured, err := rw.CapturedBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello world"), captured)
	assert.Equal(t, int64(11), rw.TotalBodySize())
	assert.Equal(t, ModeBytes, rw.Mode())
}

func TestResponseWriterDefaultStatus(t *testing.T) {
	t.Parallel()

	rw := NewResponseWriter(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, rw.StatusCode())
}

func TestResponseWriterLimit(t *testing.T) {
	t.Parallel()

	limits := 0
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec,
		WithResponseLimit(5),
		WithResponseLimitFunc(func(*ResponseWriter) { limits++ }),
	)

	_, err := rw.Write([]byte("Hello world"))
	require.NoError(t, err)

	assert.Equal(t, "Hello world", rec.Body.String())
	captured, err := rw.CapturedBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello"), captured)
	assert.Equal(t, int64(11), rw.TotalBodySize())
	assert.Equal(t, 1, limits)
	assert.True(t, rw.LimitReached())
}

func TestResponseWriterReset(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	_, err := rw.Write([]byte("Hello world"))
	require.NoError(t, err)

	rw.Reset()
	captured, err := rw.CapturedBytes()
	require.NoError(t, err)
	assert.Empty(t, captured)
	assert.Equal(t, int64(0), rw.TotalBodySize())
}

func TestResponseWriterLazyMode(t *testing.T) {
	t.Parallel()

	rw := NewResponseWriter(httptest.NewRecorder())
	assert.Equal(t, ModeNone, rw.Mode(), "no capturer exists until something is written")
	assert.Equal(t, int64(0), rw.TotalBodySize())
	rw.Reset() // safe with no capturer
}

func TestResponseWriterModeConflict(t *testing.T) {
	t.Parallel()

	rw := NewResponseWriter(httptest.NewRecorder())
	_, err := rw.TextBody()
	require.NoError(t, err)

	_, err = rw.Write([]byte("raw"))
	assert.ErrorIs(t, err, ErrModeConflict)
	_, err = rw.BodyStream()
	assert.ErrorIs(t, err, ErrModeConflict)
	_, err = rw.CapturedBytes()
	assert.ErrorIs(t, err, ErrModeConflict)

	// the matching accessor never fails
	_, err = rw.TextBody()
	assert.NoError(t, err)
	_, err = rw.CapturedText()
	assert.NoError(t, err)
}

func TestResponseWriterTextBody(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	rw.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")

	tw, err := rw.TextBody()
	require.NoError(t, err)
	_, err = tw.WriteString("héllo")
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	assert.Equal(t, []byte{'h', 0xE9, 'l', 'l', 'o'}, rec.Body.Bytes(), "output should be encoded with the response charset")

	text, err := rw.CapturedText()
	require.NoError(t, err)
	assert.Equal(t, "héllo", text)
	assert.Equal(t, int64(5), rw.TotalBodySize())
}

type plainWrapper struct {
	http.ResponseWriter
}

func (w plainWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func TestFindResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	// two generic delegating layers on top of the capturing writer
	wrapped := plainWrapper{plainWrapper{rw}}
	found, ok := FindResponseWriter(wrapped)
	require.True(t, ok)
	assert.Same(t, rw, found)

	_, ok = FindResponseWriter(rec)
	assert.False(t, ok, "a chain without a capturing writer yields nothing")
}

func TestResponseWriterUnwrap(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	assert.Equal(t, http.ResponseWriter(rec), rw.Unwrap())
}
