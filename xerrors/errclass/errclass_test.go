package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zircuit-labs/zkr-go-capture/xerrors/errclass"
)

func TestWrapAsNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, errclass.WrapAs(nil, errclass.Persistent))
}

func TestGetClass(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected errclass.Class
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: errclass.Nil,
		},
		{
			name:     "unclassified error",
			err:      errors.New("plain"),
			expected: errclass.Unknown,
		},
		{
			name:     "classified error",
			err:      errclass.WrapAs(errors.New("bad input"), errclass.Invalid),
			expected: errclass.Invalid,
		},
		{
			name:     "classified then wrapped",
			err:      fmt.Errorf("outer: %w", errclass.WrapAs(errors.New("inner"), errclass.Transient)),
			expected: errclass.Transient,
		},
		{
			name: "joined errors take the highest class",
			err: errors.Join(
				errclass.WrapAs(errors.New("a"), errclass.Transient),
				errclass.WrapAs(errors.New("b"), errclass.Persistent),
			),
			expected: errclass.Persistent,
		},
		{
			name: "joined with unclassified",
			err: errors.Join(
				errors.New("a"),
				errclass.WrapAs(errors.New("b"), errclass.Invalid),
			),
			expected: errclass.Invalid,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, errclass.GetClass(tc.err))
		})
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nil", errclass.Nil.String())
	assert.Equal(t, "unknown", errclass.Unknown.String())
	assert.Equal(t, "invalid", errclass.Invalid.String())
	assert.Equal(t, "transient", errclass.Transient.String())
	assert.Equal(t, "persistent", errclass.Persistent.String())
	assert.Equal(t, "panic", errclass.Panic.String())
	assert.Equal(t, "unknown", errclass.Class(12345).String())
}
