package xerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-capture/xerrors"
)

type trackingData struct {
	ID string
}

func TestExtendNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, xerrors.Extend(trackingData{ID: "abc"}, nil))
}

func TestExtendAndExtract(t *testing.T) {
	t.Parallel()

	base := errors.New("something failed")
	err := xerrors.Extend(trackingData{ID: "abc"}, base)
	require.Error(t, err)
	assert.Equal(t, base.Error(), err.Error(), "extension must not change the message")
	assert.ErrorIs(t, err, base)

	data, ok := xerrors.Extract[trackingData](err)
	require.True(t, ok)
	assert.Equal(t, "abc", data.ID)
}

func TestExtractThroughWrapping(t *testing.T) {
	t.Parallel()

	err := xerrors.Extend(trackingData{ID: "abc"}, errors.New("inner"))
	err = fmt.Errorf("outer: %w", err)
	err = xerrors.Extend(42, err)

	data, ok := xerrors.Extract[trackingData](err)
	require.True(t, ok)
	assert.Equal(t, "abc", data.ID)

	n, ok := xerrors.Extract[int](err)
	require.True(t, ok)
	assert.Equal(t, 42, n)
}

func TestExtractMissing(t *testing.T) {
	t.Parallel()

	_, ok := xerrors.Extract[trackingData](errors.New("plain"))
	assert.False(t, ok)
}

func TestExtractOutermostWins(t *testing.T) {
	t.Parallel()

	err := xerrors.Extend(trackingData{ID: "inner"}, errors.New("base"))
	err = xerrors.Extend(trackingData{ID: "outer"}, err)

	data, ok := xerrors.Extract[trackingData](err)
	require.True(t, ok)
	assert.Equal(t, "outer", data.ID)
}

func TestUnjoin(t *testing.T) {
	t.Parallel()

	assert.Nil(t, xerrors.Unjoin(nil))

	single := errors.New("one")
	assert.Equal(t, []error{single}, xerrors.Unjoin(single))

	a, b := errors.New("a"), errors.New("b")
	assert.Equal(t, []error{a, b}, xerrors.Unjoin(errors.Join(a, b)))
}
