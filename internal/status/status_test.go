package status_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

func TestCodeOk(t *testing.T) {
	assert.True(t, status.Success.Ok())
	assert.True(t, status.Unchanged.Ok())
	assert.False(t, status.Failure.Ok())
	assert.False(t, status.NotFound.Ok())
}

func TestWrapPreservesCodeForErrorsIs(t *testing.T) {
	cause := errors.New("no such directory")
	err := status.Wrap(status.NotFound, cause)
	require.True(t, errors.Is(err, status.NotFound))
	require.False(t, errors.Is(err, status.Failure))
	assert.ErrorIs(t, err, cause)
}

func TestWrapNilCauseReturnsBareCode(t *testing.T) {
	err := status.Wrap(status.Success, nil)
	assert.Equal(t, status.Success, err)
}

func TestFrom(t *testing.T) {
	c, ok := status.From(status.Wrapf(status.OutOfRange, "quality %v not in [0,1]", 1.4))
	require.True(t, ok)
	assert.Equal(t, status.OutOfRange, c)

	c, ok = status.From(nil)
	assert.True(t, ok)
	assert.Equal(t, status.Success, c)

	_, ok = status.From(errors.New("unrelated"))
	assert.False(t, ok)
}
