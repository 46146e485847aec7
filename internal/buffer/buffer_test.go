package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/buffer"
)

func TestNullBufferIsEmpty(t *testing.T) {
	b := buffer.NullBuffer()
	assert.True(t, b.IsNull())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, []byte{0, 0}, b.Frame())
}

func TestFromStringRoundTrips(t *testing.T) {
	b := buffer.FromString("hello")
	assert.Equal(t, buffer.String, b.Model())
	assert.Equal(t, "hello", b.String())
}

func TestFromStringEmptyIsNull(t *testing.T) {
	b := buffer.FromString("")
	assert.True(t, b.IsNull())
}

func TestAdoptAliasesCallerBytes(t *testing.T) {
	raw := []byte("window")
	b := buffer.Adopt(raw)
	assert.Equal(t, buffer.Aliased, b.Model())
	assert.Equal(t, "window", b.String())
}

func TestFromValueGobRoundTrip(t *testing.T) {
	type payload struct {
		Run     uint32
		Comment string
	}
	in := payload{Run: 42, Comment: "first run"}
	b, err := buffer.FromValue(in)
	require.NoError(t, err)
	assert.Equal(t, buffer.Value, b.Model())

	var out payload
	require.NoError(t, b.DecodeValue(&out))
	assert.Equal(t, in, out)
}

func TestDecodeValueRejectsWrongModel(t *testing.T) {
	b := buffer.FromString("not a value buffer")
	var out int
	assert.Error(t, b.DecodeValue(&out))
}

func TestTakeMovesPayloadAndResetsSource(t *testing.T) {
	b := buffer.FromString("payload")
	moved := b.Take()
	assert.Equal(t, "payload", moved.String())
	assert.True(t, b.IsNull())
}
