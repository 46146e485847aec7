package blobstore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/blobstore"
	"github.com/dqm4hep/dqm4hep-go/internal/config"
)

func TestInMemoryPutGetDelete(t *testing.T) {
	s := &blobstore.InMemory{}
	_, err := s.Get("missing")
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))

	require.NoError(t, s.Put("k1", blobstore.Value("payload")))
	v, err := s.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, blobstore.Value("payload"), v)

	ok, err := s.Contains("k1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete("k1"))
	_, err = s.Get("k1")
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))
}

func TestInMemoryForEach(t *testing.T) {
	s := &blobstore.InMemory{}
	require.NoError(t, s.Put("a", blobstore.Value("1")))
	require.NoError(t, s.Put("b", blobstore.Value("2")))
	var seen []blobstore.Key
	require.NoError(t, s.ForEach(func(k blobstore.Key) error {
		seen = append(seen, k)
		return nil
	}))
	assert.Len(t, seen, 2)
}

func TestDiskStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s := blobstore.NewDiskStore(dir)
	require.NoError(t, s.Put("deadbeef", blobstore.Value("payload")))
	v, err := s.Get("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, blobstore.Value("payload"), v)
	ok, err := s.Contains("deadbeef")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDiskStoreMissingKeyIsNotFound(t *testing.T) {
	s := blobstore.NewDiskStore(t.TempDir())
	_, err := s.Get("nosuchkey")
	assert.True(t, errors.Is(err, blobstore.ErrNotFound))
}

func TestNewSelectsBackendByConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Initialize(dir))
	c, err := config.Load(dir)
	require.NoError(t, err)
	store, err := blobstore.New(c)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.DiskStore{}, store)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Initialize(dir))
	c, err := config.Load(dir)
	require.NoError(t, err)
	c.ArchiverStorage = "bogus"
	_, err = blobstore.New(c)
	assert.True(t, errors.Is(err, blobstore.ErrNotImplemented))
}
