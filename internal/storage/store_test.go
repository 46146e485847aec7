package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
	"github.com/dqm4hep/dqm4hep-go/internal/storage"
)

func TestMkdirFindCdPwdGoUp(t *testing.T) {
	s := storage.New[string]()
	_, err := s.Mkdir("/a/b/c")
	require.NoError(t, err)
	require.NoError(t, s.Cd("/a/b"))
	assert.Equal(t, "b", s.Pwd())
	require.NoError(t, s.GoUp())
	assert.Equal(t, "a", s.Pwd())
}

func TestGoUpAtRootIsUnchanged(t *testing.T) {
	s := storage.New[string]()
	err := s.GoUp()
	assert.Equal(t, status.Unchanged, err)
}

func TestMkdirEmptyPathFails(t *testing.T) {
	s := storage.New[string]()
	_, err := s.Mkdir("")
	assert.ErrorIs(t, err, status.InvalidParameter)
}

func TestMkdirConsecutiveSlashesFails(t *testing.T) {
	s := storage.New[string]()
	_, err := s.Mkdir("a//b")
	assert.ErrorIs(t, err, status.InvalidParameter)
	_, err = s.Find("a")
	assert.ErrorIs(t, err, status.NotFound)
}

func TestCdDotDotAtRootFails(t *testing.T) {
	s := storage.New[string]()
	err := s.Cd("..")
	assert.Error(t, err)
}

func TestRmdirRoot(t *testing.T) {
	s := storage.New[string]()
	err := s.Rmdir("/")
	assert.ErrorIs(t, err, status.NotAllowed)
}

func TestRmdirAncestorOfCursorRefused(t *testing.T) {
	s := storage.New[string]()
	_, err := s.Mkdir("/a/b/c")
	require.NoError(t, err)
	require.NoError(t, s.Cd("/a/b/c"))
	err = s.Rmdir("/a")
	assert.ErrorIs(t, err, status.NotAllowed)
}

func TestRmdirSiblingSharingPrefixIsNotFalselyFlagged(t *testing.T) {
	s := storage.New[string]()
	_, err := s.Mkdir("/alpha")
	require.NoError(t, err)
	_, err = s.Mkdir("/alphabet")
	require.NoError(t, err)
	require.NoError(t, s.Cd("/alphabet"))
	// "/alpha" is a lexical prefix of "/alphabet" but not an ancestor:
	// removing it must succeed.
	assert.NoError(t, s.Rmdir("/alpha"))
}

func TestAddAndFind(t *testing.T) {
	s := storage.New[string]()
	_, err := s.Add("hist", "/x", nil)
	require.NoError(t, err)
	d, err := s.Find("/x")
	require.NoError(t, err)
	assert.Equal(t, []string{"hist"}, d.Contents())
}

func TestAddDuplicateDetectedByEquality(t *testing.T) {
	s := storage.New[string]()
	eq := func(a, b string) bool { return a == b }
	_, err := s.Add("hist", "/x", eq)
	require.NoError(t, err)
	_, err = s.Add("hist", "/x", eq)
	assert.ErrorIs(t, err, status.AlreadyPresent)
}

func TestIterateIsPreOrderInsertionOrder(t *testing.T) {
	s := storage.New[string]()
	_, _ = s.Mkdir("/a")
	_, _ = s.Mkdir("/b")
	_, _ = s.Mkdir("/a/c")
	var visited []string
	s.Iterate(func(dir *storage.Directory[string], _ []string) bool {
		visited = append(visited, dir.FullPath())
		return true
	})
	assert.Equal(t, []string{"/", "/a", "/a/c", "/b"}, visited)
}

func TestIterateStopsEarly(t *testing.T) {
	s := storage.New[string]()
	_, _ = s.Mkdir("/a")
	_, _ = s.Mkdir("/b")
	count := 0
	s.Iterate(func(dir *storage.Directory[string], _ []string) bool {
		count++
		return dir.FullPath() != "/a"
	})
	assert.Equal(t, 2, count)
}

func TestClear(t *testing.T) {
	s := storage.New[string]()
	_, _ = s.Mkdir("/a/b")
	_ = s.Cd("/a/b")
	s.Clear()
	assert.True(t, s.Root().IsRoot())
	assert.Equal(t, "", s.Pwd())
}

func TestRemove(t *testing.T) {
	s := storage.New[string]()
	_, _ = s.Add("keep", "/x", nil)
	_, _ = s.Add("drop", "/x", nil)
	n, err := s.Remove("/x", func(v string) bool { return v == "drop" })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	d, _ := s.Find("/x")
	assert.Equal(t, []string{"keep"}, d.Contents())
}
