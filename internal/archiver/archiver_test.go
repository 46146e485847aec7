package archiver_test

import (
	"bufio"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/archiver"
	"github.com/dqm4hep/dqm4hep-go/internal/blobstore"
	"github.com/dqm4hep/dqm4hep-go/internal/element"
	"github.com/dqm4hep/dqm4hep-go/internal/stats"
	"github.com/dqm4hep/dqm4hep-go/internal/storage"
)

func newFilledStorage(t *testing.T) *storage.Storage[*element.Element] {
	t.Helper()
	s := storage.New[*element.Element]()
	h := stats.NewHist1D("F", stats.Axis{Bins: 10, Min: 0, Max: 1})
	elem := element.New("occupancy", "Occupancy", h.TypeTag(), h)
	_, err := s.Add(elem, "/detector/ecal", nil)
	require.NoError(t, err)
	elem.SetPath("/detector/ecal/occupancy")
	return s
}

func readGzipLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()
	var lines []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestOpenArchiveCloseProducesGzipContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.container")

	a := archiver.New(nil)
	require.NoError(t, a.Open(path, true, -1))

	s := newFilledStorage(t)
	require.NoError(t, a.Archive(s, "", nil))
	require.NoError(t, a.Close())

	lines := readGzipLines(t, path)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "DIR /detector/ecal")
	assert.Contains(t, joined, "ELEM /detector/ecal/occupancy occupancy")
}

func TestOpenInsertsRunNumberBeforeExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.container")

	a := archiver.New(nil)
	require.NoError(t, a.Open(path, true, 42))
	defer a.Close()

	assert.Equal(t, filepath.Join(dir, "run_I42.container"), a.Path())
}

func TestOpenWithOverwriteFalseMakesNameUnique(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.container")
	require.NoError(t, os.WriteFile(path, []byte("existing"), 0644))

	a := archiver.New(nil)
	require.NoError(t, a.Open(path, false, -1))
	defer a.Close()

	assert.Equal(t, filepath.Join(dir, "run_1.container"), a.Path())
}

func TestOpenTwiceWithoutCloseIsNotAllowed(t *testing.T) {
	dir := t.TempDir()
	a := archiver.New(nil)
	require.NoError(t, a.Open(filepath.Join(dir, "a.container"), true, -1))
	defer a.Close()

	err := a.Open(filepath.Join(dir, "b.container"), true, -1)
	assert.Error(t, err)
}

func TestOperationsAfterCloseAreNotAllowed(t *testing.T) {
	dir := t.TempDir()
	a := archiver.New(nil)
	require.NoError(t, a.Open(filepath.Join(dir, "a.container"), true, -1))
	require.NoError(t, a.Close())

	s := newFilledStorage(t)
	err := a.Archive(s, "", nil)
	assert.Error(t, err)

	err = a.Close()
	assert.Error(t, err)
}

func TestSelectorRejectsElements(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.container")
	a := archiver.New(nil)
	require.NoError(t, a.Open(path, true, -1))

	s := newFilledStorage(t)
	require.NoError(t, a.Archive(s, "", func(*element.Element) bool { return false }))
	require.NoError(t, a.Close())

	lines := readGzipLines(t, path)
	joined := strings.Join(lines, "\n")
	assert.NotContains(t, joined, "ELEM")
}

func TestArchiveWithReferencesWritesRefAlongsideElement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.container")
	a := archiver.New(nil)
	require.NoError(t, a.Open(path, true, -1))

	s := storage.New[*element.Element]()
	h := stats.NewHist1D("F", stats.Axis{Bins: 5, Min: 0, Max: 1})
	ref := stats.NewHist1D("F", stats.Axis{Bins: 5, Min: 0, Max: 1})
	elem := element.New("occupancy", "Occupancy", h.TypeTag(), h)
	elem.SetReference(ref)
	_, err := s.Add(elem, "/detector", nil)
	require.NoError(t, err)

	require.NoError(t, a.ArchiveWithReferences(s, "", "", nil))
	require.NoError(t, a.Close())

	lines := readGzipLines(t, path)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "REF /")
	assert.Contains(t, joined, "occupancy_ref")
}

func TestCloseWritesToBlobstoreSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.container")
	sink := &blobstore.InMemory{}
	a := archiver.New(sink)
	require.NoError(t, a.Open(path, true, -1))
	require.NoError(t, a.Archive(newFilledStorage(t), "", nil))
	require.NoError(t, a.Close())

	ok, err := sink.Contains(blobstore.Key("run.container"))
	require.NoError(t, err)
	assert.True(t, ok)
}
