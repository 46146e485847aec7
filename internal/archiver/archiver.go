// Package archiver implements the container-file archiver of §4.9: it
// snapshots a Storage's directory tree to a gzip-compressed container
// file, honoring a uniqueness/run-number naming convention on open and
// a per-element selector on archive. The exact byte format of the
// archived statistics objects is left to the statistics library and is
// opaque to the specification (§9); the container here is a
// line-oriented text format recording each element's path, type,
// entry count, and textual rendering, gzip-compressed the way the
// teacher's storage.archivePropagationLog compresses its propagation
// log (storage/paired.go).
package archiver

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dqm4hep/dqm4hep-go/internal/blobstore"
	"github.com/dqm4hep/dqm4hep-go/internal/element"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
	"github.com/dqm4hep/dqm4hep-go/internal/storage"
)

// Selector decides whether an element is included in an archive pass.
// A nil Selector accepts everything.
type Selector func(*element.Element) bool

// AcceptAll is the default selector named in §4.9.
func AcceptAll(*element.Element) bool { return true }

// DefaultReferenceSuffix is the suffix appended to an element's name to
// name its reference object when archived alongside it (§4.9).
const DefaultReferenceSuffix = "_ref"

// Archiver writes Storage snapshots to a container file. An Archiver
// owns at most one open file at a time; open files are not shareable
// across Archivers (§5).
type Archiver struct {
	mu sync.Mutex

	sink blobstore.Store // optional; nil means disk-only

	path string
	f    *os.File
	gz   *gzip.Writer
	w    *bufio.Writer
}

// New returns an Archiver with no file open. sink, if non-nil,
// additionally receives a copy of every closed container's bytes
// (e.g. an S3-backed blobstore.Store for off-site archival).
func New(sink blobstore.Store) *Archiver {
	return &Archiver{sink: sink}
}

// Open chooses the final container filename from name, runNumber, and
// overwrite per §4.9, then creates it for writing:
//
//   - if runNumber >= 0, "_I<runNumber>" is inserted before the extension;
//   - if overwrite is false and the chosen name already exists, "_N" is
//     appended before the extension, where N is the smallest integer
//     making the name unique.
func (a *Archiver) Open(name string, overwrite bool, runNumber int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f != nil {
		return status.Wrapf(status.NotAllowed, "archiver already has %q open", a.path)
	}
	if name == "" {
		return status.Wrapf(status.InvalidParameter, "open: empty name")
	}

	final := name
	if runNumber >= 0 {
		final = insertBeforeExt(final, fmt.Sprintf("_I%d", runNumber))
	}
	if !overwrite {
		final = uniqueName(final)
	}

	f, err := os.Create(final)
	if err != nil {
		return status.Wrap(status.Failure, err)
	}
	a.path = final
	a.f = f
	a.gz = gzip.NewWriter(f)
	a.w = bufio.NewWriter(a.gz)
	return nil
}

// Path returns the currently open container's filename, or "" if none
// is open.
func (a *Archiver) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// insertBeforeExt inserts infix immediately before name's extension.
func insertBeforeExt(name, infix string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + infix + ext
}

// uniqueName appends "_N" (N = 1, 2, ...) before name's extension
// until the result does not already exist on disk.
func uniqueName(name string) string {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// Archive writes a recursive mirror of the directory tree rooted at
// dir ("" meaning the whole storage) to the currently open container,
// applying selector (AcceptAll if nil) to every element.
func (a *Archiver) Archive(s *storage.Storage[*element.Element], dir string, selector Selector) error {
	return a.archive(s, dir, "", selector)
}

// ArchiveWithReferences is Archive, additionally writing each
// archived element's reference object (if any) alongside it under
// "<name><refSuffix>".
func (a *Archiver) ArchiveWithReferences(s *storage.Storage[*element.Element], dir, refSuffix string, selector Selector) error {
	if refSuffix == "" {
		refSuffix = DefaultReferenceSuffix
	}
	return a.archive(s, dir, refSuffix, selector)
}

func (a *Archiver) archive(s *storage.Storage[*element.Element], dir, refSuffix string, selector Selector) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.w == nil {
		return status.Wrapf(status.NotAllowed, "archiver has no container open")
	}
	if selector == nil {
		selector = AcceptAll
	}

	root := s.Root()
	if dir != "" {
		d, err := s.Find(dir)
		if err != nil {
			return err
		}
		root = d
	}

	var walk func(d *storage.Directory[*element.Element]) error
	walk = func(d *storage.Directory[*element.Element]) error {
		if _, err := fmt.Fprintf(a.w, "DIR %s\n", d.FullPath()); err != nil {
			return status.Wrap(status.Failure, err)
		}
		for _, elem := range d.Contents() {
			if !selector(elem) {
				continue
			}
			if err := a.writeElement(elem.Name(), elem); err != nil {
				return err
			}
			if refSuffix != "" && elem.Reference() != nil {
				if err := a.writeReference(elem.Name()+refSuffix, elem); err != nil {
					return err
				}
			}
		}
		for _, child := range d.Children() {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

func (a *Archiver) writeElement(name string, elem *element.Element) error {
	_, err := fmt.Fprintf(a.w, "ELEM %s %s %s %d\n%s\n", elem.Path(), name, elem.Type(), elem.Entries(), elem.Object())
	if err != nil {
		return status.Wrap(status.Failure, err)
	}
	return nil
}

func (a *Archiver) writeReference(name string, elem *element.Element) error {
	ref := elem.Reference()
	_, err := fmt.Fprintf(a.w, "REF %s %s %s %d\n%s\n", elem.Path(), name, elem.Type(), ref.Entries(), ref)
	if err != nil {
		return status.Wrap(status.Failure, err)
	}
	return nil
}

// Close flushes and releases the open container file. A non-nil
// blobstore sink additionally receives the compressed container bytes
// under a key equal to the container's base filename. Subsequent
// operations fail with NOT_ALLOWED until Open is called again (§4.9).
func (a *Archiver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return status.Wrapf(status.NotAllowed, "archiver has no container open")
	}
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(a.w.Flush())
	record(a.gz.Close())
	path := a.path
	record(a.f.Close())

	if firstErr == nil && a.sink != nil {
		contents, err := os.ReadFile(path)
		if err != nil {
			firstErr = err
		} else if err := a.sink.Put(blobstore.Key(filepath.Base(path)), contents); err != nil {
			firstErr = err
		}
	}

	a.f = nil
	a.gz = nil
	a.w = nil
	a.path = ""
	if firstErr != nil {
		return status.Wrap(status.Failure, firstErr)
	}
	return nil
}
