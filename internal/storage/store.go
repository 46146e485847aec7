package storage

import (
	"github.com/dqm4hep/dqm4hep-go/internal/dqmpath"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Storage is a per-process working-directory view over a Directory
// tree: it owns the root and tracks a "current directory" cursor.
// Navigation is cooperative and single-threaded (see §5 of the
// specification): the cursor is ordinary state, not a lock, and
// concurrent use of the same Storage from more than one goroutine is
// undefined unless the caller serializes externally.
type Storage[T any] struct {
	root    *Directory[T]
	current *Directory[T]
}

// New returns an empty Storage, cursor at the root.
func New[T any]() *Storage[T] {
	root := newDirectory[T]("")
	return &Storage[T]{root: root, current: root}
}

// Root returns the root directory.
func (s *Storage[T]) Root() *Directory[T] {
	return s.root
}

// Pwd returns the name of the current directory ("" at the root).
func (s *Storage[T]) Pwd() string {
	return s.current.name
}

// PwdPath returns the full path of the current directory.
func (s *Storage[T]) PwdPath() string {
	return s.current.FullPath()
}

// resolve walks p from the root (absolute) or the cursor (relative),
// optionally creating missing intermediate directories.
func (s *Storage[T]) resolve(raw string, create bool) (*Directory[T], error) {
	p, err := dqmpath.New(raw)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, status.Wrapf(status.InvalidParameter, "empty path")
	}
	cur := s.root
	if p.IsRelative() {
		cur = s.current
	}
	for _, seg := range p.Segments() {
		if seg == ".." {
			if cur.parent == nil {
				return nil, status.Wrapf(status.Failure, "path %q: %q beyond root", raw, "..")
			}
			cur = cur.parent
			continue
		}
		child, ok := cur.children[seg]
		if !ok {
			if !create {
				return nil, status.Wrapf(status.NotFound, "no such directory: %q", raw)
			}
			child = cur.mkdirChild(seg)
		}
		cur = child
	}
	return cur, nil
}

// Mkdir walks path, creating missing intermediate directories, and
// returns the (possibly newly created) directory.
func (s *Storage[T]) Mkdir(path string) (*Directory[T], error) {
	if path == "" {
		return nil, status.Wrapf(status.InvalidParameter, "mkdir: empty path")
	}
	return s.resolve(path, true)
}

// Cd moves the cursor to path. Cd() with no arguments (the empty
// string) moves the cursor to the root.
func (s *Storage[T]) Cd(path string) error {
	if path == "" {
		s.current = s.root
		return nil
	}
	d, err := s.resolve(path, false)
	if err != nil {
		return err
	}
	s.current = d
	return nil
}

// GoUp moves the cursor to its parent. At the root, it is a no-op and
// returns status.Unchanged.
func (s *Storage[T]) GoUp() error {
	if s.current.parent == nil {
		return status.Unchanged
	}
	s.current = s.current.parent
	return nil
}

// Find resolves path without creating missing directories.
func (s *Storage[T]) Find(path string) (*Directory[T], error) {
	if path == "" {
		return nil, status.Wrapf(status.InvalidParameter, "find: empty path")
	}
	return s.resolve(path, false)
}

// Rmdir removes the directory addressed by path. It refuses to remove
// the root, and refuses to remove any ancestor of the current
// directory (the cursor must never dangle), determined by comparing
// normalized path segments rather than raw substring containment (the
// original C++ implementation used substring containment on full paths,
// which falsely flags sibling names sharing a prefix).
func (s *Storage[T]) Rmdir(path string) error {
	d, err := s.resolve(path, false)
	if err != nil {
		return err
	}
	if d.parent == nil {
		return status.Wrapf(status.NotAllowed, "cannot remove the root directory")
	}
	if isAncestorOrSelf(d, s.current) {
		return status.Wrapf(status.NotAllowed, "cannot remove %q: ancestor of current directory %q", d.FullPath(), s.current.FullPath())
	}
	d.parent.removeChild(d.name)
	return nil
}

// isAncestorOrSelf reports whether candidate is node itself or one of
// node's ancestors, by walking node's parent chain — a path-prefix
// comparison at the tree level, not a string comparison.
func isAncestorOrSelf[T any](candidate, node *Directory[T]) bool {
	for n := node; n != nil; n = n.parent {
		if n == candidate {
			return true
		}
	}
	return false
}

// Add inserts obj into the current directory, or the directory
// addressed by dirPath when given, creating intermediate directories
// as needed. Duplicate detection compares obj against the objects
// already in the target directory with equal; when equal is nil, no
// duplicate check is made. An obj with a SetPath(string) method is
// given the target directory's full path.
func (s *Storage[T]) Add(obj T, dirPath string, equal func(a, b T) bool) (string, error) {
	dir := s.current
	if dirPath != "" {
		d, err := s.resolve(dirPath, true)
		if err != nil {
			return "", err
		}
		dir = d
	}
	if equal != nil {
		for _, existing := range dir.contents {
			if equal(existing, obj) {
				return "", status.Wrapf(status.AlreadyPresent, "object already present in %q", dir.FullPath())
			}
		}
	}
	dir.addContent(obj)
	if p, ok := any(obj).(interface{ SetPath(string) }); ok {
		p.SetPath(dir.FullPath())
	}
	return dir.FullPath(), nil
}

// Remove erases every entry in the directory addressed by dirPath (the
// current directory if empty) satisfying pred, and reports how many
// were removed.
func (s *Storage[T]) Remove(dirPath string, pred func(T) bool) (int, error) {
	dir := s.current
	if dirPath != "" {
		d, err := s.resolve(dirPath, false)
		if err != nil {
			return 0, err
		}
		dir = d
	}
	return dir.removeContent(pred), nil
}

// Iterate performs a pre-order traversal of the whole tree starting at
// the root, visiting children in creation order, invoking fn with
// every directory's contents. Traversal stops early when fn returns
// false.
func (s *Storage[T]) Iterate(fn func(dir *Directory[T], contents []T) bool) {
	s.root.walk(func(d *Directory[T]) bool {
		return fn(d, d.Contents())
	})
}

// Clear resets the storage to an empty root, cursor at the root.
func (s *Storage[T]) Clear() {
	s.root = newDirectory[T]("")
	s.current = s.root
}
