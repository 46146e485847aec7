// Package dqmpath implements the canonical hierarchical path addressing
// used throughout the core: monitor element directories, quality test
// targets, and transport channel names are all named this way. The
// normalization rules (drop ".", pop on ".." unless already at root, in
// which case construction fails rather than silently escaping) are
// modeled after the path walking in the teacher's internal/tree package
// (Node.Path, Node.followBranch), adapted from a Merkle tree of file
// blocks to a plain ordered sequence of name segments.
package dqmpath

import (
	"strings"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Path is an ordered, normalized sequence of non-empty name segments,
// plus a flag recording whether it was written as relative (no leading
// "/") or absolute.
type Path struct {
	segments []string
	relative bool
}

// Root is the canonical absolute, empty-segment path.
var Root = Path{}

// New parses s into a normalized Path. "." segments are dropped; ".."
// pops the previous segment, unless the path is already at the root, in
// which case New fails with status.Failure rather than letting the
// path escape above its starting point. A leading "/" (on an absolute
// path) and a trailing "/" are the only empty segments tolerated; an
// empty segment anywhere else (consecutive slashes, as in "a//b")
// fails with status.InvalidParameter rather than being silently
// dropped like ".".
func New(s string) (Path, error) {
	relative := !strings.HasPrefix(s, "/")
	raw := strings.Split(s, "/")
	var segs []string
	for i, seg := range raw {
		switch seg {
		case "":
			if i == 0 && !relative {
				continue
			}
			if i == len(raw)-1 {
				continue
			}
			return Path{}, status.Wrapf(status.InvalidParameter, "path %q: empty segment between consecutive slashes", s)
		case ".":
			continue
		case "..":
			if len(segs) == 0 {
				if !relative {
					return Path{}, status.Wrapf(status.Failure, "path %q: %q would escape the root", s, "..")
				}
				// A relative path is allowed to carry an unresolved ".."
				// prefix (e.g., "../sibling" issued from a non-root
				// cursor); resolution against a concrete cursor happens
				// in Storage, not here.
				segs = append(segs, seg)
				continue
			}
			if segs[len(segs)-1] == ".." {
				segs = append(segs, seg)
				continue
			}
			segs = segs[:len(segs)-1]
		default:
			segs = append(segs, seg)
		}
	}
	return Path{segments: segs, relative: relative}, nil
}

// MustNew is New but panics on error; meant for static paths in tests
// and registration code, never for user-controlled input.
func MustNew(s string) Path {
	p, err := New(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Segments returns the normalized path segments. The returned slice
// must not be mutated by the caller.
func (p Path) Segments() []string {
	return p.segments
}

// IsRelative reports whether the path was constructed without a
// leading "/".
func (p Path) IsRelative() bool {
	return p.relative
}

// IsRoot reports whether the path denotes the root itself.
func (p Path) IsRoot() bool {
	return !p.relative && len(p.segments) == 0
}

// Base returns the last segment, or "" for the root.
func (p Path) Base() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Dir returns the path without its last segment.
func (p Path) Dir() Path {
	if len(p.segments) == 0 {
		return p
	}
	return Path{segments: p.segments[:len(p.segments)-1], relative: p.relative}
}

// Join appends child's segments to p, resolving any ".." child.Segments()
// carries against p's own segments. The relativity of the result is p's.
func (p Path) Join(child Path) (Path, error) {
	segs := append([]string(nil), p.segments...)
	for _, seg := range child.segments {
		if seg == ".." {
			if len(segs) == 0 {
				if p.relative {
					segs = append(segs, seg)
					continue
				}
				return Path{}, status.Wrapf(status.Failure, "joining %q onto %q: would escape the root", child, p)
			}
			segs = segs[:len(segs)-1]
			continue
		}
		segs = append(segs, seg)
	}
	return Path{segments: segs, relative: p.relative}, nil
}

// String recombines the path into its canonical textual form.
func (p Path) String() string {
	if len(p.segments) == 0 {
		if p.relative {
			return "."
		}
		return "/"
	}
	joined := strings.Join(p.segments, "/")
	if p.relative {
		return joined
	}
	return "/" + joined
}

// Equal reports whether two paths have the same normalized segments and
// relativity, per the spec's equality rule.
func (p Path) Equal(other Path) bool {
	if p.relative != other.relative || len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}
