// Package textdiff renders a unified text diff between two strings.
// Grounded on the teacher's diff/unified.go: the hunk-accumulation
// algorithm is unchanged, only the input is simplified from a Node
// pair (content fetched lazily, with a SameAs shortcut for structured
// trees) to two already-in-hand strings, since DiffQualityTest always
// compares a reference object's and a live object's string rendering
// directly.
package textdiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andreyvit/diff"
)

const bytesForBinaryCheck = 1 << 16

// Unified returns a unified diff of a and b with contextLines of
// surrounding context, or the empty string if they are equal.
func Unified(a, b string, contextLines int) (string, error) {
	var buf bytes.Buffer
	if err := UnifiedTo(&buf, a, b, contextLines); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// UnifiedTo writes a unified diff of a and b to w.
func UnifiedTo(w io.Writer, a, b string, contextLines int) error {
	if a == b {
		return nil
	}
	lines := diff.LineDiffAsLines(a, b)
	if len(lines) == 0 {
		return nil
	}
	return unified(w, lines, contextLines)
}

func unified(w io.Writer, lines []string, contextLines int) error {
	// While processing lines, we're either in a hunk or in a common
	// segment. The hunk is nil if we are in a common segment.
	var h *hunk

	// When we're not in the middle of a hunk, we keep the most recent
	// common lines in a ring buffer. When starting a new hunk, the
	// common lines will be backfilled into the hunk and the ring
	// buffer will be emptied out.
	common := newRingBuffer(contextLines)

	if isLikelyBinary(lines) {
		_, err := fmt.Fprintln(w, "binary content differs")
		return err
	}

	var leftOffset, rightOffset int
	for _, line := range lines {
		if line[0] == ' ' {
			if h != nil {
				h.appendCommon(line)
				if h.isComplete() {
					for _, l := range h.trim() {
						common.enqueue(l)
					}
					if err := h.printTo(w); err != nil {
						return err
					}
					h = nil
				}
			} else {
				common.enqueue(line)
			}
		} else {
			if h == nil {
				h = newHunk(leftOffset, rightOffset, common.dequeueAll(), contextLines)
			}
			if line[0] == '-' {
				h.appendLeft(line)
			} else {
				h.appendRight(line)
			}
		}
		switch line[0] {
		case '-':
			leftOffset++
		case ' ':
			leftOffset++
			rightOffset++
		case '+':
			rightOffset++
		}
	}
	if h != nil {
		h.trim()
		return h.printTo(w)
	}
	return nil
}

func isLikelyBinary(lines []string) bool {
	count := 0
	for _, line := range lines {
		if strings.Contains(line, "\x00") {
			return true
		}
		count += len(line)
		if count >= bytesForBinaryCheck {
			break
		}
	}
	return false
}
