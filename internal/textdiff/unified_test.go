package textdiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/textdiff"
)

func TestUnifiedEqualStringsNoDiff(t *testing.T) {
	out, err := textdiff.Unified("same\ntext\n", "same\ntext\n", 3)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnifiedReportsChangedLine(t *testing.T) {
	a := "line one\nline two\nline three\n"
	b := "line one\nline TWO\nline three\n"
	out, err := textdiff.Unified(a, b, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "@@")
	assert.Contains(t, out, "-line two")
	assert.Contains(t, out, "+line TWO")
}

func TestUnifiedRecognizesBinaryContent(t *testing.T) {
	out, err := textdiff.Unified("\x00a", "\x00b", 3)
	require.NoError(t, err)
	assert.Equal(t, "binary content differs\n", out)
}

func TestUnifiedContextLinesBoundHunkSize(t *testing.T) {
	a := "1\n2\n3\n4\n5\n6\n7\n8\n9\nCHANGED\n"
	b := "1\n2\n3\n4\n5\n6\n7\n8\n9\nchanged\n"
	out, err := textdiff.Unified(a, b, 2)
	require.NoError(t, err)
	assert.Contains(t, out, "-CHANGED")
	assert.Contains(t, out, "+changed")
}
