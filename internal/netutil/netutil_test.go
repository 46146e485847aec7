package netutil_test

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/netutil"
)

func TestListenRebindsStaleUnixSocket(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "collector.sock")

	first, err := net.Listen("unix", sock)
	require.NoError(t, err)
	// Simulate a crash: the process exits without removing the socket
	// file, but nothing is listening on it any more.
	require.NoError(t, first.Close())

	second, err := netutil.Listen("unix", sock)
	require.NoError(t, err)
	defer second.Close()
}

func TestListenTCPIsUnaffected(t *testing.T) {
	ln, err := netutil.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.NotEmpty(t, ln.Addr().String())
}

func TestWaitForListenerSucceedsOnceBound(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = netutil.WaitForListener(ln.Addr().String(), 2*time.Second)
	assert.NoError(t, err)
}

func TestWaitForListenerTimesOutWhenNothingListens(t *testing.T) {
	err := netutil.WaitForListener("127.0.0.1:1", 300*time.Millisecond)
	assert.Error(t, err)
}
