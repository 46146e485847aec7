package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/config"
)

func TestInitializeThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Initialize(dir))

	c, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "DQMCollector", c.CollectorName)
	assert.Equal(t, "Global", c.RunControlName)
	assert.Equal(t, "binarybus", c.TransportBackend)
	assert.Len(t, c.EncryptionKeyBytes(), 32)
	assert.Equal(t, filepath.Join(dir, "archive"), c.ArchiveDirectoryPath())
}

func TestInitializeRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Initialize(dir))
	assert.Error(t, config.Initialize(dir))
}

func TestLoadRejectsPermissiveMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Initialize(dir))
	require.NoError(t, os.Chmod(filepath.Join(dir, "config"), 0644))
	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), []byte("bogus-key value\n"), 0600))
	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestLoadDefaultsApplyWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config"), []byte("listen-addr 127.0.0.1:1234\n"), 0600))
	c, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "DQMCollector", c.CollectorName)
	assert.Equal(t, "tcp", c.ListenNet)
	assert.Equal(t, "info", c.LogLevel)
}
