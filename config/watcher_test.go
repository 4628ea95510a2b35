package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bellhop-ai/bellhop/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFileWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bellhop.yaml")
	writeConfig(t, path, "server:\n  port: 8080\n")

	w, err := config.NewFileWatcher(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, 8080, w.Current().Server.Port)
	sub := w.Subscribe()

	writeConfig(t, path, "server:\n  port: 9090\n")

	select {
	case cfg := <-sub:
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 9090, w.Current().Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload notification")
	}
}

func TestFileWatcherRejectsInvalidUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bellhop.yaml")
	writeConfig(t, path, "server:\n  port: 8080\n")

	w, err := config.NewFileWatcher(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Close()

	writeConfig(t, path, "server:\n  port: -5\n")

	// the bad write must not replace the live config
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, 8080, w.Current().Server.Port)
}

func TestFileWatcherMissingFile(t *testing.T) {
	_, err := config.NewFileWatcher(filepath.Join(t.TempDir(), "nope.yaml"), zaptest.NewLogger(t))
	assert.Error(t, err)
}
