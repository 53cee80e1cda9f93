package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDeliversManifestChange(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "stage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0o644))

	select {
	case got, ok := <-w.Events:
		require.True(t, ok)
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change event delivered")
	}
}

func TestCloseShutsDownEventStream(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	select {
	case _, ok := <-w.Events:
		assert.False(t, ok, "Events must be closed, not delivering")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after Close")
	}
	select {
	case _, ok := <-w.Errors:
		assert.False(t, ok, "Errors must be closed, not delivering")
	case <-time.After(2 * time.Second):
		t.Fatal("errors channel not closed after Close")
	}
}
