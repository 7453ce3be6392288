// Package local_test tests the local filesystem blob store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/page-archiver/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingBaseDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "archive")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "testfile")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("NestedPathCreatesParents", func(t *testing.T) {
		data := []byte("<html>hello</html>")
		changed, err := store.PutObject(ctx, "sites/example.com/index.html", data)
		require.NoError(t, err)
		assert.True(t, changed)

		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, "sites", "example.com", "index.html"))
		require.NoError(t, err)
		assert.Equal(t, data, readData)
	})

	t.Run("IdenticalContentIsUnchanged", func(t *testing.T) {
		data := []byte("same bytes")
		changed, err := store.PutObject(ctx, "same.html", data)
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = store.PutObject(ctx, "same.html", data)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("OverwriteReplacesContent", func(t *testing.T) {
		_, err := store.PutObject(ctx, "page.html", []byte("old"))
		require.NoError(t, err)
		changed, err := store.PutObject(ctx, "page.html", []byte("new"))
		require.NoError(t, err)
		assert.True(t, changed)

		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, "page.html"))
		require.NoError(t, err)
		assert.Equal(t, "new", string(readData))

		matches, err := filepath.Glob(filepath.Join(tempDir, ".page.html.tmp-*"))
		require.NoError(t, err)
		assert.Empty(t, matches, "temp files must not be left behind")
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(ctx, "", []byte("data"))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.PutObject(ctx, "../escape.html", []byte("data"))
		assert.Error(t, err)
		_, err = store.PutObject(ctx, "/etc/passwd", []byte("data"))
		assert.Error(t, err)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.PutObject(canceled, "canceled.html", []byte("data"))
		assert.Error(t, err)
		_, statErr := os.Stat(filepath.Join(tempDir, "canceled.html"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestResolveRelativeBaseDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	store, err := local.New(local.Config{BaseDir: "."})
	require.NoError(t, err)

	full, err := store.Resolve("sites/example.com/index.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("sites", "example.com", "index.html"), full)

	_, err = store.Resolve("../outside.html")
	assert.Error(t, err)
	_, err = store.Resolve(".")
	assert.Error(t, err)

	changed, err := store.PutObject(context.Background(), "sites/example.com/index.html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.True(t, changed)
	_, err = os.Stat(filepath.Join(dir, "sites", "example.com", "index.html"))
	require.NoError(t, err)
}
