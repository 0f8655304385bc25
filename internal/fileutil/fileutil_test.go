package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/erraggy/oasprep/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("creates file with mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openapi.json")

		require.NoError(t, WriteFileAtomic(path, []byte("{}\n"), OwnerReadWrite))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "{}\n", string(data))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, OwnerReadWrite, info.Mode().Perm())
	})

	t.Run("replaces existing file and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "openapi.json")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		require.NoError(t, WriteFileAtomic(path, []byte("new"), ReadableByAll))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "openapi.json")

		err := WriteFileAtomic(path, []byte("{}"), OwnerReadWrite)

		var werr *oaserrors.WriteError
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, "create", werr.Op)
		assert.True(t, errors.Is(err, oaserrors.ErrWrite))
	})

	t.Run("refuses symlink", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "target.json")
		require.NoError(t, os.WriteFile(target, []byte("keep"), 0o600))
		link := filepath.Join(dir, "link.json")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}

		err := WriteFileAtomic(link, []byte("new"), OwnerReadWrite)

		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrWrite))
		data, _ := os.ReadFile(target)
		assert.Equal(t, "keep", string(data))
	})
}

func TestRejectSymlink(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, RejectSymlink(filepath.Join(dir, "missing")))

	regular := filepath.Join(dir, "regular")
	require.NoError(t, os.WriteFile(regular, nil, 0o600))
	assert.NoError(t, RejectSymlink(regular))
}
