package disk

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateSparse_ExactLength(t *testing.T) {
	for _, sizeMB := range []int64{1, 3, 64, 1024} {
		path := filepath.Join(t.TempDir(), "disk.img")

		require.NoError(t, newTestManager().CreateSparse(path, sizeMB))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, sizeMB*1048576, info.Size(), "size %d MB", sizeMB)
	}
}

func TestCreateSparse_TrailingByteIsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, newTestManager().CreateSparse(path, 1))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 1)
	_, err = f.ReadAt(buf, 1048575)
	require.NoError(t, err)
	assert.Equal(t, byte(0), buf[0])
}

func TestCreateSparse_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	err := newTestManager().CreateSparse(path, 1)
	require.ErrorIs(t, err, ErrImageExists)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))
}

func TestCreateSparse_InvalidSize(t *testing.T) {
	assert.Error(t, newTestManager().CreateSparse(filepath.Join(t.TempDir(), "disk.img"), 0))
}

func TestBackupExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "web.img")
	require.NoError(t, os.WriteFile(path, []byte("old install"), 0o644))

	backup, moved, err := newTestManager().BackupExisting(path, ".old")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, path+".old", backup)

	assert.NoFileExists(t, path)
	got, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "old install", string(got))
}

func TestBackupExisting_NothingToBackUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.img")

	backup, moved, err := newTestManager().BackupExisting(path, ".old")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, backup)
}
