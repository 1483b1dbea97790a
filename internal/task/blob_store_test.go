package task

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBlobStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "blobs")
	store, err := NewFileBlobStore(dir, setupTestLogger())
	require.NoError(t, err)
	assert.DirExists(t, dir)

	audio := testAudio(7)
	path, err := store.Put("audio_task_1", audio)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "audio_task_1.wav"), path)
	assert.True(t, store.Exists(path))

	data, err := store.Read(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	require.NoError(t, store.Delete(path))
	assert.False(t, store.Exists(path))

	// Deleting twice is fine
	assert.NoError(t, store.Delete(path))

	_, err = store.Read(path)
	assert.ErrorIs(t, err, ErrMissingAudio)

	var blobErr *BlobError
	require.True(t, errors.As(err, &blobErr))
	assert.Equal(t, "read", blobErr.Op)
	assert.Equal(t, path, blobErr.Path)
}

func TestNewFileBlobStore_RequiresDir(t *testing.T) {
	_, err := NewFileBlobStore("", setupTestLogger())
	assert.Error(t, err)
}

func TestFileBlobStore_Exists(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileBlobStore(dir, setupTestLogger())
	require.NoError(t, err)

	assert.False(t, store.Exists(""))
	assert.False(t, store.Exists(dir), "directories are not blobs")
}

func TestBlobName(t *testing.T) {
	assert.Equal(t, "audio_task_1712345678901", blobName("audio_task_1712345678901"))

	tests := []struct {
		id     string
		prefix string
	}{
		{"../../etc/passwd", "_.._etc_passwd_"},
		{"clip 1", "clip_1_"},
		{"...", "audio_task_"},
		{"", "audio_task_"},
	}

	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			name := blobName(tc.id)
			assert.True(t, strings.HasPrefix(name, tc.prefix), name)
			assert.Len(t, name, len(tc.prefix)+8)
			assert.NotContains(t, name, "/")
		})
	}
}

func TestBlobName_DistinctIDs(t *testing.T) {
	ids := []string{"a/b", "a_b", "a b", "a:b", "a\\b", ".a_b"}
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		name := blobName(id)
		if other, ok := seen[name]; ok {
			t.Fatalf("ids %q and %q both map to %q", other, id, name)
		}
		seen[name] = id
	}
}

func TestFileBlobStore_DistinctIDsGetDistinctPaths(t *testing.T) {
	store, err := NewFileBlobStore(t.TempDir(), setupTestLogger())
	require.NoError(t, err)

	slashPath, err := store.Put("a/b", testAudio(1))
	require.NoError(t, err)
	underscorePath, err := store.Put("a_b", testAudio(2))
	require.NoError(t, err)
	assert.NotEqual(t, slashPath, underscorePath)

	require.NoError(t, store.Delete(slashPath))
	assert.False(t, store.Exists(slashPath))
	assert.True(t, store.Exists(underscorePath))
}

func TestFileBlobStore_PutNeverOverwrites(t *testing.T) {
	store, err := NewFileBlobStore(t.TempDir(), setupTestLogger())
	require.NoError(t, err)

	first, err := store.Put("clip", testAudio(1))
	require.NoError(t, err)
	firstData, err := store.Read(first)
	require.NoError(t, err)

	second, err := store.Put("clip", testAudio(9))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Dir(first), filepath.Dir(second))

	data, err := store.Read(first)
	require.NoError(t, err)
	assert.Equal(t, firstData, data)
}
