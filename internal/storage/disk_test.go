package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDisk(t *testing.T) (Storage, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDisk(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewDisk(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "uploads")
		_, err := NewDisk(dir)
		require.NoError(t, err)

		st, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, st.IsDir())
	})

	t.Run("empty dir rejected", func(t *testing.T) {
		_, err := NewDisk("")
		assert.Error(t, err)
	})
}

func TestDiskPut(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestDisk(t)

	t.Run("writes content under key", func(t *testing.T) {
		info, err := store.Put(ctx, "1700000000000-report.pdf", strings.NewReader("hello world"), PutObjectOptions{Size: 11, ContentType: "application/pdf"})
		require.NoError(t, err)

		assert.Equal(t, "1700000000000-report.pdf", info.Key)
		assert.Equal(t, int64(11), info.Size)
		assert.Equal(t, "application/pdf", info.ContentType)

		b, err := os.ReadFile(filepath.Join(dir, "1700000000000-report.pdf"))
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(b))
	})

	t.Run("refuses to overwrite an existing key", func(t *testing.T) {
		_, err := store.Put(ctx, "taken.txt", strings.NewReader("first"), PutObjectOptions{Size: 5})
		require.NoError(t, err)

		_, err = store.Put(ctx, "taken.txt", strings.NewReader("second"), PutObjectOptions{Size: 6})
		assert.ErrorIs(t, err, ErrAlreadyExists)

		b, err := os.ReadFile(filepath.Join(dir, "taken.txt"))
		require.NoError(t, err)
		assert.Equal(t, "first", string(b))
	})

	t.Run("failed read leaves nothing visible", func(t *testing.T) {
		_, err := store.Put(ctx, "broken.bin", failingReader{}, PutObjectOptions{Size: -1})
		assert.Error(t, err)

		_, err = os.Stat(filepath.Join(dir, "broken.bin"))
		assert.True(t, os.IsNotExist(err))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), tempPrefix), "temp file %s left behind", e.Name())
		}
	})

	t.Run("path-like key rejected", func(t *testing.T) {
		for _, key := range []string{"", ".", "..", "../escape.txt", "a/b.txt", `a\b.txt`, tempPrefix + "x"} {
			_, err := store.Put(ctx, key, strings.NewReader("x"), PutObjectOptions{Size: 1})
			assert.Error(t, err, "key %q", key)
		}
	})
}

func TestDiskGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestDisk(t)

	_, err := store.Put(ctx, "1700000000000-notes.txt", strings.NewReader("some notes"), PutObjectOptions{Size: 10})
	require.NoError(t, err)

	t.Run("streams content with info", func(t *testing.T) {
		rc, info, err := store.Get(ctx, "1700000000000-notes.txt")
		require.NoError(t, err)
		defer rc.Close()

		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "some notes", string(b))
		assert.Equal(t, int64(10), info.Size)
		assert.Contains(t, info.ContentType, "text/plain")
	})

	t.Run("missing key", func(t *testing.T) {
		_, _, err := store.Get(ctx, "absent.txt")
		assert.ErrorIs(t, err, ErrNotExist)
	})
}

func TestDiskList(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestDisk(t)

	t.Run("empty directory yields empty slice", func(t *testing.T) {
		infos, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
		assert.NotNil(t, infos)
	})

	t.Run("lists objects, skips temp files and subdirectories", func(t *testing.T) {
		_, err := store.Put(ctx, "1700000000000-a.txt", strings.NewReader("a"), PutObjectOptions{Size: 1})
		require.NoError(t, err)
		_, err = store.Put(ctx, "1700000000001-b.txt", strings.NewReader("bb"), PutObjectOptions{Size: 2})
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"123"), []byte("partial"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

		infos, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "1700000000000-a.txt", infos[0].Key)
		assert.Equal(t, "1700000000001-b.txt", infos[1].Key)
		assert.Equal(t, int64(2), infos[1].Size)
	})
}

func TestDiskDelete(t *testing.T) {
	ctx := context.Background()
	store, dir := newTestDisk(t)

	_, err := store.Put(ctx, "1700000000000-gone.txt", strings.NewReader("x"), PutObjectOptions{Size: 1})
	require.NoError(t, err)

	t.Run("removes exactly the named object", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "1700000000000-gone.txt"))

		_, err := os.Stat(filepath.Join(dir, "1700000000000-gone.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("second delete reports not-exist", func(t *testing.T) {
		assert.ErrorIs(t, store.Delete(ctx, "1700000000000-gone.txt"), ErrNotExist)
	})

	t.Run("never-uploaded key reports not-exist and leaves directory unchanged", func(t *testing.T) {
		before, err := store.List(ctx)
		require.NoError(t, err)

		assert.ErrorIs(t, store.Delete(ctx, "never-uploaded.txt"), ErrNotExist)

		after, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
