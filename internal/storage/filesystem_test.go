package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"converterapi/internal/config"
)

func newMemStore(t *testing.T) (Storage, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	s, err := NewFilesystemWithFs(fsys, "/data/ppt")
	require.NoError(t, err)
	return s, fsys
}

func TestNewFilesystemWithFs(t *testing.T) {
	t.Run("creates base directory", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		_, err := NewFilesystemWithFs(fsys, "/nested/dir/ppt")
		require.NoError(t, err)

		ok, err := afero.DirExists(fsys, "/nested/dir/ppt")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty base directory", func(t *testing.T) {
		_, err := NewFilesystemWithFs(afero.NewMemMapFs(), "")
		assert.Error(t, err)
	})

	t.Run("read-only filesystem", func(t *testing.T) {
		_, err := NewFilesystemWithFs(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/ppt")
		assert.Error(t, err)
	})
}

func TestNewFilesystem(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystem(config.StorageConfig{BaseDir: dir + "/ppt"})
	require.NoError(t, err)

	info, err := s.Put(context.Background(), "a.pptx", strings.NewReader("abc"), PutObjectOptions{Size: 3})
	require.NoError(t, err)
	assert.Equal(t, dir+"/ppt/a.pptx", info.Location)

	_, err = NewFilesystem(config.StorageConfig{})
	assert.Error(t, err)
}

func TestFilesystemStorage_PutGet(t *testing.T) {
	ctx := context.Background()
	s, fsys := newMemStore(t)

	info, err := s.Put(ctx, "report.pptx", strings.NewReader("slides"), PutObjectOptions{Size: 6, ContentType: "application/x-test"})
	require.NoError(t, err)
	assert.Equal(t, "report.pptx", info.Key)
	assert.Equal(t, "/data/ppt/report.pptx", info.Location)
	assert.Equal(t, int64(6), info.Size)
	assert.Equal(t, "application/x-test", info.ContentType)

	rc, got, err := s.Get(ctx, "report.pptx")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "slides", string(body))
	assert.Equal(t, int64(6), got.Size)
	assert.Equal(t, "/data/ppt/report.pptx", got.Location)

	// no temp files left behind
	entries, err := afero.ReadDir(fsys, "/data/ppt")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.pptx", entries[0].Name())
}

func TestFilesystemStorage_PutLongKey(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystem(config.StorageConfig{BaseDir: dir})
	require.NoError(t, err)

	key := strings.Repeat("a", 240) + ".pptx"
	info, err := s.Put(context.Background(), key, strings.NewReader("abc"), PutObjectOptions{Size: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Name())
}

func TestFilesystemStorage_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t)

	_, err := s.Put(ctx, "same.pptx", strings.NewReader("first version"), PutObjectOptions{Size: -1})
	require.NoError(t, err)
	_, err = s.Put(ctx, "same.pptx", strings.NewReader("second"), PutObjectOptions{Size: -1})
	require.NoError(t, err)

	rc, info, err := s.Get(ctx, "same.pptx")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(body))
	assert.Equal(t, int64(6), info.Size)
}

func TestFilesystemStorage_PutRecreatesMissingDir(t *testing.T) {
	ctx := context.Background()
	s, fsys := newMemStore(t)
	require.NoError(t, fsys.RemoveAll("/data/ppt"))

	_, err := s.Put(ctx, "x.pptx", strings.NewReader("x"), PutObjectOptions{Size: 1})
	require.NoError(t, err)

	ok, _ := afero.Exists(fsys, "/data/ppt/x.pptx")
	assert.True(t, ok)
}

func TestFilesystemStorage_PutErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("size mismatch leaves nothing behind", func(t *testing.T) {
		s, fsys := newMemStore(t)
		_, err := s.Put(ctx, "short.pptx", strings.NewReader("abc"), PutObjectOptions{Size: 10})
		assert.Error(t, err)

		entries, _ := afero.ReadDir(fsys, "/data/ppt")
		assert.Empty(t, entries)
	})

	t.Run("reader failure", func(t *testing.T) {
		s, fsys := newMemStore(t)
		_, err := s.Put(ctx, "broken.pptx", io.MultiReader(strings.NewReader("ab"), errReader{}), PutObjectOptions{Size: -1})
		assert.ErrorContains(t, err, "boom")

		ok, _ := afero.Exists(fsys, "/data/ppt/broken.pptx")
		assert.False(t, ok)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s, _ := newMemStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Put(cctx, "c.pptx", strings.NewReader("c"), PutObjectOptions{Size: 1})
		assert.ErrorIs(t, err, context.Canceled)
	})

	for _, key := range []string{"", ".", "..", "../escape.pptx", "dir/file.pptx", `dir\file.pptx`} {
		t.Run("invalid key "+key, func(t *testing.T) {
			s, _ := newMemStore(t)
			_, err := s.Put(ctx, key, strings.NewReader("x"), PutObjectOptions{Size: 1})
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestFilesystemStorage_GetErrors(t *testing.T) {
	ctx := context.Background()
	s, fsys := newMemStore(t)

	t.Run("missing", func(t *testing.T) {
		_, _, err := s.Get(ctx, "missing.pptx")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		require.NoError(t, fsys.MkdirAll("/data/ppt/dir.pptx", 0o755))
		_, _, err := s.Get(ctx, "dir.pptx")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("traversal", func(t *testing.T) {
		_, _, err := s.Get(ctx, "../secret")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestFilesystemStorage_ConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Put(ctx, "race.pptx", strings.NewReader("payload"), PutObjectOptions{Size: 7})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rc, info, err := s.Get(ctx, "race.pptx")
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, int64(7), info.Size)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }
