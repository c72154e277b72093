package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"converterapi/internal/config"
)

// filesystemStorage implements Storage on a directory of an afero filesystem.
// Concurrent writers of the same key race; the last rename wins.
type filesystemStorage struct {
	fs      afero.Fs
	baseDir string
}

// NewFilesystem creates a Storage rooted at cfg.BaseDir on the OS filesystem.
// A relative BaseDir is resolved against the working directory.
func NewFilesystem(cfg config.StorageConfig) (Storage, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("storage base directory is required")
	}
	dir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	return NewFilesystemWithFs(afero.NewOsFs(), dir)
}

// NewFilesystemWithFs creates a Storage rooted at baseDir on the given filesystem.
// The directory is created if absent.
func NewFilesystemWithFs(fsys afero.Fs, baseDir string) (Storage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("storage base directory is required")
	}
	if err := fsys.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &filesystemStorage{fs: fsys, baseDir: baseDir}, nil
}

func (s *filesystemStorage) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`+"\x00") || filepath.Base(key) != key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key), nil
}

// Put writes to a temp file in the base directory and renames it into place.
func (s *filesystemStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	dst, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	// The directory may have been removed since startup.
	if err := s.fs.MkdirAll(s.baseDir, 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create base directory: %w", err)
	}

	// The temp name does not embed key, so any key that fits the filesystem
	// also fits its temp file.
	tmp, err := afero.TempFile(s.fs, s.baseDir, ".upload-*.tmp")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("write %s: %w", key, err)
	}
	if opt.Size >= 0 && opt.Size != n {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("write %s: wrote %d bytes, expected %d", key, n, opt.Size)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return ObjectInfo{}, err
	}
	if err := s.fs.Rename(tmpName, dst); err != nil {
		cleanup()
		return ObjectInfo{}, fmt.Errorf("rename %s: %w", key, err)
	}

	st, err := s.fs.Stat(dst)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return s.info(key, dst, st, opt.ContentType), nil
}

// Get opens the object for reading. The caller closes the returned reader.
func (s *filesystemStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, fmt.Errorf("open %s: %w", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	return f, s.info(key, p, st, ""), nil
}

func (s *filesystemStorage) info(key, location string, st os.FileInfo, contentType string) ObjectInfo {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return ObjectInfo{
		Key:          key,
		Location:     location,
		Size:         st.Size(),
		ContentType:  contentType,
		LastModified: st.ModTime(),
	}
}
