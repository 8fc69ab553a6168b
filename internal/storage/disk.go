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
)

// tempPrefix marks in-flight writes; List skips these names.
const tempPrefix = ".tmp-"

// diskStorage implements Storage on a single flat directory.
// It is safe for concurrent use: writes land in a temp file and are linked into
// place exclusively, so readers never observe a partial object and concurrent
// puts of the same key cannot clobber each other.
type diskStorage struct {
	dir string
}

// NewDisk creates a disk-backed Storage rooted at dir, creating it if missing.
func NewDisk(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &diskStorage{dir: dir}, nil
}

// validateKey rejects keys that would escape the flat namespace.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if key != filepath.Base(key) || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("key must be a single path element: %q", key)
	}
	if strings.HasPrefix(key, tempPrefix) {
		return fmt.Errorf("key uses a reserved prefix: %q", key)
	}
	return nil
}

// Put streams the content to a temp file in the same directory, syncs it, then
// links it into place. The link fails if the key is taken, and a failed upload
// leaves nothing visible.
func (d *diskStorage) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	tmp, err := os.CreateTemp(d.dir, tempPrefix+"*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return ObjectInfo{}, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ObjectInfo{}, fmt.Errorf("sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close temp file: %w", err)
	}

	dst := filepath.Join(d.dir, key)
	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ObjectInfo{}, ErrAlreadyExists
		}
		return ObjectInfo{}, fmt.Errorf("link object into place: %w", err)
	}

	st, err := os.Stat(dst)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         written,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

// Get opens the object for streaming reads along with basic info.
func (d *diskStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	f, err := os.Open(filepath.Join(d.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ObjectInfo{}, ErrNotExist
		}
		return nil, ObjectInfo{}, fmt.Errorf("open object: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	info := ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  mime.TypeByExtension(filepath.Ext(key)),
		LastModified: st.ModTime(),
	}
	return f, info, nil
}

// List enumerates the directory, skipping subdirectories and in-flight temp files.
func (d *diskStorage) List(ctx context.Context) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	infos := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		st, err := entry.Info()
		if err != nil {
			// Raced with a delete; the object is simply gone.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		infos = append(infos, ObjectInfo{
			Key:          name,
			Size:         st.Size(),
			ContentType:  mime.TypeByExtension(filepath.Ext(name)),
			LastModified: st.ModTime(),
		})
	}
	return infos, nil
}

// Delete removes the object in a single call; the OS not-exist error is the
// not-found outcome, so there is no check-then-remove window.
func (d *diskStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(d.dir, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
