package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"filedrop/internal/model"
	"filedrop/internal/storage"
)

var (
	ErrReaderNil      = errors.New("reader is nil")
	ErrNameRequired   = errors.New("file name is required")
	ErrInvalidName    = errors.New("invalid file name")
	ErrNotFound       = errors.New("file not found")
	ErrTooLarge       = errors.New("file exceeds the upload size limit")
	ErrTypeNotAllowed = errors.New("file type is not allowed")
)

// nameRetries bounds how many millisecond bumps Upload attempts when a stored
// name is already taken.
const nameRetries = 3

// UploadPolicy is the externally configured acceptance policy for uploads.
// Zero values mean no limit and no extension restriction.
type UploadPolicy struct {
	MaxBytes          int64
	AllowedExtensions []string
}

func (p UploadPolicy) allows(ext string) bool {
	if len(p.AllowedExtensions) == 0 {
		return true
	}
	ext = strings.ToLower(ext)
	for _, allowed := range p.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// FileService defines the use cases for handling stored files.
type FileService interface {
	// Upload applies the acceptance policy, derives a unique stored name, and
	// writes the content to the storage backend.
	Upload(ctx context.Context, r io.Reader, originalName string, contentType string, size int64) (*model.StoredFile, error)

	// List returns every stored file, ordered by stored name ascending.
	List(ctx context.Context) ([]model.StoredFile, error)

	// Get returns a stored file's content stream and metadata.
	Get(ctx context.Context, storedName string) (io.ReadCloser, *model.StoredFile, error)

	// Delete removes a stored file. A missing file is ErrNotFound, observably
	// distinct from a successful removal.
	Delete(ctx context.Context, storedName string) error
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store  storage.Storage
	policy UploadPolicy
	now    func() time.Time
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, policy UploadPolicy) FileService {
	return &fileService{store: store, policy: policy, now: time.Now}
}

func (s *fileService) Upload(ctx context.Context, r io.Reader, originalName string, contentType string, size int64) (*model.StoredFile, error) {
	ctx, span := otel.Tracer("filedrop/service").Start(ctx, "FileService.Upload")
	defer span.End()

	if r == nil {
		return nil, ErrReaderNil
	}
	if originalName == "" {
		return nil, ErrNameRequired
	}
	name := sanitizeOriginalName(originalName)
	if name == "" {
		return nil, ErrInvalidName
	}
	if s.policy.MaxBytes > 0 && size > s.policy.MaxBytes {
		return nil, ErrTooLarge
	}
	if !s.policy.allows(filepath.Ext(name)) {
		return nil, ErrTypeNotAllowed
	}

	// Pick a free stored name before consuming the reader. Two uploads of the
	// same name in the same millisecond otherwise collide; bumping the
	// timestamp keeps both. The exclusive Put still guards the race window.
	at := s.now()
	key := storedName(name, at)
	for i := 0; i < nameRetries; i++ {
		rc, _, err := s.store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotExist) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("probe stored name: %w", err)
		}
		rc.Close()
		at = at.Add(time.Millisecond)
		key = storedName(name, at)
	}

	info, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	return &model.StoredFile{
		StoredName:   info.Key,
		OriginalName: name,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ModTime:      info.LastModified,
	}, nil
}

// List maps backend objects to the domain model; the backend listing is the
// only read path, there is no separate index to consult.
func (s *fileService) List(ctx context.Context) ([]model.StoredFile, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list storage: %w", err)
	}

	files := make([]model.StoredFile, 0, len(infos))
	for _, info := range infos {
		files = append(files, model.StoredFile{
			StoredName:   info.Key,
			OriginalName: originalNameFrom(info.Key),
			Size:         info.Size,
			ContentType:  info.ContentType,
			ModTime:      info.LastModified,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].StoredName < files[j].StoredName })
	return files, nil
}

func (s *fileService) Get(ctx context.Context, storedName string) (io.ReadCloser, *model.StoredFile, error) {
	if err := validateStoredName(storedName); err != nil {
		return nil, nil, err
	}

	rc, info, err := s.store.Get(ctx, storedName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get from storage: %w", err)
	}
	return rc, &model.StoredFile{
		StoredName:   info.Key,
		OriginalName: originalNameFrom(info.Key),
		Size:         info.Size,
		ContentType:  info.ContentType,
		ModTime:      info.LastModified,
	}, nil
}

// Delete issues a single remove; the backend's not-exist result is the
// not-found outcome. No existence check precedes it.
func (s *fileService) Delete(ctx context.Context, storedName string) error {
	if err := validateStoredName(storedName); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, storedName); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete storage: %w", err)
	}
	return nil
}
