package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
	"dealdesk/internal/storage"
)

type UploadInput struct {
	Filename   string
	MimeType   string
	Size       int64
	UploaderID string
	DealID     *string
	Body       io.Reader
}

type FileService interface {
	Upload(ctx context.Context, in UploadInput) (*models.File, error)
	Get(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context, dealID string) ([]models.File, error)
	// Open returns the metadata row and a reader over the stored bytes.
	// The caller closes the reader.
	Open(ctx context.Context, id string) (*models.File, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

type fileService struct {
	repo    repositories.FileRepository
	store   storage.Store
	maxSize int64
	now     Clock
	logger  *zap.Logger
}

func NewFileService(repo repositories.FileRepository, store storage.Store, maxSize int64, now Clock, logger *zap.Logger) FileService {
	return &fileService{repo: repo, store: store, maxSize: maxSize, now: now, logger: logger}
}

func (s *fileService) Upload(ctx context.Context, in UploadInput) (*models.File, error) {
	uploader := strings.TrimSpace(in.UploaderID)
	if uploader == "" {
		return nil, models.Invalid("uploader_id is required")
	}
	if in.Body == nil {
		return nil, models.Invalid("file is required")
	}
	if s.maxSize > 0 && in.Size > s.maxSize {
		return nil, models.Invalid(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		name = "upload"
	}
	mime := in.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}

	id := newID()
	key := "files/" + id
	body := in.Body
	if s.maxSize > 0 {
		body = io.LimitReader(in.Body, s.maxSize+1)
	}
	info, err := s.store.Put(ctx, key, body, storage.PutOptions{ContentType: mime})
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}
	size := info.Size
	if size == 0 {
		size = in.Size
	}
	if s.maxSize > 0 && size > s.maxSize {
		s.discard(ctx, key)
		return nil, models.Invalid(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}

	f := &models.File{
		ID:          id,
		DealID:      in.DealID,
		UploaderID:  uploader,
		Filename:    name,
		MimeType:    mime,
		SizeBytes:   size,
		StoragePath: key,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	return f, nil
}

func (s *fileService) Get(ctx context.Context, id string) (*models.File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *fileService) List(ctx context.Context, dealID string) ([]models.File, error) {
	return s.repo.List(ctx, dealID)
}

func (s *fileService) Open(ctx context.Context, id string) (*models.File, io.ReadCloser, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	_, rc, err := s.store.Get(ctx, f.StoragePath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("file %s content: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open file %s: %w", id, err)
	}
	return f, rc, nil
}

// Delete removes the stored bytes, then the row. Deleting an unknown id
// is not an error.
func (s *fileService) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.store.Delete(ctx, f.StoragePath); err != nil {
		return fmt.Errorf("delete file content: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *fileService) discard(ctx context.Context, key string) {
	if _, err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("orphaned blob", zap.String("key", key), zap.Error(err))
	}
}
