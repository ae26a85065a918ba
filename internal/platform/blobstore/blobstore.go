// Package blobstore stores uploaded patient media (photos or clips
// attached to exercise completions). It defines the Store interface and
// an in-memory implementation suitable for development and tests.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed blob size in bytes (50 MB).
const MaxFileSize = 50 * 1024 * 1024

// AllowedContentTypes lists the media types patients may attach.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"video/mp4":       true,
	"video/quicktime": true,
	"application/pdf": true,
}

// BlobMetadata describes a stored blob. The core persists only the ID;
// URL, size and content type are returned to the caller.
type BlobMetadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
}

// Store is the storage collaborator consumed by the completion service.
type Store interface {
	Put(ctx context.Context, fileName, contentType, createdBy string, r io.Reader) (*BlobMetadata, error)
	Get(ctx context.Context, id string) (*BlobMetadata, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	metas map[string]*BlobMetadata
	data  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		metas: make(map[string]*BlobMetadata),
		data:  make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(_ context.Context, fileName, contentType, createdBy string, r io.Reader) (*BlobMetadata, error) {
	if fileName == "" {
		return nil, ErrMissingFileName
	}
	if !AllowedContentTypes[contentType] {
		return nil, ErrInvalidContentType
	}

	// Read one byte past the limit to detect oversized payloads.
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	id := uuid.NewString()
	meta := &BlobMetadata{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		URL:         "/api/v1/media/" + id,
		Hash:        fmt.Sprintf("%x", sha256.Sum256(data)),
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   createdBy,
	}

	s.mu.Lock()
	s.metas[id] = meta
	s.data[id] = data
	s.mu.Unlock()

	return meta, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*BlobMetadata, io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metas[id]
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	return meta, io.NopCloser(bytes.NewReader(s.data[id])), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.metas[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.metas, id)
	delete(s.data, id)
	return nil
}
