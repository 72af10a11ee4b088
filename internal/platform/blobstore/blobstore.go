// Package blobstore archives generated report files per trainer. It defines
// the BlobStore interface, an in-memory implementation for development and
// tests, an S3 implementation, and the Echo handlers that list and download
// a trainer's archived reports.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fittracker/fittracker/internal/platform/apperr"
)

var (
	ErrBlobNotFound    = fmt.Errorf("%w: report", apperr.ErrNotFound)
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMissingFileName = errors.New("file name is required")
	ErrMissingOwner    = errors.New("owner is required")
)

// MaxFileSize is the largest blob accepted, in bytes.
const MaxFileSize = 25 * 1024 * 1024

// BlobMetadata describes a stored blob. OwnerID is the trainer's user id;
// every lookup is scoped by it.
type BlobMetadata struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	StudentID   string    `json:"student_id,omitempty"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStore is implemented by the archive backends. A blob owned by
// someone else behaves as missing.
type BlobStore interface {
	Upload(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Download(ctx context.Context, ownerID, id string) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, ownerID, id string) error
	// List returns the owner's blobs newest first with the total before
	// paging.
	List(ctx context.Context, ownerID string, limit, offset int) ([]*BlobMetadata, int, error)
}

// readLimited reads content and fails when it exceeds MaxFileSize.
func readLimited(content io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

func checkMeta(meta BlobMetadata) error {
	if meta.OwnerID == "" {
		return ErrMissingOwner
	}
	if meta.FileName == "" {
		return ErrMissingFileName
	}
	return nil
}

func page(items []*BlobMetadata, limit, offset int) []*BlobMetadata {
	if limit <= 0 {
		limit = 20
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func newestFirst(items []*BlobMetadata) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

// InMemoryBlobStore is a thread-safe, in-memory BlobStore. Its contents are
// lost on restart.
type InMemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
	now   func() time.Time
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs: make(map[string]*storedBlob),
		now:   time.Now,
	}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	if err := checkMeta(meta); err != nil {
		return nil, err
	}
	data, err := readLimited(content)
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(data)
	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = s.now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *InMemoryBlobStore) lookup(ownerID, id string) (*storedBlob, error) {
	blob, ok := s.blobs[id]
	if !ok || blob.metadata.OwnerID != ownerID {
		return nil, ErrBlobNotFound
	}
	return blob, nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, ownerID, id string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, err := s.lookup(ownerID, id)
	s.mu.RUnlock()
	if err != nil {
		return nil, nil, err
	}

	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(ownerID, id); err != nil {
		return err
	}
	delete(s.blobs, id)
	return nil
}

func (s *InMemoryBlobStore) List(_ context.Context, ownerID string, limit, offset int) ([]*BlobMetadata, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*BlobMetadata{}
	for _, b := range s.blobs {
		if b.metadata.OwnerID != ownerID {
			continue
		}
		m := b.metadata
		matched = append(matched, &m)
	}
	newestFirst(matched)
	return page(matched, limit, offset), len(matched), nil
}
