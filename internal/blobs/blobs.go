// Package blobs keeps uploaded attachment bytes in memory for the lifetime
// of the process. References handed out by Put stop resolving on restart.
package blobs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown blob ids.
var ErrNotFound = errors.New("blob not found")

// ErrTooLarge is returned when a blob exceeds the configured limit.
var ErrTooLarge = errors.New("blob too large")

// Blob is a stored upload.
type Blob struct {
	ID       string
	Name     string
	MimeType string
	Data     []byte
}

// Store is an in-memory blob registry.
type Store struct {
	mu       sync.RWMutex
	blobs    map[string]Blob
	maxBytes int64
}

// NewStore creates a registry rejecting blobs larger than maxBytes.
// A non-positive maxBytes disables the limit.
func NewStore(maxBytes int64) *Store {
	return &Store{blobs: make(map[string]Blob), maxBytes: maxBytes}
}

// Put stores data and returns the new blob.
func (s *Store) Put(name, mimeType string, data []byte) (Blob, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Blob{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, name, len(data), s.maxBytes)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	b := Blob{
		ID:       uuid.New().String(),
		Name:     name,
		MimeType: mimeType,
		Data:     append([]byte(nil), data...),
	}

	s.mu.Lock()
	s.blobs[b.ID] = b
	s.mu.Unlock()
	return b, nil
}

// Get returns a stored blob.
func (s *Store) Get(id string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return b, nil
}

// Delete drops the named blobs. Unknown ids are ignored.
func (s *Store) Delete(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.blobs, id)
	}
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// MaxBytes returns the per-blob size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}
