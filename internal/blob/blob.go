// Package blob abstracts the object storage holding uploaded file bytes. The
// primary deployment points at a shared directory; tests use the in-memory
// implementation.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"verichain/internal/errs"
)

// Store fetches and stores file bytes by opaque reference.
type Store interface {
	Put(ctx context.Context, ref string, data []byte) error
	Get(ctx context.Context, ref string) ([]byte, error)
}

// FileStore keeps blobs as files under a root directory. References are
// relative paths; anything escaping the root is rejected.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) resolve(ref string) (string, error) {
	clean := filepath.Clean("/" + ref)
	return filepath.Join(s.root, clean), nil
}

func (s *FileStore) Put(_ context.Context, ref string, data []byte) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create blob directory for %s: %w", ref, err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", ref, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFoundf("blob %s", ref)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", ref, err)
	}
	return data, nil
}

// MemoryStore is the in-process blob store used in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, ref string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.blobs[ref] = stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[ref]
	if !ok {
		return nil, errs.NotFoundf("blob %s", ref)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
