package media

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("media object not found")

// MemoryStore keeps uploads in process memory. Used in development when no
// media host is configured, and as the store double in tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(ctx context.Context, filename string, content io.Reader) (*Object, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.objects[id] = data
	s.mu.Unlock()

	return &Object{ID: id, URL: "memory://" + id + "/" + filename}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[id]; !ok {
		return ErrNotFound
	}
	delete(s.objects, id)
	return nil
}

// Len reports the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
