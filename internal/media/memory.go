package media

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"
)

// MemoryStore keeps media bytes in process. Used in tests and local runs
// without object storage.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, schoolID string, up *Upload) (string, error) {
	data, err := io.ReadAll(up.Reader)
	if err != nil {
		return "", err
	}
	ref := objectName(schoolID, up)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ref] = data
	return ref, nil
}

func (s *MemoryStore) Release(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

// SignedURL returns memory://<ref>?ttl=<seconds> for stored refs.
func (s *MemoryStore) SignedURL(_ context.Context, ref string, ttl time.Duration) (string, error) {
	if !s.Has(ref) {
		return "", ErrNotFound
	}
	return "memory://" + ref + "?ttl=" + strconv.Itoa(int(ttl.Seconds())), nil
}

// Has reports whether ref is currently stored.
func (s *MemoryStore) Has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[ref]
	return ok
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
