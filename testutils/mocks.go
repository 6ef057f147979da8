package testutils

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// MemoryBlobStore keeps uploaded objects in memory and hands out
// "memory://" URLs.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	PutErr    error
	DeleteErr error
}

const memoryScheme = "memory://"

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *MemoryBlobStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if m.PutErr != nil {
		return "", m.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return memoryScheme + key, nil
}

func (m *MemoryBlobStore) Delete(ctx context.Context, url string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	key, ok := strings.CutPrefix(url, memoryScheme)
	if !ok {
		return errors.New("not a memory blob url")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// Object returns the stored bytes and content type for a URL returned by Put.
func (m *MemoryBlobStore) Object(url string) ([]byte, string, bool) {
	key := strings.TrimPrefix(url, memoryScheme)

	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

func (m *MemoryBlobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
