package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// Memory keeps objects in process. Used for local runs without a media host
// and in tests, where FailStore/FailDelete/FailSign inject faults.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	FailStore  error
	FailDelete error
	FailSign   error
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}, types: map[string]string{}}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Store(_ context.Context, r io.Reader, _ int64, folder, filename, contentType string) (Object, error) {
	if m.FailStore != nil {
		return Object{}, m.FailStore
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return Object{}, err
	}
	key := MakeObjectKey(folder, filename)
	m.mu.Lock()
	m.objects[key] = b
	m.types[key] = contentType
	m.mu.Unlock()
	return Object{ID: key, URL: "memory://" + key}, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	if m.FailDelete != nil {
		return m.FailDelete
	}
	m.mu.Lock()
	delete(m.objects, id)
	delete(m.types, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) SignedURL(_ context.Context, id string, ttl time.Duration) (string, error) {
	if m.FailSign != nil {
		return "", m.FailSign
	}
	if !m.Has(id) {
		return "", errors.New("object not found")
	}
	return fmt.Sprintf("memory://%s?expires=%d", id, int(ttl.Seconds())), nil
}

// Has reports whether id is stored.
func (m *Memory) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok
}

// Len is the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
