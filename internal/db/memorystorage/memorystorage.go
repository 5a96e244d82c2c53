// Package memorystorage is a process-local Backend used when no file,
// database or Redis location is configured, and throughout the tests.
package memorystorage

import (
	"context"
	"sync"

	"github.com/patric-chuzhbe/tareas/internal/db/storage"
)

type MemoryStorage struct {
	mu          sync.RWMutex
	collections map[string][]byte
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		collections: map[string][]byte{},
	}, nil
}

func (theStorage *MemoryStorage) Load(ctx context.Context, name string) ([]byte, error) {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	data, ok := theStorage.collections[name]
	if !ok {
		data = append([]byte(nil), storage.EmptyCollection...)
		theStorage.collections[name] = data
	}

	return append([]byte(nil), data...), nil
}

func (theStorage *MemoryStorage) Save(ctx context.Context, name string, data []byte) error {
	theStorage.mu.Lock()
	defer theStorage.mu.Unlock()

	theStorage.collections[name] = append([]byte(nil), data...)

	return nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
