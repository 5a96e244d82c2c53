// Package mockstorage provides a testify-based mock implementation
// of storage.Backend. It lets tests simulate a backend that fails
// or returns arbitrary documents.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// StorageMock is a testify mock that implements storage.Backend.
type StorageMock struct {
	mock.Mock
}

// Load mocks reading a collection document.
func (m *StorageMock) Load(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// Save mocks replacing a collection document.
func (m *StorageMock) Save(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

// Ping mocks the backend health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
