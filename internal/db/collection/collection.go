// Package collection exposes a storage.Backend document as a typed slice of
// records. Reads are lenient: a document that is empty or cannot be decoded
// is reported as an empty collection, never as an error. Callers therefore
// cannot tell "no records" apart from "unparseable document"; only real I/O
// failures surface, wrapped with models.ErrStorageIO.
//
// Writes are strict: Mutate refuses to replace a non-empty document it could
// not decode, so a single malformed record never wipes the collection.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tareas/internal/db/storage"
	"github.com/patric-chuzhbe/tareas/internal/logger"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

const indent = "  "

// Collection reads and writes one named collection of T records.
//
// Mutate serializes read-modify-write cycles through an in-process mutex.
// Build exactly one Collection per name and share it; separate processes
// writing the same backend are not coordinated.
type Collection[T any] struct {
	name    string
	backend storage.Backend
	mu      sync.Mutex
}

func New[T any](backend storage.Backend, name string) *Collection[T] {
	return &Collection[T]{
		name:    name,
		backend: backend,
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Read returns every record of the collection. The result is never nil.
func (c *Collection[T]) Read(ctx context.Context) ([]T, error) {
	data, err := c.backend.Load(ctx, c.name)
	if err != nil {
		return nil, err
	}

	records, err := c.decode(data)
	if err != nil {
		logger.Log.Warnln(
			"collection document is not valid JSON, treating it as empty",
			"collection", c.name,
			zap.Error(err),
		)
		return []T{}, nil
	}

	return records, nil
}

// Write replaces the whole collection with records, pretty-printed.
func (c *Collection[T]) Write(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", indent)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/collection/collection.go/Write(): error while `json.MarshalIndent()` calling: %w",
			err,
		)
	}

	return c.backend.Save(ctx, c.name, data)
}

// Mutate loads the collection, hands it to fn and persists what fn returns.
// When fn fails nothing is written and its error is returned unchanged.
// A stored document that cannot be decoded is left untouched and reported
// as models.ErrStorageIO.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.backend.Load(ctx, c.name)
	if err != nil {
		return err
	}

	records, err := c.decode(data)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/collection/collection.go/Mutate(): error while `c.decode()` calling for %q: %w: %w",
			c.name,
			models.ErrStorageIO,
			err,
		)
	}

	records, err = fn(records)
	if err != nil {
		return err
	}

	return c.Write(ctx, records)
}

// decode parses a stored document. Empty input and `null` are an empty
// collection; anything else that is not an array of T is an error.
func (c *Collection[T]) decode(data []byte) ([]T, error) {
	records := []T{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		return []T{}, nil
	}

	return records, nil
}
