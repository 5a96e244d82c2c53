// Package storage declares the contract every persistence backend fulfils:
// a set of named collections, each stored as one whole JSON document.
package storage

import "context"

// EmptyCollection is the document a missing collection is bootstrapped with.
var EmptyCollection = []byte("[]")

// Backend stores whole collection documents by name.
//
// Load must create a missing collection as EmptyCollection and return it,
// so a first read never fails on a fresh store. Save replaces the document
// entirely; there are no partial or append writes. Failures other than
// "missing" are reported wrapped with models.ErrStorageIO.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)

	Save(ctx context.Context, name string, data []byte) error

	Ping(ctx context.Context) error

	Close() error
}
