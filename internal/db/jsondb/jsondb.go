// Package jsondb keeps every collection in its own pretty-printed JSON file
// inside a single directory. A file that does not exist yet is created
// holding an empty array the first time it is read.
package jsondb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/patric-chuzhbe/tareas/internal/db/storage"
	"github.com/patric-chuzhbe/tareas/internal/logger"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

const fileExtension = ".json"

// JSONDB is a file-per-collection storage backend.
type JSONDB struct {
	dir string
}

// New returns a JSONDB rooted at dir. The directory is created when missing.
func New(dir string) (*JSONDB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/New(): error while `os.MkdirAll()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return &JSONDB{dir: dir}, nil
}

// FileName returns the path of the file backing the named collection.
func (db *JSONDB) FileName(name string) string {
	return filepath.Join(db.dir, name+fileExtension)
}

// initDBFile creates the collection file with an empty array. O_EXCL keeps a
// concurrent bootstrap from truncating a file another request just wrote.
func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := dbFile.Write(storage.EmptyCollection); err != nil {
		_ = dbFile.Close()
		return err
	}

	return dbFile.Close()
}

// Load reads the whole collection file, bootstrapping it when absent.
func (db *JSONDB) Load(ctx context.Context, name string) ([]byte, error) {
	fileName := db.FileName(name)

	data, err := os.ReadFile(fileName)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/Load(): error while `os.ReadFile()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	logger.Log.Warnln("collection file not found, creating a new one", "file", fileName)
	if err := initDBFile(fileName); err != nil {
		return nil, fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/Load(): error while `initDBFile()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	data, err = os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/Load(): error while `os.ReadFile()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return data, nil
}

// Save overwrites the collection file in full.
func (db *JSONDB) Save(ctx context.Context, name string, data []byte) error {
	file, err := os.OpenFile(db.FileName(name), os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/Save(): error while `os.OpenFile()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return writeAndClose(file, data)
}

// writeAndClose writes data and closes file. A failed close counts as a
// failed write.
func writeAndClose(file io.WriteCloser, data []byte) error {
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/writeAndClose(): error while `file.Write()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf(
			"in internal/db/jsondb/jsondb.go/writeAndClose(): error while `file.Close()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return nil
}

// Ping reports whether the storage directory is still reachable.
func (db *JSONDB) Ping(ctx context.Context) error {
	info, err := os.Stat(db.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorageIO, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", models.ErrStorageIO, db.dir)
	}

	return nil
}

func (db *JSONDB) Close() error {
	return nil
}
