// Package redisdb stores each collection document under its own Redis key.
package redisdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/patric-chuzhbe/tareas/internal/db/storage"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

const keyPrefix = "tareas:collection:"

type RedisDB struct {
	client  *redis.Client
	timeout time.Duration
}

// New connects to Redis and fails fast when the server does not answer a ping.
func New(ctx context.Context, addr, password string, db int, timeout time.Duration) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	result := &RedisDB{
		client:  client,
		timeout: timeout,
	}
	if err := result.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf(
			"in internal/db/redisdb/redisdb.go/New(): error while `result.Ping()` calling: %w",
			err,
		)
	}

	return result, nil
}

func key(name string) string {
	return keyPrefix + name
}

// Load returns the document stored under the collection key. A missing key is
// set to an empty array with SETNX so concurrent bootstraps cannot clobber data.
func (db *RedisDB) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := db.client.Get(ctx, key(name)).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf(
			"in internal/db/redisdb/redisdb.go/Load(): error while `db.client.Get()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	if err := db.client.SetNX(ctx, key(name), storage.EmptyCollection, 0).Err(); err != nil {
		return nil, fmt.Errorf(
			"in internal/db/redisdb/redisdb.go/Load(): error while `db.client.SetNX()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	data, err = db.client.Get(ctx, key(name)).Bytes()
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/redisdb/redisdb.go/Load(): error while `db.client.Get()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return data, nil
}

func (db *RedisDB) Save(ctx context.Context, name string, data []byte) error {
	if err := db.client.Set(ctx, key(name), data, 0).Err(); err != nil {
		return fmt.Errorf(
			"in internal/db/redisdb/redisdb.go/Save(): error while `db.client.Set()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return nil
}

func (db *RedisDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.timeout)
	defer cancel()

	return db.client.Ping(ctxWithTimeout).Err()
}

func (db *RedisDB) Close() error {
	return db.client.Close()
}
