// Package postgresdb provides a PostgreSQL-based implementation of
// storage.Backend. Each collection is one row of the `collections` table
// holding the whole JSON document as text, so the stored bytes are exactly
// what was saved.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/tareas/internal/db/storage"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

var openDB = sql.Open

// PostgresDB is a PostgreSQL-backed collection store.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every public table before migration.
// It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs the embedded schema migrations, and returns a configured PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := openDB("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if err := result.migrate(ctx, options.DBPreReset); err != nil {
		return nil, errors.Join(err, database.Close())
	}

	return result, nil
}

// migrate optionally drops every public table, then applies the embedded migrations.
func (db *PostgresDB) migrate(ctx context.Context, preReset bool) error {
	if preReset {
		if err := db.resetDB(ctx); err != nil {
			return fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/migrate(): error while `db.resetDB()` calling: %w",
				err,
			)
		}
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/migrate(): error while `goose.SetDialect()` calling: %w",
			err,
		)
	}

	if err := goose.UpContext(ctx, db.database, migrationsDir); err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/migrate(): error while `goose.UpContext()` calling: %w",
			err,
		)
	}

	return nil
}

// Load returns the stored document, inserting an empty one when the row is absent.
func (db *PostgresDB) Load(ctx context.Context, name string) ([]byte, error) {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO collections ("name", "body") VALUES ($1, $2) ON CONFLICT ("name") DO NOTHING`,
		name,
		string(storage.EmptyCollection),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/Load(): error while `db.database.ExecContext()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	row := db.database.QueryRowContext(
		ctx,
		`SELECT "body" FROM collections WHERE "name" = $1`,
		name,
	)
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return append([]byte(nil), storage.EmptyCollection...), nil
		}
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/Load(): error while `row.Scan()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return []byte(body), nil
}

// Save upserts the whole document of the named collection.
func (db *PostgresDB) Save(ctx context.Context, name string, data []byte) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO collections ("name", "body")
				VALUES ($1, $2)
				ON CONFLICT ("name") DO UPDATE SET "body" = EXCLUDED."body"
		`,
		name,
		string(data),
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/Save(): error while `db.database.ExecContext()` calling: %w: %w",
			models.ErrStorageIO,
			err,
		)
	}

	return nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}
