// Package sqlite opens the application database and keeps its schema in
// sync with the declarative definition in schema.sql.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

const (
	driverName = "sqlite3_tuned"

	// SQLite allows exactly one writer, so the read-write pool is capped at
	// a single connection while reads fan out over a pool.
	readPoolSize = 10

	connMaxLifetime = time.Hour
)

// Database bundles a single-writer read-write connection and a pooled
// read-only connection to the same SQLite file.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase opens the database at url, migrates the schema, and seeds the
// exercise catalog. Pass ":memory:" for an ephemeral database.
//
// Splitting reads and writes over two connections follows
// https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := open(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err = db.syncSchema(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("sync schema: %w", err)
	}

	// The fixtures seed the exercise catalog and are idempotent.
	if _, err = db.ReadWrite.ExecContext(ctx, fixtures); err != nil {
		return nil, fmt.Errorf("apply fixtures: %w", err)
	}

	go db.startDatabaseOptimizer(ctx)

	return db, nil
}

//nolint:gochecknoglobals // guards the one-time driver registration.
var registerDriver sync.Once

// tunedDriver registers a driver variant that applies performance pragmas
// on every new connection.
func tunedDriver() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// Keep temporary tables and indices in memory, and map the
			// database file into memory to cut down on read syscalls.
			pragmas := "PRAGMA temp_store = memory; PRAGMA mmap_size = 30000000000;"
			if _, err := conn.Exec(pragmas, nil); err != nil {
				return fmt.Errorf("exec connection pragmas: %w", err)
			}
			return nil
		},
	})
}

// connOptions are shared by both connections. The underscore-prefixed keys
// are go-sqlite3 driver options, the rest are SQLite URI parameters, see
// https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open and
// https://www.sqlite.org/uri.html.
func connOptions() string {
	return strings.Join([]string{
		// Timestamps use the current time.Location.
		"_loc=auto",
		// Foreign key violations inside a transaction are checked at commit.
		"_defer_foreign_keys=1",
		// Write-ahead logging allows concurrent readers alongside the writer.
		"_journal_mode=wal",
		// Wait instead of returning SQLITE_BUSY when the database is under load.
		"_busy_timeout=5000",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
}

func open(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	// In-memory databases need shared cache mode so both connections see the
	// same data. A random file name keeps parallel tests isolated, see
	// https://www.sqlite.org/inmemorydb.html.
	memoryOptions := ""
	if strings.Contains(url, ":memory:") {
		url = "file:" + rand.Text()
		memoryOptions = "mode=memory&cache=shared"
	}

	readDSN := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s&%s",
		url, connOptions(), memoryOptions)
	writeDSN := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s&%s",
		url, connOptions(), memoryOptions)

	registerDriver.Do(tunedDriver)

	writeDB, err := sql.Open(driverName, writeDSN)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)
	writeDB.SetConnMaxLifetime(connMaxLifetime)
	writeDB.SetConnMaxIdleTime(connMaxLifetime)

	// sql.Open is lazy, so ping to surface connection errors immediately.
	if err = writeDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping read-write database: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("dsn", writeDSN))

	readDB, err := sql.Open(driverName, readDSN)
	if err != nil {
		return nil, fmt.Errorf("open read-only database: %w", err)
	}
	readDB.SetMaxOpenConns(readPoolSize)
	readDB.SetMaxIdleConns(readPoolSize)
	readDB.SetConnMaxLifetime(connMaxLifetime)
	readDB.SetConnMaxIdleTime(connMaxLifetime)

	return &Database{
		ReadWrite: writeDB,
		ReadOnly:  readDB,
		logger:    logger,
	}, nil
}

// Close closes both connection pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}
