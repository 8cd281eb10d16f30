package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// syncSchema migrates the live database to match the declarative schema
// definition. It diffs the live schema against a throwaway database built
// from the definition, then drops removed tables, creates new ones, rebuilds
// changed ones following the twelve-step procedure from
// https://www.sqlite.org/lang_altertable.html#otheralter, and finally
// reconciles indexes and triggers.
//
// The approach is based on https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) syncSchema(ctx context.Context, schema string) error {
	start := time.Now()

	detach, err := db.attachGoalSchema(ctx, schema)
	if err != nil {
		return fmt.Errorf("attach goal schema: %w", err)
	}
	defer detach()

	// Table rebuilds violate foreign keys mid-flight, so validation is
	// suspended until the migration commits.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			// Running without foreign key validation risks corrupting data.
			db.logger.LogAttrs(ctx, slog.LevelError, "cannot re-enable foreign keys, exiting",
				slog.Any("error", fkErr))
			os.Exit(1)
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()

	if err = db.reconcileTables(ctx, tx); err != nil {
		return fmt.Errorf("reconcile tables: %w", err)
	}
	for _, kind := range []objectKind{kindTrigger, kindIndex} {
		if err = db.reconcileObjects(ctx, tx, kind); err != nil {
			return fmt.Errorf("reconcile %ss: %w", kind, err)
		}
	}

	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database",
		slog.Duration("duration", time.Since(start)))
	return nil
}

// attachGoalSchema builds an in-memory database from the schema definition
// and attaches it as "goal". The returned function detaches it.
func (db *Database) attachGoalSchema(ctx context.Context, schema string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	goalDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open goal database: %w", err)
	}
	defer func() {
		if closeErr := goalDB.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close goal database",
				slog.Any("error", closeErr))
		}
	}()

	if _, err = goalDB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("execute schema definition: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS goal", dsn); err != nil {
		return nil, fmt.Errorf("attach goal database: %w", err)
	}

	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE goal"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach goal database",
				slog.Any("error", detachErr))
		}
	}, nil
}

// rollback returns a deferred rollback that tolerates committed transactions.
func (db *Database) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				slog.Any("error", err))
		}
	}
}

// reconcileTables drops removed tables, creates new ones, and rebuilds those
// whose definition changed.
func (db *Database) reconcileTables(ctx context.Context, tx *sql.Tx) error {
	removed, err := db.selectStrings(ctx, tx, `
SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN goal.sqlite_schema AS goal ON live.name = goal.name AND live.type = goal.type
WHERE live.type = 'table'
  AND goal.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("select removed tables: %w", err)
	}
	for _, table := range removed {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "dropping table", slog.String("table", table))
		if _, err = tx.ExecContext(ctx, "DROP TABLE "+table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}

	added, err := db.selectStrings(ctx, tx, `
SELECT goal.sql
FROM sqlite_schema AS live
         RIGHT JOIN goal.sqlite_schema AS goal ON live.name = goal.name AND live.type = goal.type
WHERE goal.type = 'table'
  AND live.type IS NULL
  AND goal.name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("select added tables: %w", err)
	}
	for _, createSQL := range added {
		db.logger.LogAttrs(ctx, slog.LevelInfo, "creating table", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// ALTER TABLE ... RENAME quotes the table name in sqlite_schema, so the
	// quotes are stripped before comparing definitions.
	changed, err := db.selectDiffs(ctx, tx, `
SELECT live.name, live.sql, goal.sql
FROM sqlite_schema AS live
         JOIN goal.sqlite_schema AS goal ON live.name = goal.name AND live.type = goal.type
WHERE live.type = 'table'
  AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(goal.sql, '"', '')`)
	if err != nil {
		return fmt.Errorf("select changed tables: %w", err)
	}
	for _, diff := range changed {
		if err = db.rebuildTable(ctx, tx, diff); err != nil {
			return fmt.Errorf("rebuild table %s: %w", diff.name, err)
		}
	}
	return nil
}

// rebuildTable recreates a table under a temporary name, copies the columns
// both versions share, and swaps the new table in.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, diff schemaDiff) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "rebuilding table",
		slog.String("table", diff.name),
		slog.String("live_sql", diff.liveSQL),
		slog.String("goal_sql", diff.goalSQL))

	tempName := diff.name + "_rebuild"
	createSQL := strings.Replace(diff.goalSQL, diff.name, tempName, 1)
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create temporary table: %w", err)
	}

	// Column names are quoted in case one of them is an SQL keyword.
	shared, err := db.selectStrings(ctx, tx, `
SELECT '"' || goal.name || '"'
FROM PRAGMA_TABLE_INFO(:table) AS live
         JOIN PRAGMA_TABLE_INFO(:table, 'goal') AS goal ON goal.name = live.name`,
		sql.Named("table", diff.name))
	if err != nil {
		return fmt.Errorf("select shared columns: %w", err)
	}

	columns := strings.Join(shared, ", ")
	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", //nolint:gosec // schema-derived names.
		tempName, columns, columns, diff.name)
	if _, err = tx.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE "+diff.name); err != nil {
		return fmt.Errorf("drop old table: %w", err)
	}
	renameSQL := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, diff.name)
	if _, err = tx.ExecContext(ctx, renameSQL); err != nil {
		return fmt.Errorf("rename temporary table: %w", err)
	}
	return nil
}

type objectKind string

const (
	kindTrigger objectKind = "trigger"
	kindIndex   objectKind = "index"
)

// reconcileObjects synchronizes triggers or indexes with the goal schema.
// Changed objects are dropped and recreated since they carry no data.
func (db *Database) reconcileObjects(ctx context.Context, tx *sql.Tx, kind objectKind) error {
	logger := db.logger.With(slog.String("kind", string(kind)))

	removed, err := db.selectStrings(ctx, tx, `
SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN goal.sqlite_schema AS goal ON live.name = goal.name AND live.type = goal.type
WHERE live.type = ?
  AND goal.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`, kind)
	if err != nil {
		return fmt.Errorf("select removed: %w", err)
	}

	changed, err := db.selectDiffs(ctx, tx, `
SELECT live.name, live.sql, goal.sql
FROM sqlite_schema AS live
         JOIN goal.sqlite_schema AS goal ON live.name = goal.name AND live.type = goal.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND live.sql <> goal.sql`, kind)
	if err != nil {
		return fmt.Errorf("select changed: %w", err)
	}
	for _, diff := range changed {
		removed = append(removed, diff.name)
	}

	for _, name := range removed {
		dropSQL := fmt.Sprintf("DROP %s %s", strings.ToUpper(string(kind)), name)
		logger.LogAttrs(ctx, slog.LevelInfo, "dropping", slog.String("query", dropSQL))
		if _, err = tx.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop %s %s: %w", kind, name, err)
		}
	}

	added, err := db.selectStrings(ctx, tx, `
SELECT goal.sql
FROM sqlite_schema AS live
         RIGHT JOIN goal.sqlite_schema AS goal ON live.name = goal.name AND live.type = goal.type
WHERE goal.type = ?
  AND live.type IS NULL
  AND goal.name NOT LIKE 'sqlite_%'`, kind)
	if err != nil {
		return fmt.Errorf("select added: %w", err)
	}
	for _, diff := range changed {
		added = append(added, diff.goalSQL)
	}

	for _, createSQL := range added {
		logger.LogAttrs(ctx, slog.LevelInfo, "creating", slog.String("query", createSQL))
		if _, err = tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("create %s: %w", kind, err)
		}
	}
	return nil
}

type schemaDiff struct {
	name    string
	liveSQL string
	goalSQL string
}

// selectStrings runs a single-column query and collects the values.
func (db *Database) selectStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) (results []string, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	for rows.Next() {
		var value string
		if err = rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, value)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}

// selectDiffs runs a (name, live sql, goal sql) query and collects the rows.
func (db *Database) selectDiffs(ctx context.Context, tx *sql.Tx, query string, args ...any) (diffs []schemaDiff, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	for rows.Next() {
		var diff schemaDiff
		if err = rows.Scan(&diff.name, &diff.liveSQL, &diff.goalSQL); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		diffs = append(diffs, diff)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return diffs, nil
}
