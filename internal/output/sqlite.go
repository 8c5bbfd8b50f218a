package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/sbaggregate/internal/decode"
)

const schemaVersion = 1

// ErrSchemaMismatch is returned when an existing database was created by an
// incompatible release.
var ErrSchemaMismatch = errors.New("results schema mismatch")

// SQLiteStore persists the output tables of aggregation runs.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the results database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE schema_version (version INTEGER NOT NULL)",
		fmt.Sprintf("INSERT INTO schema_version (version) VALUES (%d)", schemaVersion),
		`CREATE TABLE runs (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, table := range decode.TableNamesInOrder {
		cols := []string{"run_id TEXT NOT NULL REFERENCES runs(id)", "workflow TEXT NOT NULL", "version TEXT NOT NULL"}
		for _, c := range decode.Columns(table) {
			typ := "TEXT"
			if c == "page" {
				typ = "INTEGER"
			}
			cols = append(cols, quote(c)+" "+typ)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(cols, ", ")))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return tx.Commit()
}

// Save stores every table of results under runID in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, runID, input string, results []*decode.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, input, created_at) VALUES (?, ?, ?)",
		runID, input, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, table := range decode.TableNamesInOrder {
		cols := decode.Columns(table)
		names := []string{"run_id", "workflow", "version"}
		for _, c := range cols {
			names = append(names, quote(c))
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(table), strings.Join(names, ", "), placeholders))
		if err != nil {
			return fmt.Errorf("prepare %s: %w", table, err)
		}

		for _, res := range results {
			for _, row := range res.Rows(table) {
				args := []any{runID, res.Workflow.Name, res.Workflow.Key.Version.String()}
				for _, v := range row {
					args = append(args, v)
				}
				if _, err := stmt.ExecContext(ctx, args...); err != nil {
					stmt.Close()
					return fmt.Errorf("insert %s row: %w", table, err)
				}
			}
		}
		stmt.Close()
	}
	return tx.Commit()
}

// Count returns the number of rows stored for a run in one table.
func (s *SQLiteStore) Count(ctx context.Context, runID, table string) (int, error) {
	if decode.Columns(table) == nil {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE run_id = ?", quote(table)), runID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// quote makes a table or column name safe to use as an identifier; "index"
// is a reserved word.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
