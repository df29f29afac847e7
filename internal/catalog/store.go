package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/cqlsem/internal/ir"
	"github.com/roach88/cqlsem/internal/schema"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added UNIQUE index on columns(table_id, name)
const currentSchemaVersion = 1

// Store is a persistent catalog backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens a catalog database at the given path.
// Applies required pragmas and migrations automatically.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if _, err := db.Exec(`
			CREATE UNIQUE INDEX IF NOT EXISTS idx_columns_table_name
			ON columns(table_id, name)
		`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// PutTable stores t, replacing any table with the same keyspace and name.
//
// A table whose definition is unchanged keeps its existing id. Otherwise a
// fresh uuid is assigned. The id is written back to t.ID and returned.
func (s *Store) PutTable(ctx context.Context, t *schema.TableDesc) (string, error) {
	fp, err := t.Fingerprint()
	if err != nil {
		return "", fmt.Errorf("put table %s: %w", t.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("put table %s: %w", t.Name, err)
	}
	defer tx.Rollback()

	var existingID, existingFP string
	err = tx.QueryRowContext(ctx,
		`SELECT id, fingerprint FROM tables WHERE keyspace = ? AND name = ?`,
		t.Name.Keyspace, t.Name.Name,
	).Scan(&existingID, &existingFP)
	switch {
	case err == nil && existingFP == fp:
		t.ID = existingID
		return existingID, nil
	case err == nil:
		if _, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, existingID); err != nil {
			return "", fmt.Errorf("put table %s: replace: %w", t.Name, err)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("put table %s: %w", t.Name, err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tables (id, keyspace, name, fingerprint) VALUES (?, ?, ?, ?)`,
		id, t.Name.Keyspace, t.Name.Name, fp,
	); err != nil {
		return "", fmt.Errorf("put table %s: %w", t.Name, err)
	}

	for _, c := range t.Columns {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO columns (table_id, idx, column_id, name, type, role)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, c.Index, c.ID, c.Name, c.Type.String(), c.Role()); err != nil {
			return "", fmt.Errorf("put table %s: column %q: %w", t.Name, c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("put table %s: commit: %w", t.Name, err)
	}
	t.ID = id
	return id, nil
}

// DeleteTable removes a table. Deleting a missing table returns ErrNotFound.
func (s *Store) DeleteTable(ctx context.Context, name schema.TableName) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tables WHERE keyspace = ? AND name = ?`, name.Keyspace, name.Name)
	if err != nil {
		return fmt.Errorf("delete table %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete table %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete table %s: %w", name, ErrNotFound)
	}
	return nil
}

// GetTable loads one table.
func (s *Store) GetTable(ctx context.Context, name schema.TableName) (*schema.TableDesc, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM tables WHERE keyspace = ? AND name = ?`, name.Keyspace, name.Name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get table %s: %w", name, err)
	}
	return s.loadTable(ctx, id, name)
}

// ListTables loads every table ordered by keyspace, then name.
func (s *Store) ListTables(ctx context.Context) ([]*schema.TableDesc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, keyspace, name FROM tables
		ORDER BY keyspace COLLATE BINARY ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	type ref struct {
		id   string
		name schema.TableName
	}
	var refs []ref
	for rows.Next() {
		var r ref
		if err := rows.Scan(&r.id, &r.name.Keyspace, &r.name.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list tables: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list tables: %w", err)
	}
	// Release the single connection before loading columns.
	rows.Close()

	tables := make([]*schema.TableDesc, 0, len(refs))
	for _, r := range refs {
		t, err := s.loadTable(ctx, r.id, r.name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Snapshot loads the whole catalog into an immutable Memory catalog.
func (s *Store) Snapshot(ctx context.Context) (*Memory, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return NewMemory(tables...), nil
}

func (s *Store) loadTable(ctx context.Context, id string, name schema.TableName) (*schema.TableDesc, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, role FROM columns
		WHERE table_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", name, err)
	}
	defer rows.Close()

	var specs []schema.ColumnSpec
	for rows.Next() {
		var colName, typeName, role string
		if err := rows.Scan(&colName, &typeName, &role); err != nil {
			return nil, fmt.Errorf("load table %s: %w", name, err)
		}
		typ, ok := ir.ParseDataType(typeName)
		if !ok {
			return nil, fmt.Errorf("load table %s: column %q has unknown type %q", name, colName, typeName)
		}
		specs = append(specs, schema.ColumnSpec{
			Name:   colName,
			Type:   typ,
			Hash:   role == "hash",
			Range:  role == "range",
			Static: role == "static",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load table %s: %w", name, err)
	}

	t, err := schema.NewTable(name, specs)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", name, err)
	}
	t.ID = id
	return t, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
