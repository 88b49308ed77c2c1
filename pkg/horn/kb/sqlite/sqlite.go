package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
)

// sqliteStore implements the kb.Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (kb.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS relations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	arity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS facts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	relation_id INTEGER NOT NULL,
	args TEXT NOT NULL,
	UNIQUE(relation_id, args),
	FOREIGN KEY(relation_id) REFERENCES relations(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Declare implements kb.Sink.
func (s *sqliteStore) Declare(ctx context.Context, relation string, arity int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := declare(ctx, tx, relation, arity); err != nil {
		return err
	}
	return tx.Commit()
}

// declare returns the row id of relation, inserting it when missing.
func declare(ctx context.Context, tx *sql.Tx, relation string, arity int) (int64, error) {
	if relation == "" || arity <= 0 {
		return 0, fmt.Errorf("%w: relation %q with arity %d", internalerr.ErrInvalidInput, relation, arity)
	}

	var (
		id       int64
		existing int
	)
	err := tx.QueryRowContext(ctx, `SELECT id, arity FROM relations WHERE name = ?`, relation).Scan(&id, &existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `INSERT INTO relations (name, arity) VALUES (?, ?)`, relation, arity)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	case err != nil:
		return 0, err
	case existing != arity:
		return 0, fmt.Errorf("%w: relation %s has arity %d, got %d", internalerr.ErrInvalidInput, relation, existing, arity)
	}
	return id, nil
}

// AddFact implements kb.Sink. Duplicate facts are ignored.
func (s *sqliteStore) AddFact(ctx context.Context, f kb.Fact) (bool, error) {
	args, err := json.Marshal(f.Args)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	relID, err := declare(ctx, tx, f.Relation, len(f.Args))
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO facts (relation_id, args) VALUES (?, ?)`, relID, string(args))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Relations implements kb.Store.
func (s *sqliteStore) Relations(ctx context.Context) ([]kb.RelationInfo, error) {
	const query = `
SELECT r.name, r.arity, COUNT(f.id)
FROM relations r
LEFT JOIN facts f ON f.relation_id = r.id
GROUP BY r.id
ORDER BY r.id;
`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []kb.RelationInfo
	for rows.Next() {
		var info kb.RelationInfo
		if err := rows.Scan(&info.Name, &info.Arity, &info.Records); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Facts implements kb.Store.
func (s *sqliteStore) Facts(ctx context.Context, relation string) ([]kb.Fact, error) {
	var relID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM relations WHERE name = ?`, relation).Scan(&relID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: relation %s", internalerr.ErrNotFound, relation)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT args FROM facts WHERE relation_id = ? ORDER BY id`, relID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []kb.Fact
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var args []string
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("decode args of %s: %w", relation, err)
		}
		out = append(out, kb.Fact{Relation: relation, Args: args})
	}
	return out, rows.Err()
}
