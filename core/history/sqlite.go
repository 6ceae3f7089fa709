package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists versions to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection also keeps in-memory
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS roster_versions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        week_start TEXT NOT NULL,
        version INTEGER NOT NULL,
        created_at INTEGER NOT NULL,
        event_type TEXT,
        record TEXT NOT NULL,
        UNIQUE(week_start, version)
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Commit stores v as the next version of its week.
func (s *SQLiteStore) Commit(ctx context.Context, v Version) (Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Version{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM roster_versions WHERE week_start = ?`,
		v.WeekStart).Scan(&latest); err != nil {
		return Version{}, err
	}
	v.Version = latest + 1
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Version{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roster_versions (week_start, version, created_at, event_type, record) VALUES (?, ?, ?, ?, ?)`,
		v.WeekStart, v.Version, v.CreatedAt.UnixNano(), string(v.EventType), string(b)); err != nil {
		return Version{}, fmt.Errorf("insert version %d of %s: %w", v.Version, v.WeekStart, err)
	}
	return v, tx.Commit()
}

// Latest returns the highest version of week.
func (s *SQLiteStore) Latest(ctx context.Context, week string) (Version, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM roster_versions WHERE week_start = ? ORDER BY version DESC LIMIT 1`,
		week).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, ErrNotFound
	}
	if err != nil {
		return Version{}, err
	}
	var v Version
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return Version{}, fmt.Errorf("unmarshal version: %w", err)
	}
	return v, nil
}

// List returns versions of week, or all versions when week is empty.
func (s *SQLiteStore) List(ctx context.Context, week string) ([]Version, error) {
	query := `SELECT record FROM roster_versions ORDER BY created_at, id`
	var args []any
	if week != "" {
		query = `SELECT record FROM roster_versions WHERE week_start = ? ORDER BY version`
		args = append(args, week)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []Version{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v Version
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("unmarshal version: %w", err)
		}
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
