package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"koken/internal/recipe"
)

// ErrNoSnapshot is returned when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Info describes the saved snapshot.
type Info struct {
	Source  string
	TakenAt time.Time
	Count   int
}

// Store keeps the last successfully loaded recipe collection so it can be
// browsed offline.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS recipes (
	position INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	document TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	source TEXT NOT NULL,
	taken_at TEXT NOT NULL,
	count INTEGER NOT NULL
);`
	_, err := s.db.Exec(ddl)
	return err
}

// SaveSnapshot replaces the stored collection with records, keeping their
// order. The write is a single transaction.
func (s *Store) SaveSnapshot(ctx context.Context, source string, records []recipe.RawRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM recipes;`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recipes (position, title, document) VALUES (?, ?, ?);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		doc, mErr := json.Marshal(r)
		if mErr != nil {
			return fmt.Errorf("encode %q: %w", r.Title, mErr)
		}
		if _, err = stmt.ExecContext(ctx, i, r.Title, string(doc)); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
INSERT INTO snapshot (id, source, taken_at, count) VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET source = excluded.source, taken_at = excluded.taken_at, count = excluded.count;`,
		source, now, len(records))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored records in their saved order.
func (s *Store) LoadSnapshot(ctx context.Context) ([]recipe.RawRecord, error) {
	if _, err := s.SnapshotInfo(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT title, document FROM recipes ORDER BY position;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []recipe.RawRecord{}
	for rows.Next() {
		var title, doc string
		if err := rows.Scan(&title, &doc); err != nil {
			return nil, err
		}
		var r recipe.RawRecord
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("decode %q: %w", title, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) SnapshotInfo(ctx context.Context) (Info, error) {
	var info Info
	var takenAt string
	err := s.db.QueryRowContext(ctx, `SELECT source, taken_at, count FROM snapshot WHERE id = 1;`).
		Scan(&info.Source, &takenAt, &info.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, ErrNoSnapshot
	}
	if err != nil {
		return Info{}, err
	}
	if parsed, err := time.Parse(time.RFC3339, takenAt); err == nil {
		info.TakenAt = parsed
	}
	return info, nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
