package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"arena-ledger/internal/keys"
	"arena-ledger/internal/store"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	kind       TEXT NOT NULL,
	location   TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (kind, location)
);
CREATE INDEX IF NOT EXISTS records_kind_updated ON records (kind, updated_at);
`

// SQLiteStore implements store.Store on a single SQLite file. The
// (kind, location) primary key provides insert-if-absent and a single
// connection serialises writers.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sdb.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := sdb.Exec(stmt); err != nil {
			_ = sdb.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	if err := migrateSQLite(sdb); err != nil {
		_ = sdb.Close()
		return nil, err
	}
	return &SQLiteStore{db: sdb}, nil
}

func migrateSQLite(sdb *sql.DB) error {
	for _, raw := range strings.Split(sqliteSchema, ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := sdb.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w (statement=%q)", err, stmt)
		}
	}
	return nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.inTx(ctx, fn, true)
}

func (s *SQLiteStore) View(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return s.inTx(ctx, fn, false)
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error, commit bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, sqliteTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if !commit {
		return tx.Rollback()
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Scan(ctx context.Context, kind store.Kind, fn func(loc keys.Location, decode store.DecodeFunc) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT location, body FROM records WHERE kind = ? ORDER BY location`, string(kind))
	if err != nil {
		return fmt.Errorf("scan %s: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var loc, body string
		if err := rows.Scan(&loc, &body); err != nil {
			return fmt.Errorf("scan %s row: %w", kind, err)
		}
		err := fn(keys.Location(loc), func(out any) error {
			return json.Unmarshal([]byte(body), out)
		})
		if errors.Is(err, store.ErrStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", kind, err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t sqliteTx) Get(ctx context.Context, kind store.Kind, loc keys.Location, out any) error {
	var body string
	err := t.tx.QueryRowContext(ctx, `SELECT body FROM records WHERE kind = ? AND location = ?`, string(kind), string(loc)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", kind, err)
	}
	return json.Unmarshal([]byte(body), out)
}

func (t sqliteTx) Create(ctx context.Context, kind store.Kind, loc keys.Location, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO records (kind, location, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, location) DO NOTHING`,
		string(kind), string(loc), string(body), now, now)
	if err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrDuplicateKey)
	}
	return nil
}

func (t sqliteTx) Put(ctx context.Context, kind store.Kind, loc keys.Location, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE records SET body = ?, updated_at = ? WHERE kind = ? AND location = ?`,
		string(body), time.Now().UTC().Format(time.RFC3339Nano), string(kind), string(loc))
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrNotFound)
	}
	return nil
}
