// Package sqlite provides a SQLite-backed implementation of store.Backend.
// It is the default local store of the terminal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"posterminal/pkg/store"

	// Pure-Go driver, registers "sqlite".
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id  INTEGER PRIMARY KEY AUTOINCREMENT,
    doc TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS sales (
    id  INTEGER PRIMARY KEY AUTOINCREMENT,
    doc TEXT    NOT NULL
);
`

// Backend is the SQLite implementation of store.Backend.
type Backend struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Backend, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: open %q", path)
	}
	// One connection: keeps a :memory: database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite: apply schema")
	}
	return &Backend{db: db}, nil
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// GetAll returns the records of ns ordered by id.
func (b *Backend) GetAll(ctx context.Context, ns store.Namespace) ([]store.Record, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, "SELECT id, doc FROM "+string(ns)+" ORDER BY id")
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: list %s", ns)
	}
	defer rows.Close()
	var out []store.Record
	for rows.Next() {
		var (
			rec store.Record
			doc string
		)
		if err := rows.Scan(&rec.ID, &doc); err != nil {
			return nil, errors.Wrapf(err, "sqlite: scan %s", ns)
		}
		rec.Data = []byte(doc)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Add inserts data and returns the generated id.
func (b *Backend) Add(ctx context.Context, ns store.Namespace, data []byte) (int64, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return 0, err
	}
	res, err := b.db.ExecContext(ctx, "INSERT INTO "+string(ns)+" (doc) VALUES (?)", string(data))
	if err != nil {
		return 0, errors.Wrapf(err, "sqlite: insert into %s", ns)
	}
	return res.LastInsertId()
}

// Put replaces the record with id.
func (b *Backend) Put(ctx context.Context, ns store.Namespace, id int64, data []byte) error {
	if err := store.CheckNamespace(ns); err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, "UPDATE "+string(ns)+" SET doc = ? WHERE id = ?", string(data), id)
	if err != nil {
		return errors.Wrapf(err, "sqlite: update %s %d", ns, id)
	}
	return affected(res)
}

// Delete removes the record with id.
func (b *Backend) Delete(ctx context.Context, ns store.Namespace, id int64) error {
	if err := store.CheckNamespace(ns); err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, "DELETE FROM "+string(ns)+" WHERE id = ?", id)
	if err != nil {
		return errors.Wrapf(err, "sqlite: delete %s %d", ns, id)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
