// Package postgres provides a PostgreSQL-backed implementation of
// store.Backend.
package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"posterminal/pkg/store"

	_ "github.com/lib/pq"
)

// Schema creates one table per namespace.
const Schema = `
CREATE TABLE IF NOT EXISTS products (id BIGSERIAL PRIMARY KEY, doc JSONB NOT NULL);
CREATE TABLE IF NOT EXISTS sales (id BIGSERIAL PRIMARY KEY, doc JSONB NOT NULL);
`

// Backend persists records in PostgreSQL.
type Backend struct {
	db *sql.DB
}

// Open connects to dsn and applies Schema.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: open")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "postgres: ping")
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "postgres: create tables")
	}
	return New(db), nil
}

// New creates a PostgreSQL backend. The caller must ensure Schema has been
// applied to db.
func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// GetAll fetches every record of ns ordered by id.
func (b *Backend) GetAll(ctx context.Context, ns store.Namespace) ([]store.Record, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx, "SELECT id, doc FROM "+string(ns)+" ORDER BY id")
	if err != nil {
		return nil, errors.Wrapf(err, "postgres: list %s", ns)
	}
	defer rows.Close()
	var out []store.Record
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, errors.Wrapf(err, "postgres: scan %s", ns)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Add inserts a new record.
func (b *Backend) Add(ctx context.Context, ns store.Namespace, data []byte) (int64, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return 0, err
	}
	var id int64
	err := b.db.QueryRowContext(ctx, "INSERT INTO "+string(ns)+" (doc) VALUES ($1) RETURNING id", string(data)).Scan(&id)
	if err != nil {
		return 0, errors.Wrapf(err, "postgres: insert into %s", ns)
	}
	return id, nil
}

// Put updates an existing record.
func (b *Backend) Put(ctx context.Context, ns store.Namespace, id int64, data []byte) error {
	if err := store.CheckNamespace(ns); err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, "UPDATE "+string(ns)+" SET doc=$2 WHERE id=$1", id, string(data))
	if err != nil {
		return errors.Wrapf(err, "postgres: update %s %d", ns, id)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a record by id.
func (b *Backend) Delete(ctx context.Context, ns store.Namespace, id int64) error {
	if err := store.CheckNamespace(ns); err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, "DELETE FROM "+string(ns)+" WHERE id=$1", id)
	if err != nil {
		return errors.Wrapf(err, "postgres: delete %s %d", ns, id)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
