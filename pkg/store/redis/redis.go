// Package redis provides a Redis-backed implementation of store.Backend.
//
// Each namespace is a hash keyed by record id, and ids come from an INCR
// counter next to it:
//
//	<prefix>:products      hash id -> doc
//	<prefix>:products:seq  last assigned id
package redis

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"posterminal/pkg/store"
)

// DefaultPrefix namespaces the keys of the terminal.
const DefaultPrefix = "pos"

// Backend keeps records in Redis hashes.
type Backend struct {
	rdb    goredis.UniversalClient
	prefix string
}

// New wraps an existing client. An empty prefix means DefaultPrefix.
func New(rdb goredis.UniversalClient, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{rdb: rdb, prefix: prefix}
}

// Open connects to addr and checks the connection.
func Open(ctx context.Context, addr, password string, db int, prefix string) (*Backend, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "redis: ping %s", addr)
	}
	return New(rdb, prefix), nil
}

// Close closes the client.
func (b *Backend) Close() error {
	return b.rdb.Close()
}

// GetAll returns the records of ns ordered by id.
func (b *Backend) GetAll(ctx context.Context, ns store.Namespace) ([]store.Record, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return nil, err
	}
	m, err := b.rdb.HGetAll(ctx, b.key(ns)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis: list %s", ns)
	}
	out := make([]store.Record, 0, len(m))
	for field, doc := range m {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "redis: bad id %q in %s", field, ns)
		}
		out = append(out, store.Record{ID: id, Data: []byte(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Add stores data under the next id of ns.
func (b *Backend) Add(ctx context.Context, ns store.Namespace, data []byte) (int64, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return 0, err
	}
	id, err := b.rdb.Incr(ctx, b.key(ns)+":seq").Result()
	if err != nil {
		return 0, errors.Wrapf(err, "redis: next id for %s", ns)
	}
	if err := b.rdb.HSet(ctx, b.key(ns), field(id), data).Err(); err != nil {
		return 0, errors.Wrapf(err, "redis: insert into %s", ns)
	}
	return id, nil
}

// Put replaces an existing record.
func (b *Backend) Put(ctx context.Context, ns store.Namespace, id int64, data []byte) error {
	if err := store.CheckNamespace(ns); err != nil {
		return err
	}
	ok, err := b.rdb.HExists(ctx, b.key(ns), field(id)).Result()
	if err != nil {
		return errors.Wrapf(err, "redis: lookup %s %d", ns, id)
	}
	if !ok {
		return store.ErrNotFound
	}
	if err := b.rdb.HSet(ctx, b.key(ns), field(id), data).Err(); err != nil {
		return errors.Wrapf(err, "redis: update %s %d", ns, id)
	}
	return nil
}

// Delete removes a record by id.
func (b *Backend) Delete(ctx context.Context, ns store.Namespace, id int64) error {
	if err := store.CheckNamespace(ns); err != nil {
		return err
	}
	n, err := b.rdb.HDel(ctx, b.key(ns), field(id)).Result()
	if err != nil {
		return errors.Wrapf(err, "redis: delete %s %d", ns, id)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (b *Backend) key(ns store.Namespace) string {
	return b.prefix + ":" + string(ns)
}

func field(id int64) string {
	return strconv.FormatInt(id, 10)
}
