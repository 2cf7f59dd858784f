// Package memory implements an in-memory store.Backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"posterminal/pkg/store"
)

type namespace struct {
	next    int64
	records map[int64][]byte
}

// Backend provides an in-memory implementation of store.Backend.
type Backend struct {
	mu  sync.RWMutex
	nss map[store.Namespace]*namespace
}

// New creates a new in-memory backend.
func New() *Backend {
	b := &Backend{nss: make(map[store.Namespace]*namespace)}
	for _, ns := range store.Namespaces {
		b.nss[ns] = &namespace{records: make(map[int64][]byte)}
	}
	return b
}

// GetAll returns the records of ns ordered by id.
func (b *Backend) GetAll(ctx context.Context, ns store.Namespace) ([]store.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.get(ns)
	if err != nil {
		return nil, err
	}
	out := make([]store.Record, 0, len(n.records))
	for id, data := range n.records {
		out = append(out, store.Record{ID: id, Data: clone(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Add stores data under the next id.
func (b *Backend) Add(ctx context.Context, ns store.Namespace, data []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.get(ns)
	if err != nil {
		return 0, err
	}
	n.next++
	n.records[n.next] = clone(data)
	return n.next, nil
}

// Put replaces an existing record.
func (b *Backend) Put(ctx context.Context, ns store.Namespace, id int64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.get(ns)
	if err != nil {
		return err
	}
	if _, ok := n.records[id]; !ok {
		return store.ErrNotFound
	}
	n.records[id] = clone(data)
	return nil
}

// Delete removes a record by id.
func (b *Backend) Delete(ctx context.Context, ns store.Namespace, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := b.get(ns)
	if err != nil {
		return err
	}
	if _, ok := n.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(n.records, id)
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) get(ns store.Namespace) (*namespace, error) {
	if err := store.CheckNamespace(ns); err != nil {
		return nil, err
	}
	return b.nss[ns], nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
