// Package store is the terminal's local object store. It keeps JSON records
// in two namespaces, products and sales, each keyed by an id the backend
// assigns on Add.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Namespace is a named collection of records.
type Namespace string

const (
	NamespaceProducts Namespace = "products"
	NamespaceSales    Namespace = "sales"
)

// Namespaces lists every namespace a backend must provide.
var Namespaces = []Namespace{NamespaceProducts, NamespaceSales}

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Record is a stored document and its id.
type Record struct {
	ID   int64
	Data []byte
}

// Backend defines behavior for persisting records.
type Backend interface {
	// GetAll returns every record of ns ordered by id.
	GetAll(ctx context.Context, ns Namespace) ([]Record, error)
	// Add stores data under a new id and returns it.
	Add(ctx context.Context, ns Namespace, data []byte) (int64, error)
	// Put replaces the record with the given id.
	Put(ctx context.Context, ns Namespace, id int64, data []byte) error
	// Delete removes the record with the given id.
	Delete(ctx context.Context, ns Namespace, id int64) error
	Close() error
}

// CheckNamespace rejects names outside Namespaces. SQL backends use it
// before building table names.
func CheckNamespace(ns Namespace) error {
	for _, n := range Namespaces {
		if n == ns {
			return nil
		}
	}
	return fmt.Errorf("store: unknown namespace %q", ns)
}
