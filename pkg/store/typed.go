package store

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"posterminal/pkg/catalog"
	"posterminal/pkg/sale"
)

// Products stores catalog products.
type Products struct {
	b Backend
}

// NewProducts wraps b for the products namespace.
func NewProducts(b Backend) *Products {
	return &Products{b: b}
}

// List returns all stored products ordered by id.
func (s *Products) List(ctx context.Context) ([]catalog.Product, error) {
	return getAll(ctx, s.b, NamespaceProducts, func(p *catalog.Product, id int64) { p.ID = id })
}

// Add stores p and sets its ID.
func (s *Products) Add(ctx context.Context, p *catalog.Product) error {
	id, err := add(ctx, s.b, NamespaceProducts, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// Put replaces the stored product with p.ID.
func (s *Products) Put(ctx context.Context, p catalog.Product) error {
	return put(ctx, s.b, NamespaceProducts, p.ID, p)
}

// Delete removes the product with id.
func (s *Products) Delete(ctx context.Context, id int64) error {
	return s.b.Delete(ctx, NamespaceProducts, id)
}

// Sales stores completed sales.
type Sales struct {
	b Backend
}

// NewSales wraps b for the sales namespace.
func NewSales(b Backend) *Sales {
	return &Sales{b: b}
}

// List returns all stored sales ordered by id.
func (s *Sales) List(ctx context.Context) ([]sale.Sale, error) {
	return getAll(ctx, s.b, NamespaceSales, func(v *sale.Sale, id int64) { v.ID = id })
}

// Add stores v and sets its ID.
func (s *Sales) Add(ctx context.Context, v *sale.Sale) error {
	id, err := add(ctx, s.b, NamespaceSales, v)
	if err != nil {
		return err
	}
	v.ID = id
	return nil
}

// Put replaces the stored sale with v.ID.
func (s *Sales) Put(ctx context.Context, v sale.Sale) error {
	return put(ctx, s.b, NamespaceSales, v.ID, v)
}

// Delete removes the sale with id.
func (s *Sales) Delete(ctx context.Context, id int64) error {
	return s.b.Delete(ctx, NamespaceSales, id)
}

func getAll[T any](ctx context.Context, b Backend, ns Namespace, setID func(*T, int64)) ([]T, error) {
	recs, err := b.GetAll(ctx, ns)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			return nil, errors.Wrapf(err, "decode %s record %d", ns, rec.ID)
		}
		setID(&v, rec.ID)
		out = append(out, v)
	}
	return out, nil
}

func add(ctx context.Context, b Backend, ns Namespace, v any) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, errors.Wrapf(err, "encode %s record", ns)
	}
	return b.Add(ctx, ns, data)
}

func put(ctx context.Context, b Backend, ns Namespace, id int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s record %d", ns, id)
	}
	return b.Put(ctx, ns, id, data)
}
