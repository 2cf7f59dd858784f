package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterminal/pkg/catalog"
	"posterminal/pkg/store"
	"posterminal/pkg/store/storetest"
)

func TestBackend(t *testing.T) {
	b, err := Open(":memory:")
	require.NoError(t, err)
	defer b.Close()

	storetest.Run(t, b)
}

func TestProductsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pos.db")

	b, err := Open(path)
	require.NoError(t, err)
	products := store.NewProducts(b)
	p := catalog.Product{Name: "CROISSANT", Price: 3.25, Type: 7, Image: "img/CROISSANT.png"}
	require.NoError(t, products.Add(ctx, &p))
	assert.NotZero(t, p.ID)
	require.NoError(t, b.Close())

	b, err = Open(path)
	require.NoError(t, err)
	defer b.Close()
	got, err := store.NewProducts(b).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Product{p}, got)
}
