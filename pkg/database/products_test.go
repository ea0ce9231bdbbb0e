package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/catalog"
	"github.com/noxer-shop/storefront/pkg/config"
)

func newStore(t *testing.T) *ProductStore {
	t.Helper()
	client, err := NewClient(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	s := NewProductStore(client, nil)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestNewClientUnsupportedDriver(t *testing.T) {
	_, err := NewClient(config.DBConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, `unsupported database driver "mysql"`)
}

func TestRebind(t *testing.T) {
	pg := &DBClient{driver: "postgres"}
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))

	lite := &DBClient{driver: "sqlite"}
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}

func TestUpsertAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	want := catalog.Default().Products()
	n, err := s.UpsertProducts(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	got, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpsertReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.UpsertProducts(ctx, []models.Product{{ID: 7, Name: "Шапка", Price: 700, Category: "аксессуары", Image: "hat.jpg", InStock: true}})
	require.NoError(t, err)
	_, err = s.UpsertProducts(ctx, []models.Product{{ID: 7, Name: "Шапка зимняя", Price: 900, Category: "аксессуары", Image: "hat.jpg", Tags: []string{"зима"}}})
	require.NoError(t, err)

	got, err := s.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Шапка зимняя", got[0].Name)
	assert.Equal(t, 900, got[0].Price)
	assert.False(t, got[0].InStock)
	assert.Equal(t, []string{"зима"}, got[0].Tags)
	assert.Nil(t, got[0].Rating)
}

func TestProductStoreAsFetcher(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	_, err := s.UpsertProducts(ctx, catalog.Default().Products())
	require.NoError(t, err)

	curated, err := s.MainProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, curated, 6)

	res, err := s.FilteredProducts(ctx, models.Query{Text: "сертификат"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 3, res.Data[0].ID)
}

func TestLoadProductsWithoutTable(t *testing.T) {
	client, err := NewClient(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewProductStore(client, nil).FilteredProducts(context.Background(), models.Query{})
	assert.ErrorContains(t, err, "failed to query products")
}
