package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := `id,name,price,original_price,discount,category,image,description,tags,in_stock,rating,reviews_count
7,Кепка,900,1200,25,Аксессуары,/img/cap.png,Хлопок,кепка|лето,true,4.5,12
,Носки,300,,,аксессуары,,,,false,,
8,Шарф,abc,,,аксессуары,,,,,,
`
	products, err := readCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, products, 2, "the row with a bad price is skipped")

	hat := products[0]
	assert.Equal(t, 7, hat.ID)
	assert.Equal(t, "аксессуары", hat.Category)
	require.NotNil(t, hat.OriginalPrice)
	assert.Equal(t, 1200, *hat.OriginalPrice)
	assert.Equal(t, []string{"кепка", "лето"}, hat.Tags)
	assert.True(t, hat.InStock)
	assert.Equal(t, 4.5, hat.Stars())
	assert.Equal(t, 12, hat.Reviews())

	socks := products[1]
	assert.Equal(t, 8, socks.ID, "missing ids follow the largest one seen")
	assert.False(t, socks.InStock)
	assert.Nil(t, socks.OriginalPrice)
	assert.Nil(t, socks.Rating)
	assert.Empty(t, socks.Tags)
	assert.NotNil(t, socks.Tags)
}

func TestReadCSVColumnOrder(t *testing.T) {
	in := "category,price,name\nштаны,2500,Джоггеры\n"
	products, err := readCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 1, products[0].ID)
	assert.Equal(t, "Джоггеры", products[0].Name)
	assert.Equal(t, 2500, products[0].Price)
	assert.True(t, products[0].InStock, "in_stock defaults to true")
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "empty or has only headers"},
		{"header only", "name,price,category\n", "empty or has only headers"},
		{"missing column", "name,price\nA,1\n", `missing column "category"`},
		{"no valid rows", "name,price,category\n,1,a\nB,-3,a\n", "no valid rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseProductRejects(t *testing.T) {
	base := func() map[string]string {
		return map[string]string{"name": "A", "price": "1", "category": "a"}
	}
	cases := map[string][2]string{
		"bad id":       {"id", "-1"},
		"bad rating":   {"rating", "7"},
		"bad in_stock": {"in_stock", "maybe"},
		"bad discount": {"discount", "x"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			cols := base()
			cols[c[0]] = c[1]
			header := []string{}
			values := []string{}
			for k, v := range cols {
				header = append(header, k)
				values = append(values, v)
			}
			_, err := readCSV(strings.NewReader(strings.Join(header, ",") + "\n" + strings.Join(values, ",") + "\n"))
			assert.ErrorContains(t, err, "no valid rows")
		})
	}
}

func TestLoadProductsFlags(t *testing.T) {
	_, err := loadProducts("a.csv", "b.yaml")
	assert.Error(t, err)

	products, err := loadProducts("", "")
	require.NoError(t, err)
	assert.Len(t, products, 6)

	products, err = loadProducts("", "../pkg/catalog/testdata/small.yaml")
	require.NoError(t, err)
	assert.Len(t, products, 2)
}
