// Package catalog holds the in-memory product catalog used as a stand-in for
// the products API: a fixed product list plus the filter, sort and paginate
// rules the API applies.
package catalog

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noxer-shop/storefront/models"
)

// Catalog is a read-only product list. Safe for concurrent use.
type Catalog struct {
	products []models.Product
	lang     language.Tag
}

// New copies products into a catalog. Names sort with Russian collation.
func New(products []models.Product) *Catalog {
	return &Catalog{
		products: slices.Clone(products),
		lang:     language.Russian,
	}
}

// Products returns a copy of the full list in its original order
func (c *Catalog) Products() []models.Product {
	return slices.Clone(c.products)
}

// Len returns the number of products in the catalog
func (c *Catalog) Len() int { return len(c.products) }

// Search applies text, category, price, stock and rating filters, sorts and
// returns the requested page plus the pre-pagination total.
func (c *Catalog) Search(q models.Query) ([]models.Product, int) {
	q = q.Normalize()
	f := q.Filters

	products := slices.Clone(c.products)

	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		products = slices.DeleteFunc(products, func(p models.Product) bool {
			return !matchesText(p, text)
		})
	}

	if f.Category != nil && *f.Category != "" {
		products = slices.DeleteFunc(products, func(p models.Product) bool {
			return p.Category != *f.Category
		})
	}

	if f.MinPrice != nil {
		products = slices.DeleteFunc(products, func(p models.Product) bool {
			return p.Price < *f.MinPrice
		})
	}

	if f.MaxPrice != nil {
		products = slices.DeleteFunc(products, func(p models.Product) bool {
			return p.Price > *f.MaxPrice
		})
	}

	if f.InStock != nil && *f.InStock {
		products = slices.DeleteFunc(products, func(p models.Product) bool {
			return !p.InStock
		})
	}

	if f.Rating != nil {
		products = slices.DeleteFunc(products, func(p models.Product) bool {
			return p.Stars() < *f.Rating
		})
	}

	if f.SortBy != nil {
		c.sort(products, *f.SortBy)
	}

	total := len(products)
	start := (q.Page - 1) * q.PerPage
	if start > total {
		start = total
	}
	end := start + q.PerPage
	if end > total {
		end = total
	}
	return products[start:end:end], total
}

func (c *Catalog) sort(products []models.Product, key models.SortKey) {
	switch key {
	case models.SortPriceAsc:
		slices.SortStableFunc(products, func(a, b models.Product) int { return a.Price - b.Price })
	case models.SortPriceDesc:
		slices.SortStableFunc(products, func(a, b models.Product) int { return b.Price - a.Price })
	case models.SortName:
		// Collator is not safe for concurrent use.
		col := collate.New(c.lang)
		slices.SortStableFunc(products, func(a, b models.Product) int {
			return col.CompareString(a.Name, b.Name)
		})
	case models.SortPopular:
		slices.SortStableFunc(products, func(a, b models.Product) int { return b.Reviews() - a.Reviews() })
	case models.SortRating:
		slices.SortStableFunc(products, func(a, b models.Product) int {
			switch ra, rb := a.Stars(), b.Stars(); {
			case ra > rb:
				return -1
			case ra < rb:
				return 1
			}
			return 0
		})
	}
}

func matchesText(p models.Product, text string) bool {
	if strings.Contains(strings.ToLower(p.Name), text) ||
		strings.Contains(strings.ToLower(p.Category), text) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return p.Description != "" && strings.Contains(strings.ToLower(p.Description), text)
}

// MainProducts returns the curated list, which for the mock catalog is every product
func (c *Catalog) MainProducts(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Products(), nil
}

// FilteredProducts runs Search and wraps the page in the API result shape
func (c *Catalog) FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error) {
	if err := ctx.Err(); err != nil {
		return models.PaginatedResult{}, err
	}
	q = q.Normalize()
	items, total := c.Search(q)
	return models.NewPaginatedResult(items, total, q.Page, q.PerPage), nil
}
