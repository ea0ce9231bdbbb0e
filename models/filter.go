package models

import (
	"fmt"
	"math"
	"strings"
)

// SortKey selects the ordering of filtered products
type SortKey string

const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortName      SortKey = "name"
	SortPopular   SortKey = "popular"
	SortRating    SortKey = "rating"
)

// SortKeys lists the keys in the order the filter panel offers them
var SortKeys = []SortKey{SortPopular, SortPriceAsc, SortPriceDesc, SortName, SortRating}

// ParseSortKey validates a sort key received from config or user input
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.TrimSpace(s))
	for _, known := range SortKeys {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// FilterParams is the current filter selection. A nil field is an absent key.
type FilterParams struct {
	Category *string  `json:"category,omitempty"`
	MinPrice *int     `json:"minPrice,omitempty"`
	MaxPrice *int     `json:"maxPrice,omitempty"`
	InStock  *bool    `json:"inStock,omitempty"`
	SortBy   *SortKey `json:"sortBy,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
}

// Keys returns how many filter keys are set
func (f FilterParams) Keys() int {
	n := 0
	if f.Category != nil {
		n++
	}
	if f.MinPrice != nil {
		n++
	}
	if f.MaxPrice != nil {
		n++
	}
	if f.InStock != nil {
		n++
	}
	if f.SortBy != nil {
		n++
	}
	if f.Rating != nil {
		n++
	}
	return n
}

// IsEmpty reports whether no filter key is set
func (f FilterParams) IsEmpty() bool { return f.Keys() == 0 }

// Equal compares two selections by value
func (f FilterParams) Equal(o FilterParams) bool {
	return eqPtr(f.Category, o.Category) &&
		eqPtr(f.MinPrice, o.MinPrice) &&
		eqPtr(f.MaxPrice, o.MaxPrice) &&
		eqPtr(f.InStock, o.InStock) &&
		eqPtr(f.SortBy, o.SortBy) &&
		eqPtr(f.Rating, o.Rating)
}

// Clone returns a copy that shares no pointers with f
func (f FilterParams) Clone() FilterParams {
	return FilterParams{
		Category: clonePtr(f.Category),
		MinPrice: clonePtr(f.MinPrice),
		MaxPrice: clonePtr(f.MaxPrice),
		InStock:  clonePtr(f.InStock),
		SortBy:   clonePtr(f.SortBy),
		Rating:   clonePtr(f.Rating),
	}
}

// WithCategory returns a copy with the category replaced. An empty name removes the key.
func (f FilterParams) WithCategory(category string) FilterParams {
	c := f.Clone()
	c.Category = nil
	if category != "" {
		c.Category = &category
	}
	return c
}

// WithPriceRange returns a copy with both price bounds replaced
func (f FilterParams) WithPriceRange(lo, hi *int) FilterParams {
	c := f.Clone()
	c.MinPrice = clonePtr(lo)
	c.MaxPrice = clonePtr(hi)
	return c
}

// WithInStock returns a copy with the stock flag replaced. False removes the key.
func (f FilterParams) WithInStock(inStock bool) FilterParams {
	c := f.Clone()
	c.InStock = nil
	if inStock {
		c.InStock = &inStock
	}
	return c
}

// WithSort returns a copy with the sort key replaced. An empty key removes it.
func (f FilterParams) WithSort(key SortKey) FilterParams {
	c := f.Clone()
	c.SortBy = nil
	if key != "" {
		c.SortBy = &key
	}
	return c
}

// WithRating returns a copy with the rating threshold replaced. Zero removes it.
func (f FilterParams) WithRating(threshold float64) FilterParams {
	c := f.Clone()
	c.Rating = nil
	if threshold > 0 {
		c.Rating = &threshold
	}
	return c
}

func (f FilterParams) String() string {
	var parts []string
	if f.Category != nil {
		parts = append(parts, "category="+*f.Category)
	}
	if f.MinPrice != nil {
		parts = append(parts, fmt.Sprintf("min_price=%d", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		parts = append(parts, fmt.Sprintf("max_price=%d", *f.MaxPrice))
	}
	if f.InStock != nil {
		parts = append(parts, fmt.Sprintf("in_stock=%t", *f.InStock))
	}
	if f.SortBy != nil {
		parts = append(parts, "sort_by="+string(*f.SortBy))
	}
	if f.Rating != nil {
		parts = append(parts, fmt.Sprintf("rating=%g", *f.Rating))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DefaultPerPage is the page size used by the storefront
const DefaultPerPage = 8

// Query is a filtered search request: text, filters and the page to fetch
type Query struct {
	Text    string
	Filters FilterParams
	Page    int
	PerPage int
}

// Normalize returns the query with page and page size defaults applied
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	return q
}

// Active reports whether the query selects result mode: non-blank text or any filter key
func (q Query) Active() bool {
	return strings.TrimSpace(q.Text) != "" || !q.Filters.IsEmpty()
}

// PaginatedResult is one page of a filtered search
type PaginatedResult struct {
	Data       []Product `json:"data"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

// NewPaginatedResult wraps a page of items, deriving the page count from total and perPage
func NewPaginatedResult(items []Product, total, page, perPage int) PaginatedResult {
	if items == nil {
		items = []Product{}
	}
	return PaginatedResult{
		Data:       items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: TotalPages(total, perPage),
	}
}

// TotalPages returns ceil(total / perPage)
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// Validate checks the pagination invariants of a decoded result
func (r PaginatedResult) Validate() error {
	switch {
	case r.Data == nil:
		return fmt.Errorf("missing data array")
	case r.Total < 0:
		return fmt.Errorf("negative total %d", r.Total)
	case r.Page < 1:
		return fmt.Errorf("page %d is not 1-indexed", r.Page)
	case r.PerPage < 1:
		return fmt.Errorf("invalid per_page %d", r.PerPage)
	case r.TotalPages != TotalPages(r.Total, r.PerPage):
		return fmt.Errorf("total_pages %d does not match total %d / per_page %d", r.TotalPages, r.Total, r.PerPage)
	case len(r.Data) > r.PerPage:
		return fmt.Errorf("page holds %d items, more than per_page %d", len(r.Data), r.PerPage)
	}
	return nil
}
