package controller

import (
	"slices"

	"github.com/noxer-shop/storefront/models"
)

// Mode is the display mode derived from the query
type Mode int

const (
	// ModeBrowse shows the curated main list
	ModeBrowse Mode = iota
	// ModeResult shows the paginated search results
	ModeResult
)

func (m Mode) String() string {
	if m == ModeResult {
		return "result"
	}
	return "browse"
}

// State is a snapshot of the catalog session
type State struct {
	MainProducts []models.Product
	Results      []models.Product // nil outside result mode
	SearchQuery  string
	Filters      models.FilterParams
	Page         int
	TotalPages   int
	TotalItems   int
	Loading      bool
	Err          error
}

func initialState() State {
	return State{Page: 1, TotalPages: 1}
}

// Query is the effective query the state describes, without pagination
func (s State) Query() models.Query {
	return models.Query{Text: s.SearchQuery, Filters: s.Filters}
}

// Mode is result when the text is non-blank or any filter key is set
func (s State) Mode() Mode {
	if s.Query().Active() {
		return ModeResult
	}
	return ModeBrowse
}

// HasMore reports whether another result page exists
func (s State) HasMore() bool {
	return s.Mode() == ModeResult && s.Page < s.TotalPages
}

// Columns is the grid width: two in browse mode, one for results
func (s State) Columns() int {
	if s.Mode() == ModeResult {
		return 1
	}
	return 2
}

// Remaining is the number of matches not loaded yet
func (s State) Remaining() int {
	if n := s.TotalItems - len(s.Results); n > 0 {
		return n
	}
	return 0
}

// Visible returns the products the current mode displays
func (s State) Visible() []models.Product {
	if s.Mode() == ModeResult {
		return s.Results
	}
	return s.MainProducts
}

func (s State) clone() State {
	out := s
	out.MainProducts = slices.Clone(s.MainProducts)
	out.Results = slices.Clone(s.Results)
	out.Filters = s.Filters.Clone()
	return out
}
