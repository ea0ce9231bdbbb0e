package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/catalog"
)

// Source is the storefront's product source. Each operation tries the
// primary fetcher and falls back to the mock catalog on any failure, so
// callers only see an error when the fallback also fails.
type Source struct {
	primary  Fetcher
	fallback Fetcher
	vocab    *catalog.Vocabulary
	logger   *slog.Logger
}

// SourceOption configures a Source
type SourceOption func(*Source)

// WithFallback sets the fetcher used when the primary fails. Nil disables fallback.
func WithFallback(f Fetcher) SourceOption {
	return func(s *Source) { s.fallback = f }
}

// WithVocabulary sets the suggestion vocabulary
func WithVocabulary(v *catalog.Vocabulary) SourceOption {
	return func(s *Source) { s.vocab = v }
}

// WithLogger sets the logger fallback diagnostics go to
func WithLogger(l *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = l }
}

// NewSource defaults to the built-in mock catalog and vocabulary.
// A nil primary always uses the fallback.
func NewSource(primary Fetcher, opts ...SourceOption) *Source {
	s := &Source{primary: primary, fallback: catalog.Default(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.vocab == nil {
		s.vocab = catalog.DefaultVocabulary()
	}
	return s
}

func (s *Source) MainProducts(ctx context.Context) ([]models.Product, error) {
	if s.primary != nil {
		products, err := s.primary.MainProducts(ctx)
		if err == nil {
			return products, nil
		}
		s.logger.Warn("using mock data for main products", "error", err)
	}
	if s.fallback == nil {
		return nil, ErrNoFallback
	}
	products, err := s.fallback.MainProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback main products: %w", err)
	}
	return products, nil
}

func (s *Source) FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error) {
	q = q.Normalize()
	if s.primary != nil {
		res, err := s.primary.FilteredProducts(ctx, q)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("using mock data for filtered products",
			"query", q.Text, "filters", q.Filters.String(), "page", q.Page, "error", err)
	}
	if s.fallback == nil {
		return models.PaginatedResult{}, ErrNoFallback
	}
	res, err := s.fallback.FilteredProducts(ctx, q)
	if err != nil {
		return models.PaginatedResult{}, fmt.Errorf("fallback filtered products: %w", err)
	}
	// Reshape so callers cannot tell which source answered.
	return models.NewPaginatedResult(res.Data, res.Total, q.Page, q.PerPage), nil
}

// SearchSuggestions returns up to eight vocabulary terms containing partial
func (s *Source) SearchSuggestions(_ context.Context, partial string) []string {
	return s.vocab.Suggest(partial, catalog.MaxSuggestions)
}

// PopularSearches returns the frequently searched terms
func (s *Source) PopularSearches(context.Context) []string {
	return s.vocab.Popular()
}
