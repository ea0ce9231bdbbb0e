package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/noxer-shop/storefront/models"
)

// Fetcher is a product source: the products API, a cache in front of it, or a mock catalog
type Fetcher interface {
	MainProducts(ctx context.Context) ([]models.Product, error)
	FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error)
}

// Defaults the filter endpoint expects for absent fields
const (
	defaultMaxPrice = 100000
	defaultSortBy   = models.SortPopular
	maxBodyBytes    = 4 << 20
)

// Remote talks to the products API under a fixed path prefix
type Remote struct {
	baseURL string
	prefix  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// RemoteOption configures a Remote
type RemoteOption func(*Remote)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// WithTimeout bounds each request, including reading the body
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) {
		c := *r.client
		c.Timeout = d
		r.client = &c
	}
}

// WithRateLimit throttles outbound requests to limit per second with the given burst
func WithRateLimit(limit rate.Limit, burst int) RemoteOption {
	return func(r *Remote) {
		if limit > 0 {
			r.limiter = rate.NewLimiter(limit, burst)
		}
	}
}

// WithRemoteLogger sets the logger for request diagnostics
func WithRemoteLogger(l *slog.Logger) RemoteOption {
	return func(r *Remote) { r.logger = l }
}

// NewRemote returns a fetcher for baseURL+prefix, e.g. ("https://shop.example", "/webapp/api").
// An empty baseURL keeps paths relative, which only works behind a proxying transport.
func NewRemote(baseURL, prefix string, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  "/" + strings.Trim(prefix, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remote) url(path string) string {
	return r.baseURL + r.prefix + path
}

// filterRequest is the JSON body of POST /products/filter
type filterRequest struct {
	Query    string   `json:"query"`
	Category string   `json:"category"`
	MinPrice int      `json:"min_price"`
	MaxPrice int      `json:"max_price"`
	InStock  bool     `json:"in_stock"`
	SortBy   string   `json:"sort_by"`
	Rating   *float64 `json:"rating,omitempty"`
	PerPage  int      `json:"per_page"`
	Page     int      `json:"page"`
}

func newFilterRequest(q models.Query) filterRequest {
	q = q.Normalize()
	f := q.Filters
	req := filterRequest{
		Query:    strings.TrimSpace(q.Text),
		MaxPrice: defaultMaxPrice,
		SortBy:   string(defaultSortBy),
		Rating:   f.Rating,
		PerPage:  q.PerPage,
		Page:     q.Page,
	}
	if f.Category != nil {
		req.Category = *f.Category
	}
	if f.MinPrice != nil {
		req.MinPrice = *f.MinPrice
	}
	if f.MaxPrice != nil {
		req.MaxPrice = *f.MaxPrice
	}
	if f.InStock != nil {
		req.InStock = *f.InStock
	}
	if f.SortBy != nil {
		req.SortBy = string(*f.SortBy)
	}
	return req
}

// MainProducts fetches the curated list from GET {prefix}/products/on_main
func (r *Remote) MainProducts(ctx context.Context) ([]models.Product, error) {
	const op = "GET"
	var products []models.Product
	if err := r.do(ctx, http.MethodGet, "/products/on_main", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		return nil, &MalformedResponseError{Op: op + " on_main", Err: fmt.Errorf("expected a product array")}
	}
	if err := validateProducts(products); err != nil {
		return nil, &MalformedResponseError{Op: op + " on_main", Err: err}
	}
	return products, nil
}

// FilteredProducts posts the query to {prefix}/products/filter
func (r *Remote) FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error) {
	var res models.PaginatedResult
	if err := r.do(ctx, http.MethodPost, "/products/filter", newFilterRequest(q), &res); err != nil {
		return models.PaginatedResult{}, err
	}
	if err := res.Validate(); err != nil {
		return models.PaginatedResult{}, &MalformedResponseError{Op: "POST filter", Err: err}
	}
	if err := validateProducts(res.Data); err != nil {
		return models.PaginatedResult{}, &MalformedResponseError{Op: "POST filter", Err: err}
	}
	return res, nil
}

func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	url := r.url(path)
	netErr := func(status int, err error) error {
		return &NetworkError{Op: method, URL: url, StatusCode: status, Err: err}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return netErr(0, fmt.Errorf("rate limiter: %w", err))
		}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return netErr(0, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return netErr(0, err)
	}
	defer resp.Body.Close()

	r.logger.Debug("products api",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return netErr(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return &MalformedResponseError{Op: method + " " + path, Err: err}
	}
	return nil
}

func validateProducts(products []models.Product) error {
	for i, p := range products {
		if p.ID <= 0 {
			return fmt.Errorf("product #%d has invalid id %d", i, p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("product %d has no name", p.ID)
		}
	}
	return nil
}
