// Package controller owns the catalog session: the query and filters, the
// curated list, the accumulated result pages and the loading and error
// state. Fetches run without the lock held; a search response is applied
// only if it is the latest one issued and the query it was issued for is
// still current.
package controller

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/noxer-shop/storefront/models"
)

// Source is where products come from
type Source interface {
	MainProducts(ctx context.Context) ([]models.Product, error)
	FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error)
}

// Option configures a Controller
type Option func(*Controller)

// WithPerPage sets the result page size
func WithPerPage(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.perPage = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRequestIDs replaces the generator of search request IDs
func WithRequestIDs(next func() string) Option {
	return func(c *Controller) { c.newID = next }
}

type Controller struct {
	source  Source
	perPage int
	logger  *slog.Logger
	newID   func() string

	mu    sync.Mutex
	state State

	// last text and filters Sync reacted to
	seenText    string
	seenFilters models.FilterParams
	synced      bool

	// latest search request; empty once invalidated
	latest    string
	searching bool

	mainSeq     uint64
	mainLoading int

	subs    map[int]func(State)
	nextSub int
}

func New(source Source, opts ...Option) *Controller {
	c := &Controller{
		source:  source,
		perPage: models.DefaultPerPage,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		state:   initialState(),
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive the state after every change.
// fn runs on the goroutine that made the change.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// unlockAndNotify releases the lock and hands a snapshot to every subscriber
func (c *Controller) unlockAndNotify() {
	c.state.Loading = c.loadingLocked()
	snap := c.state.clone()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap.clone())
	}
}

func (c *Controller) loadingLocked() bool {
	return c.searching || c.mainLoading > 0
}

// SetSearchQuery records the text. Call Sync to react to it.
func (c *Controller) SetSearchQuery(text string) {
	c.mu.Lock()
	if c.state.SearchQuery == text {
		c.mu.Unlock()
		return
	}
	c.state.SearchQuery = text
	c.unlockAndNotify()
}

// SetFilters replaces the filters wholesale. Call Sync to react to them.
func (c *Controller) SetFilters(f models.FilterParams) {
	c.mu.Lock()
	if c.state.Filters.Equal(f) {
		c.mu.Unlock()
		return
	}
	c.state.Filters = f.Clone()
	c.unlockAndNotify()
}

// Sync reacts to text or filter changes since the last call: an active query
// fetches its first page, an inactive one clears the results and abandons
// any search in flight.
func (c *Controller) Sync(ctx context.Context) error {
	c.mu.Lock()
	if c.synced && c.seenText == c.state.SearchQuery && c.seenFilters.Equal(c.state.Filters) {
		c.mu.Unlock()
		return nil
	}
	c.synced = true
	c.seenText = c.state.SearchQuery
	c.seenFilters = c.state.Filters.Clone()

	if !c.state.Query().Active() {
		c.clearResultsLocked()
		c.unlockAndNotify()
		return nil
	}
	id, q := c.beginSearchLocked(1)
	c.unlockAndNotify()
	return c.runSearch(ctx, id, q, false)
}

func (c *Controller) clearResultsLocked() {
	c.state.Results = nil
	c.state.Page = 1
	c.state.TotalPages = 1
	c.state.TotalItems = 0
	c.latest = ""
	c.searching = false
}

// LoadMainProducts fetches the curated list
func (c *Controller) LoadMainProducts(ctx context.Context) error {
	c.mu.Lock()
	c.mainSeq++
	seq := c.mainSeq
	c.mainLoading++
	c.unlockAndNotify()

	products, err := c.source.MainProducts(ctx)

	c.mu.Lock()
	c.mainLoading--
	if seq != c.mainSeq {
		c.logger.Debug("discarding superseded main products response")
		c.unlockAndNotify()
		return nil
	}
	if err != nil {
		loadErr := &SessionLoadError{Op: OpLoadMain, Message: MsgConnection, Err: err}
		c.state.Err = loadErr
		c.logger.Error("failed to load main products", "error", err)
		c.unlockAndNotify()
		return loadErr
	}
	if products == nil {
		products = []models.Product{}
	}
	c.state.MainProducts = slices.Clone(products)
	c.state.Err = nil
	c.unlockAndNotify()
	return nil
}

// LoadMoreProducts appends the next result page. It does nothing while a
// load is running or when the last page is already shown.
func (c *Controller) LoadMoreProducts(ctx context.Context) error {
	c.mu.Lock()
	if c.loadingLocked() || c.state.Mode() != ModeResult || c.state.Page >= c.state.TotalPages {
		c.mu.Unlock()
		return nil
	}
	id, q := c.beginSearchLocked(c.state.Page + 1)
	c.unlockAndNotify()
	return c.runSearch(ctx, id, q, true)
}

// Refresh refetches the first page of the current query, or the curated
// list in browse mode.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.Query().Active() {
		c.mu.Unlock()
		return c.LoadMainProducts(ctx)
	}
	id, q := c.beginSearchLocked(1)
	c.unlockAndNotify()
	return c.runSearch(ctx, id, q, false)
}

// Reload retries everything the screen shows: the curated list and, when a
// query is active, its first page. Both run concurrently.
func (c *Controller) Reload(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return c.LoadMainProducts(ctx) })

	c.mu.Lock()
	if c.state.Query().Active() {
		id, q := c.beginSearchLocked(1)
		c.unlockAndNotify()
		g.Go(func() error { return c.runSearch(ctx, id, q, false) })
	} else {
		c.mu.Unlock()
	}
	return g.Wait()
}

// beginSearchLocked marks a new search as the latest and returns its query
func (c *Controller) beginSearchLocked(page int) (string, models.Query) {
	id := c.newID()
	c.latest = id
	c.searching = true
	return id, models.Query{
		Text:    c.state.SearchQuery,
		Filters: c.state.Filters.Clone(),
		Page:    page,
		PerPage: c.perPage,
	}
}

func (c *Controller) runSearch(ctx context.Context, id string, q models.Query, appendPage bool) error {
	res, err := c.source.FilteredProducts(ctx, q)

	c.mu.Lock()
	if id != c.latest || q.Text != c.state.SearchQuery || !q.Filters.Equal(c.state.Filters) {
		c.logger.Debug("discarding stale search response",
			"request_id", id, "query", q.Text, "filters", q.Filters.String(), "page", q.Page)
		if id != c.latest {
			c.mu.Unlock()
			return nil
		}
		// The query moved on without a Sync; nothing is in flight for it.
		c.latest = ""
		c.searching = false
		c.unlockAndNotify()
		return nil
	}
	c.searching = false

	if err != nil {
		loadErr := &SessionLoadError{Op: OpSearch, Message: MsgSearchFailed, Err: err}
		c.state.Err = loadErr
		c.logger.Error("search failed", "request_id", id, "query", q.Text, "page", q.Page, "error", err)
		c.unlockAndNotify()
		return loadErr
	}

	if appendPage && q.Page > 1 {
		c.state.Results = append(slices.Clip(c.state.Results), res.Data...)
	} else {
		c.state.Results = append(make([]models.Product, 0, len(res.Data)), res.Data...)
	}
	c.state.Page = q.Page
	c.state.TotalPages = res.TotalPages
	c.state.TotalItems = res.Total
	c.state.Err = nil
	c.unlockAndNotify()
	return nil
}
