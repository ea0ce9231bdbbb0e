package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/catalog"
)

// gatedSource serves the default catalog. A search for a gated text blocks
// until its gate is closed.
type gatedSource struct {
	cat *catalog.Catalog

	mu        sync.Mutex
	gates     map[string]chan struct{}
	mainErr   error
	searchErr error

	started     chan models.Query
	mainCalls   atomic.Int32
	searchCalls atomic.Int32
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		cat:     catalog.Default(),
		gates:   make(map[string]chan struct{}),
		started: make(chan models.Query, 16),
	}
}

func (s *gatedSource) gate(text string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[text] = ch
	return ch
}

func (s *gatedSource) setErrors(mainErr, searchErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mainErr, s.searchErr = mainErr, searchErr
}

func (s *gatedSource) MainProducts(ctx context.Context) ([]models.Product, error) {
	s.mainCalls.Add(1)
	s.mu.Lock()
	err := s.mainErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.cat.MainProducts(ctx)
}

func (s *gatedSource) FilteredProducts(ctx context.Context, q models.Query) (models.PaginatedResult, error) {
	s.searchCalls.Add(1)
	s.mu.Lock()
	gate, err := s.gates[q.Text], s.searchErr
	s.mu.Unlock()

	s.started <- q
	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.PaginatedResult{}, err
	}
	return s.cat.FilteredProducts(ctx, q)
}

func ids(products []models.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestInitialState(t *testing.T) {
	st := New(newGatedSource()).State()
	assert.Equal(t, ModeBrowse, st.Mode())
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, 2, st.Columns())
	assert.False(t, st.HasMore())
	assert.Nil(t, st.Results)
}

func TestSyncInStockFilter(t *testing.T) {
	c := New(newGatedSource())
	c.SetFilters(models.FilterParams{}.WithInStock(true))
	require.NoError(t, c.Sync(context.Background()))

	st := c.State()
	assert.Equal(t, ModeResult, st.Mode())
	assert.Equal(t, 1, st.Columns())
	assert.Equal(t, 5, st.TotalItems)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, []int{1, 2, 3, 5, 6}, ids(st.Results))
	assert.False(t, st.Loading)
	assert.NoError(t, st.Err)
}

func TestSyncTextQuery(t *testing.T) {
	c := New(newGatedSource())
	c.SetSearchQuery("сертификат")
	require.NoError(t, c.Sync(context.Background()))

	st := c.State()
	assert.Equal(t, 1, st.TotalItems)
	assert.Equal(t, []int{3}, ids(st.Results))
}

func TestSyncOnlyReactsToChanges(t *testing.T) {
	src := newGatedSource()
	c := New(src)
	ctx := context.Background()

	c.SetSearchQuery("куртка")
	require.NoError(t, c.Sync(ctx))
	require.NoError(t, c.Sync(ctx))
	assert.EqualValues(t, 1, src.searchCalls.Load())

	// Equal filters built separately are not a change.
	c.SetFilters(models.FilterParams{}.WithInStock(true))
	require.NoError(t, c.Sync(ctx))
	c.SetFilters(models.FilterParams{}.WithInStock(true))
	require.NoError(t, c.Sync(ctx))
	assert.EqualValues(t, 2, src.searchCalls.Load())
}

func TestBlankQueryReturnsToBrowse(t *testing.T) {
	src := newGatedSource()
	c := New(src)
	ctx := context.Background()

	c.SetSearchQuery("рюкзак")
	require.NoError(t, c.Sync(ctx))
	require.Equal(t, ModeResult, c.State().Mode())

	c.SetSearchQuery("   ")
	require.NoError(t, c.Sync(ctx))
	st := c.State()
	assert.Equal(t, ModeBrowse, st.Mode())
	assert.Nil(t, st.Results)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 1, st.TotalPages)
	assert.Zero(t, st.TotalItems)
	assert.EqualValues(t, 1, src.searchCalls.Load())
}

func TestLoadMoreAppendsPages(t *testing.T) {
	src := newGatedSource()
	c := New(src, WithPerPage(2))
	ctx := context.Background()

	c.SetFilters(models.FilterParams{}.WithSort(models.SortPopular))
	require.NoError(t, c.Sync(ctx))
	st := c.State()
	assert.Equal(t, []int{3, 6}, ids(st.Results))
	assert.Equal(t, 3, st.TotalPages)
	assert.True(t, st.HasMore())
	assert.Equal(t, 4, st.Remaining())

	require.NoError(t, c.LoadMoreProducts(ctx))
	assert.Equal(t, []int{3, 6, 5, 1}, ids(c.State().Results))

	require.NoError(t, c.LoadMoreProducts(ctx))
	st = c.State()
	assert.Equal(t, []int{3, 6, 5, 1, 2, 4}, ids(st.Results))
	assert.Equal(t, 3, st.Page)
	assert.False(t, st.HasMore())
	assert.Zero(t, st.Remaining())

	calls := src.searchCalls.Load()
	require.NoError(t, c.LoadMoreProducts(ctx))
	assert.Equal(t, calls, src.searchCalls.Load(), "no fetch past the last page")
}

func TestLoadMoreInBrowseModeIsNoop(t *testing.T) {
	src := newGatedSource()
	c := New(src)
	require.NoError(t, c.LoadMoreProducts(context.Background()))
	assert.Zero(t, src.searchCalls.Load())
}

func TestRefreshIsIdempotent(t *testing.T) {
	src := newGatedSource()
	c := New(src, WithPerPage(2))
	ctx := context.Background()

	c.SetFilters(models.FilterParams{}.WithSort(models.SortPopular))
	require.NoError(t, c.Sync(ctx))
	require.NoError(t, c.LoadMoreProducts(ctx))

	require.NoError(t, c.Refresh(ctx))
	first := c.State()
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, []int{3, 6}, ids(first.Results))

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, first, c.State())
}

func TestRefreshInBrowseModeLoadsMain(t *testing.T) {
	src := newGatedSource()
	c := New(src)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, c.State().MainProducts, 6)
	assert.EqualValues(t, 1, src.mainCalls.Load())
	assert.Zero(t, src.searchCalls.Load())
}

func TestStaleSearchResponseIsDiscarded(t *testing.T) {
	src := newGatedSource()
	release := src.gate("бут")
	c := New(src)
	ctx := context.Background()

	c.SetSearchQuery("бут")
	done := make(chan error, 1)
	go func() { done <- c.Sync(ctx) }()
	<-src.started
	assert.True(t, c.State().Loading)

	// A load-more while the first page is in flight does nothing.
	require.NoError(t, c.LoadMoreProducts(ctx))
	assert.EqualValues(t, 1, src.searchCalls.Load())

	c.SetSearchQuery("рюкзак")
	require.NoError(t, c.Sync(ctx))
	<-src.started
	assert.Equal(t, []int{6}, ids(c.State().Results))

	close(release)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, []int{6}, ids(st.Results))
	assert.Equal(t, "рюкзак", st.SearchQuery)
	assert.False(t, st.Loading)
}

func TestLatestResponseForChangedQueryEndsLoading(t *testing.T) {
	src := newGatedSource()
	release := src.gate("бут")
	c := New(src, WithPerPage(2))
	ctx := context.Background()

	c.SetSearchQuery("бут")
	done := make(chan error, 1)
	go func() { done <- c.Sync(ctx) }()
	<-src.started

	// The text changes but nobody calls Sync before the response lands.
	c.SetSearchQuery("рюкзак")
	close(release)
	require.NoError(t, <-done)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Results, "the response was for another query")

	require.NoError(t, c.Sync(ctx))
	<-src.started
	assert.Equal(t, []int{6}, ids(c.State().Results))
	assert.False(t, c.State().Loading)
}

func TestClearingAbandonsSearchInFlight(t *testing.T) {
	src := newGatedSource()
	release := src.gate("бут")
	c := New(src)
	ctx := context.Background()

	c.SetSearchQuery("бут")
	done := make(chan error, 1)
	go func() { done <- c.Sync(ctx) }()
	<-src.started

	c.SetSearchQuery("")
	require.NoError(t, c.Sync(ctx))
	assert.False(t, c.State().Loading)

	close(release)
	require.NoError(t, <-done)

	st := c.State()
	assert.Equal(t, ModeBrowse, st.Mode())
	assert.Nil(t, st.Results)
	assert.False(t, st.Loading)
}

func TestLoadMainProductsError(t *testing.T) {
	src := newGatedSource()
	offline := errors.New("offline")
	src.setErrors(offline, nil)
	c := New(src)
	ctx := context.Background()

	err := c.LoadMainProducts(ctx)
	var loadErr *SessionLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, OpLoadMain, loadErr.Op)
	assert.Equal(t, MsgConnection, loadErr.Message)
	assert.ErrorIs(t, err, offline)
	assert.Equal(t, err, c.State().Err)
	assert.False(t, c.State().Loading)

	src.setErrors(nil, nil)
	require.NoError(t, c.LoadMainProducts(ctx))
	st := c.State()
	assert.NoError(t, st.Err)
	assert.Len(t, st.MainProducts, 6)
}

func TestSearchError(t *testing.T) {
	src := newGatedSource()
	src.setErrors(nil, errors.New("fallback unreadable"))
	c := New(src)
	ctx := context.Background()

	c.SetSearchQuery("шапка")
	err := c.Sync(ctx)
	var loadErr *SessionLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, MsgSearchFailed, loadErr.Message)
	assert.False(t, c.State().Loading)

	src.setErrors(nil, nil)
	require.NoError(t, c.Refresh(ctx))
	assert.NoError(t, c.State().Err)
}

func TestReload(t *testing.T) {
	src := newGatedSource()
	src.setErrors(errors.New("offline"), errors.New("offline"))
	c := New(src)
	ctx := context.Background()

	c.SetSearchQuery("футболка")
	require.Error(t, c.Sync(ctx))
	require.Error(t, c.LoadMainProducts(ctx))

	src.setErrors(nil, nil)
	require.NoError(t, c.Reload(ctx))

	st := c.State()
	assert.NoError(t, st.Err)
	assert.Len(t, st.MainProducts, 6)
	assert.Equal(t, []int{5}, ids(st.Results))
	assert.False(t, st.Loading)
}

func TestSubscribe(t *testing.T) {
	c := New(newGatedSource())
	ctx := context.Background()

	var mu sync.Mutex
	var seen []State
	cancel := c.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.SetSearchQuery("рюкзак")
	require.NoError(t, c.Sync(ctx))

	mu.Lock()
	require.Len(t, seen, 3) // query set, loading, results
	assert.True(t, seen[1].Loading)
	assert.Equal(t, []int{6}, ids(seen[2].Results))
	n := len(seen)
	mu.Unlock()

	cancel()
	c.SetSearchQuery("")
	mu.Lock()
	assert.Len(t, seen, n)
	mu.Unlock()
}

func TestStateIsACopy(t *testing.T) {
	c := New(newGatedSource())
	require.NoError(t, c.LoadMainProducts(context.Background()))

	st := c.State()
	st.MainProducts[0].Name = "changed"
	assert.NotEqual(t, "changed", c.State().MainProducts[0].Name)
}

func TestWithRequestIDs(t *testing.T) {
	var n atomic.Int32
	c := New(newGatedSource(), WithRequestIDs(func() string {
		return fmt.Sprintf("req-%d", n.Add(1))
	}))
	c.SetSearchQuery("бутылка")
	require.NoError(t, c.Sync(context.Background()))
	assert.EqualValues(t, 1, n.Load())
	assert.Equal(t, "req-1", c.latest)
}
