// Package tui is the terminal storefront: a Bubble Tea program over the
// catalog session.
package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/controller"
	"github.com/noxer-shop/storefront/pkg/debounce"
	"github.com/noxer-shop/storefront/pkg/sentinel"
)

const (
	minSuggestionLen = 2
	toastDuration    = 2 * time.Second
	cartCount        = 3
	allCategories    = "все"
)

// Session is the catalog session the storefront drives
type Session interface {
	State() controller.State
	SetSearchQuery(text string)
	SetFilters(f models.FilterParams)
	Sync(ctx context.Context) error
	LoadMainProducts(ctx context.Context) error
	LoadMoreProducts(ctx context.Context) error
	Refresh(ctx context.Context) error
	Reload(ctx context.Context) error
}

// Suggester completes search input
type Suggester interface {
	SearchSuggestions(ctx context.Context, partial string) []string
	PopularSearches(ctx context.Context) []string
}

type Options struct {
	Session    Session
	Suggester  Suggester
	Categories []models.Category

	// Debounce delays suggestion lookups while typing
	Debounce time.Duration
	// ScrollMargin is how many rows before the load-more line the next page is requested
	ScrollMargin int

	Context context.Context
	Logger  *slog.Logger
}

type focusArea int

const (
	focusGrid focusArea = iota
	focusSearch
	focusCategories
	focusFilters
)

// StateChanged tells the program the session state moved on. Send it from a
// controller subscription.
type StateChanged struct{}

type opDoneMsg struct {
	op  string
	err error
}

type querySettledMsg struct {
	query string
}

type toastExpiredMsg struct {
	id int
}

type App struct {
	session   Session
	suggester Suggester
	ctx       context.Context
	logger    *slog.Logger

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	search   textinput.Model
	viewport viewport.Model
	filters  filterPanel
	tracker  *debounce.Tracker[string]
	sentinel *sentinel.Sentinel
	send     func(tea.Msg)

	state            controller.State
	categories       []models.Category
	categoryCursor   int
	suggestions      []string
	popular          []string
	suggestionCursor int
	focus            focusArea
	showFilters      bool
	cursor           int
	cardLines        []int
	markerLine       int
	moreRequested    bool
	toast            string
	toastID          int
	width            int
	height           int
}

func NewApp(opts Options) *App {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = TitleStyle

	si := textinput.New()
	si.Placeholder = "Поиск 5000+ товаров"
	si.Prompt = "🔍 "
	si.CharLimit = 100

	a := &App{
		session:          opts.Session,
		suggester:        opts.Suggester,
		ctx:              ctx,
		logger:           logger,
		keys:             defaultKeyMap(),
		help:             help.New(),
		spinner:          s,
		search:           si,
		viewport:         viewport.New(0, 0),
		filters:          newFilterPanel(),
		send:             func(tea.Msg) {},
		state:            opts.Session.State(),
		categories:       opts.Categories,
		suggestionCursor: -1,
		markerLine:       -1,
	}
	a.tracker = debounce.New(opts.Debounce, func(q string) {
		a.send(querySettledMsg{query: q})
	})
	a.sentinel = sentinel.New(sentinel.Options{
		Margin: opts.ScrollMargin,
		Gate: func() (bool, bool) {
			return a.state.HasMore(), a.state.Loading
		},
	})
	if a.suggester != nil {
		a.popular = a.suggester.PopularSearches(ctx)
	}
	return a
}

// SetSender routes messages produced outside the update loop, e.g. settled
// search input, into the program. Pass (*tea.Program).Send.
func (a *App) SetSender(send func(tea.Msg)) {
	a.send = send
}

// Close stops background timers
func (a *App) Close() {
	a.tracker.Stop()
	a.sentinel.Unobserve()
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.run("load main products", a.session.LoadMainProducts),
		tea.EnterAltScreen,
	)
}

// run performs a session operation off the update loop
func (a *App) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := a.ctx
	return tea.Batch(
		func() tea.Msg { return opDoneMsg{op: op, err: fn(ctx)} },
		a.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.search.Width = max(10, msg.Width-12)
		a.layout()

	case StateChanged:
		a.refreshState()

	case opDoneMsg:
		if msg.err != nil {
			a.logger.Debug("session operation failed", "op", msg.op, "error", msg.err)
		}
		a.refreshState()

	case querySettledMsg:
		if msg.query == a.search.Value() {
			a.updateSuggestions(msg.query)
		}

	case toastExpiredMsg:
		if msg.id == a.toastID {
			a.toast = ""
		}

	case spinner.TickMsg:
		if a.state.Loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			a.renderContent()
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		cmds = append(cmds, a.handleKey(msg))

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, a.checkSentinel())
	return a, tea.Batch(cmds...)
}

func (a *App) refreshState() {
	a.state = a.session.State()
	if n := len(a.state.Visible()); a.cursor >= n {
		a.cursor = max(0, n-1)
	}
	a.renderContent()
}

func (a *App) updateSuggestions(q string) {
	a.suggestionCursor = -1
	if a.suggester == nil || len([]rune(strings.TrimSpace(q))) < minSuggestionLen {
		a.suggestions = nil
		return
	}
	a.suggestions = a.suggester.SearchSuggestions(a.ctx, q)
}

// checkSentinel requests the next page once the load-more line scrolls into view
func (a *App) checkSentinel() tea.Cmd {
	a.sentinel.Check(sentinel.Window{Top: a.viewport.YOffset, Height: a.viewport.Height})
	if !a.moreRequested {
		return nil
	}
	a.moreRequested = false
	return a.run("load more products", a.session.LoadMoreProducts)
}

// requestMore is the sentinel callback; it runs inside Check on the update loop
func (a *App) requestMore() {
	a.moreRequested = true
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.ForceQuit) {
		return tea.Quit
	}

	switch a.focus {
	case focusSearch:
		return a.handleSearchKey(msg)
	case focusFilters:
		return a.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.Search):
		a.setFocus(focusSearch)
		return textinput.Blink
	case key.Matches(msg, a.keys.NextPane):
		a.nextFocus()
		return nil
	case key.Matches(msg, a.keys.Filters):
		a.toggleFilters()
		return nil
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.layout()
		return nil
	case key.Matches(msg, a.keys.Retry):
		if a.state.Err == nil {
			return nil
		}
		return a.run("reload", a.session.Reload)
	case key.Matches(msg, a.keys.Refresh):
		return a.run("refresh", a.session.Refresh)
	case key.Matches(msg, a.keys.Clear):
		return a.clearQuery()
	case key.Matches(msg, a.keys.LoadMore):
		if !a.state.HasMore() {
			return nil
		}
		return a.run("load more products", a.session.LoadMoreProducts)
	}

	if a.focus == focusCategories {
		return a.handleCategoryKey(msg)
	}
	return a.handleGridKey(msg)
}

func (a *App) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	options := a.suggestionOptions()

	switch {
	case key.Matches(msg, a.keys.Back):
		a.setFocus(focusGrid)
		return nil
	case key.Matches(msg, a.keys.NextPane):
		a.nextFocus()
		return nil
	case key.Matches(msg, a.keys.Submit):
		term := a.search.Value()
		if a.suggestionCursor >= 0 && a.suggestionCursor < len(options) {
			term = options[a.suggestionCursor]
		}
		return a.submitQuery(term)
	case msg.Type == tea.KeyUp:
		if len(options) > 0 {
			a.suggestionCursor = max(-1, a.suggestionCursor-1)
		}
		return nil
	case msg.Type == tea.KeyDown:
		if len(options) > 0 {
			a.suggestionCursor = min(len(options)-1, a.suggestionCursor+1)
		}
		return nil
	}

	before := a.search.Value()
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if v := a.search.Value(); v != before {
		a.suggestionCursor = -1
		a.tracker.Set(v)
	}
	return cmd
}

// suggestionOptions lists the dropdown entries in display order
func (a *App) suggestionOptions() []string {
	out := make([]string, 0, len(a.suggestions)+len(a.popular))
	out = append(out, a.suggestions...)
	return append(out, a.popular...)
}

// submitQuery makes term the session query. Blank input is ignored.
func (a *App) submitQuery(term string) tea.Cmd {
	if strings.TrimSpace(term) == "" {
		return nil
	}
	a.search.SetValue(term)
	a.tracker.Reset(term)
	a.setFocus(focusGrid)
	a.cursor = 0
	a.viewport.GotoTop()
	a.session.SetSearchQuery(term)
	return a.run("search", a.session.Sync)
}

func (a *App) clearQuery() tea.Cmd {
	a.search.SetValue("")
	a.tracker.Reset("")
	a.suggestions = nil
	a.filters.sync(models.FilterParams{})
	a.cursor = 0
	a.viewport.GotoTop()
	a.session.SetSearchQuery("")
	a.session.SetFilters(models.FilterParams{})
	return a.run("clear", a.session.Sync)
}

func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Filters):
		a.toggleFilters()
		return nil
	case key.Matches(msg, a.keys.NextPane):
		a.nextFocus()
		return nil
	}

	next, changed, cmd := a.filters.update(msg, a.keys, a.state.Filters)
	a.layout()
	if !changed {
		return cmd
	}
	a.cursor = 0
	a.viewport.GotoTop()
	a.session.SetFilters(next)
	a.refreshState()
	return tea.Batch(cmd, a.run("filter", a.session.Sync))
}

func (a *App) handleCategoryKey(msg tea.KeyMsg) tea.Cmd {
	if len(a.categories) == 0 {
		return nil
	}
	switch {
	case key.Matches(msg, a.keys.Left):
		a.categoryCursor = max(0, a.categoryCursor-1)
	case key.Matches(msg, a.keys.Right):
		a.categoryCursor = min(len(a.categories)-1, a.categoryCursor+1)
	case key.Matches(msg, a.keys.Submit):
		return a.selectCategory(a.categories[a.categoryCursor])
	case key.Matches(msg, a.keys.Down):
		a.setFocus(focusGrid)
	}
	return nil
}

// selectCategory replaces the query with a category filter. "Все" shows everything.
func (a *App) selectCategory(c models.Category) tea.Cmd {
	f := models.FilterParams{}
	if name := strings.ToLower(c.Name); name != allCategories {
		f = f.WithCategory(name)
	}
	a.search.SetValue("")
	a.tracker.Reset("")
	a.suggestions = nil
	a.filters.sync(f)
	a.cursor = 0
	a.viewport.GotoTop()
	a.session.SetSearchQuery("")
	a.session.SetFilters(f)
	a.setFocus(focusGrid)
	return a.run("category", a.session.Sync)
}

func (a *App) handleGridKey(msg tea.KeyMsg) tea.Cmd {
	products := a.state.Visible()
	cols := a.state.Columns()

	switch {
	case key.Matches(msg, a.keys.Up):
		if a.cursor < cols && a.viewport.YOffset > 0 {
			a.viewport.LineUp(1)
			return nil
		}
		a.moveCursor(-cols, len(products))
	case key.Matches(msg, a.keys.Down):
		if a.cursor+cols >= len(products) {
			a.viewport.LineDown(1)
			return nil
		}
		a.moveCursor(cols, len(products))
	case key.Matches(msg, a.keys.Left):
		a.moveCursor(-1, len(products))
	case key.Matches(msg, a.keys.Right):
		a.moveCursor(1, len(products))
	case key.Matches(msg, a.keys.PageUp):
		a.viewport.HalfViewUp()
	case key.Matches(msg, a.keys.PageDown):
		a.viewport.HalfViewDown()
	case key.Matches(msg, a.keys.AddToCart), key.Matches(msg, a.keys.Submit):
		if a.cursor < len(products) {
			return a.addToCart(products[a.cursor])
		}
	}
	return nil
}

func (a *App) moveCursor(delta, n int) {
	if n == 0 {
		return
	}
	a.cursor = min(n-1, max(0, a.cursor+delta))
	a.renderContent()
	a.scrollToCursor()
}

// scrollToCursor keeps the selected card inside the viewport
func (a *App) scrollToCursor() {
	if a.cursor >= len(a.cardLines) {
		return
	}
	top := a.cardLines[a.cursor]
	bottom := top + cardHeight
	switch {
	case top < a.viewport.YOffset:
		a.viewport.SetYOffset(top)
	case bottom > a.viewport.YOffset+a.viewport.Height:
		a.viewport.SetYOffset(bottom - a.viewport.Height)
	}
}

func (a *App) addToCart(p models.Product) tea.Cmd {
	if !p.InStock {
		return nil
	}
	a.toastID++
	id := a.toastID
	a.toast = p.Name + " добавлен в корзину"
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (a *App) setFocus(f focusArea) {
	a.focus = f
	if f == focusSearch {
		a.search.Focus()
		a.suggestionCursor = -1
	} else {
		a.search.Blur()
	}
	if f == focusFilters {
		a.filters.focusRow()
	} else {
		a.filters.blur()
	}
	a.layout()
}

func (a *App) nextFocus() {
	order := []focusArea{focusSearch, focusCategories, focusGrid}
	if a.showFilters {
		order = append(order, focusFilters)
	}
	i := indexOf(len(order), func(i int) bool { return order[i] == a.focus })
	a.setFocus(order[wrap(i+1, len(order))])
}

func (a *App) toggleFilters() {
	a.showFilters = !a.showFilters
	if a.showFilters {
		a.filters.sync(a.state.Filters)
		a.setFocus(focusFilters)
		return
	}
	a.setFocus(focusGrid)
}
