package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/noxer-shop/storefront/models"
)

const (
	priceLimit      = 100000
	defaultMaxPrice = 10000
)

type filterRow int

const (
	rowCategory filterRow = iota
	rowMinPrice
	rowMaxPrice
	rowStock
	rowSort
	rowRating
	rowReset
	rowCount
)

type filterOption struct {
	value string
	label string
}

var categoryOptions = []filterOption{
	{"", "Все категории"},
	{"бутылки", "Бутылки"},
	{"футболки", "Футболки"},
	{"куртки", "Куртки"},
	{"штаны", "Штаны"},
	{"аксессуары", "Аксессуары"},
	{"сертификаты", "Сертификаты"},
}

var sortLabels = map[models.SortKey]string{
	models.SortPopular:   "По популярности",
	models.SortPriceAsc:  "По возрастанию цены",
	models.SortPriceDesc: "По убыванию цены",
	models.SortName:      "По названию",
	models.SortRating:    "По рейтингу",
}

var ratingOptions = []float64{0, 3, 4, 4.5}

const errPriceOrder = "Минимальная цена не может быть больше максимальной"

// filterPanel edits a copy of the session filters. Every accepted edit
// produces a complete replacement set.
type filterPanel struct {
	row  filterRow
	min  textinput.Model
	max  textinput.Model
	hint string
}

func newFilterPanel() filterPanel {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 6
		ti.Width = 8
		ti.Prompt = ""
		return ti
	}
	p := filterPanel{min: newInput("0"), max: newInput(strconv.Itoa(defaultMaxPrice))}
	p.sync(models.FilterParams{})
	return p
}

// sync shows the prices of f in the inputs
func (p *filterPanel) sync(f models.FilterParams) {
	p.min.SetValue("")
	if f.MinPrice != nil {
		p.min.SetValue(strconv.Itoa(*f.MinPrice))
	}
	p.max.SetValue(strconv.Itoa(defaultMaxPrice))
	if f.MaxPrice != nil {
		p.max.SetValue(strconv.Itoa(*f.MaxPrice))
	}
}

func (p *filterPanel) focusRow() {
	p.min.Blur()
	p.max.Blur()
	switch p.row {
	case rowMinPrice:
		p.min.Focus()
	case rowMaxPrice:
		p.max.Focus()
	}
}

func (p *filterPanel) blur() {
	p.min.Blur()
	p.max.Blur()
}

// update handles a key while the panel has focus. It returns the new filters
// and whether they should replace the session's.
func (p *filterPanel) update(msg tea.KeyMsg, keys keyMap, f models.FilterParams) (models.FilterParams, bool, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		p.row = (p.row + rowCount - 1) % rowCount
		p.focusRow()
		return f, false, nil
	case key.Matches(msg, keys.Down):
		p.row = (p.row + 1) % rowCount
		p.focusRow()
		return f, false, nil
	}

	step := 0
	switch {
	case key.Matches(msg, keys.Left):
		step = -1
	case key.Matches(msg, keys.Right):
		step = 1
	}
	submit := key.Matches(msg, keys.Submit)

	switch p.row {
	case rowCategory:
		if step == 0 && !submit {
			return f, false, nil
		}
		if step == 0 {
			step = 1
		}
		i := indexOf(len(categoryOptions), func(i int) bool {
			return f.Category != nil && categoryOptions[i].value == *f.Category
		})
		next := categoryOptions[wrap(i+step, len(categoryOptions))]
		return f.WithCategory(next.value), true, nil

	case rowMinPrice, rowMaxPrice:
		if submit {
			return p.applyPrices(f)
		}
		if msg.Type == tea.KeyRunes && !allDigits(msg.Runes) {
			return f, false, nil
		}
		var cmd tea.Cmd
		if p.row == rowMinPrice {
			p.min, cmd = p.min.Update(msg)
		} else {
			p.max, cmd = p.max.Update(msg)
		}
		p.hint = ""
		return f, false, cmd

	case rowStock:
		if step == 0 && !submit {
			return f, false, nil
		}
		inStock := f.InStock != nil && *f.InStock
		return f.WithInStock(!inStock), true, nil

	case rowSort:
		if step == 0 && !submit {
			return f, false, nil
		}
		if step == 0 {
			step = 1
		}
		current := models.SortPopular
		if f.SortBy != nil {
			current = *f.SortBy
		}
		i := indexOf(len(models.SortKeys), func(i int) bool { return models.SortKeys[i] == current })
		return f.WithSort(models.SortKeys[wrap(i+step, len(models.SortKeys))]), true, nil

	case rowRating:
		if step == 0 && !submit {
			return f, false, nil
		}
		if step == 0 {
			step = 1
		}
		i := indexOf(len(ratingOptions), func(i int) bool {
			return f.Rating != nil && ratingOptions[i] == *f.Rating
		})
		return f.WithRating(ratingOptions[wrap(i+step, len(ratingOptions))]), true, nil

	case rowReset:
		if !submit {
			return f, false, nil
		}
		p.hint = ""
		p.sync(models.FilterParams{})
		return models.FilterParams{}, true, nil
	}
	return f, false, nil
}

// applyPrices clamps both bounds to 0..100000 and rejects min > max
func (p *filterPanel) applyPrices(f models.FilterParams) (models.FilterParams, bool, tea.Cmd) {
	lo := parsePrice(p.min.Value(), 0)
	hi := parsePrice(p.max.Value(), defaultMaxPrice)
	if lo != nil && *lo < 0 {
		*lo = 0
	}
	if hi != nil && *hi > priceLimit {
		*hi = priceLimit
	}
	if lo != nil && hi != nil && *lo > *hi {
		p.hint = errPriceOrder
		return f, false, nil
	}
	p.hint = ""
	next := f.WithPriceRange(lo, hi)
	p.sync(next)
	return next, true, nil
}

// parsePrice returns nil for an empty field and def for an unreadable one
func parsePrice(s string, def int) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return models.IntPtr(def)
	}
	return &n
}

func allDigits(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return 0
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (p filterPanel) view(f models.FilterParams, focused bool, width int) string {
	row := func(r filterRow, label, value string) string {
		cursor := "  "
		if focused && p.row == r {
			cursor = lipgloss.NewStyle().Foreground(AccentColor).Render("› ")
		}
		return cursor + lipgloss.NewStyle().Width(14).Foreground(MutedColor).Render(label) + value
	}

	category := categoryOptions[0].label
	if f.Category != nil {
		category = *f.Category
		for _, o := range categoryOptions {
			if o.value == *f.Category {
				category = o.label
			}
		}
	}

	stock := "Все товары"
	if f.InStock != nil && *f.InStock {
		stock = "В наличии"
	}

	sortKey := models.SortPopular
	if f.SortBy != nil {
		sortKey = *f.SortBy
	}

	rating := "Любой"
	if f.Rating != nil {
		rating = fmt.Sprintf("от %g ★", *f.Rating)
	}

	lines := []string{
		TitleStyle.Render("Фильтры"),
		row(rowCategory, "Категория", "‹ "+category+" ›"),
		row(rowMinPrice, "Цена от, ₽", p.min.View()),
		row(rowMaxPrice, "Цена до, ₽", p.max.View()),
		row(rowStock, "Наличие", stock),
		row(rowSort, "Сортировка", "‹ "+sortLabels[sortKey]+" ›"),
		row(rowRating, "Рейтинг", "‹ "+rating+" ›"),
		row(rowReset, "", "Сбросить все"),
	}
	if p.hint != "" {
		lines = append(lines, ErrorStyle.Render(p.hint))
	}
	if summary := activeFilters(f); summary != "" {
		lines = append(lines, HelpStyle.Render(summary))
	}

	style := PanelStyle
	if focused {
		style = style.BorderForeground(AccentColor)
	}
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// activeFilters summarises the filters that are set
func activeFilters(f models.FilterParams) string {
	var parts []string
	if f.Category != nil && *f.Category != "" {
		parts = append(parts, "Категория: "+*f.Category)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		lo, hi := 0, defaultMaxPrice
		if f.MinPrice != nil {
			lo = *f.MinPrice
		}
		if f.MaxPrice != nil {
			hi = *f.MaxPrice
		}
		parts = append(parts, fmt.Sprintf("Цена: %d₽ — %d₽", lo, hi))
	}
	if f.InStock != nil && *f.InStock {
		parts = append(parts, "В наличии")
	}
	if f.Rating != nil {
		parts = append(parts, fmt.Sprintf("Рейтинг от %g", *f.Rating))
	}
	return strings.Join(parts, " • ")
}
