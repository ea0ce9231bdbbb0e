package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noxer-shop/storefront/models"
	"github.com/noxer-shop/storefront/pkg/controller"
	"github.com/noxer-shop/storefront/pkg/format"
	"github.com/noxer-shop/storefront/pkg/sentinel"
)

const (
	cardInnerLines = 5
	cardHeight     = cardInnerLines + 2 // rounded border
	nameWidth      = 28
	minViewport    = 3
)

func (a *App) View() string {
	sections := []string{
		a.headerView(),
		a.bannerView(),
		a.searchView(),
		a.filterToggleView(),
	}
	if a.showFilters {
		sections = append(sections, a.filters.view(a.state.Filters, a.focus == focusFilters, a.width))
	}
	sections = append(sections,
		a.categoriesView(),
		a.viewport.View(),
		a.statusView(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// layout sizes the viewport to whatever the surrounding chrome leaves
func (a *App) layout() {
	chrome := []string{
		a.headerView(),
		a.bannerView(),
		a.searchView(),
		a.filterToggleView(),
		a.categoriesView(),
		a.statusView(),
	}
	if a.showFilters {
		chrome = append(chrome, a.filters.view(a.state.Filters, a.focus == focusFilters, a.width))
	}
	used := 0
	for _, s := range chrome {
		used += lipgloss.Height(s)
	}
	a.viewport.Width = a.width
	a.viewport.Height = max(minViewport, a.height-used)
	a.renderContent()
}

func (a *App) headerView() string {
	logo := lipgloss.JoinVertical(lipgloss.Left,
		LogoStyle.Render("Noxer Shop"),
		SubtitleStyle.Render("Интернет магазин"),
	)
	actions := HelpStyle.Render("👤 Мой аккаунт   🛒 " + strconv.Itoa(cartCount) + "   ☰")
	gap := max(1, a.width-lipgloss.Width(logo)-lipgloss.Width(actions))
	return lipgloss.JoinHorizontal(lipgloss.Top, logo, strings.Repeat(" ", gap), actions)
}

func (a *App) bannerView() string {
	style := BannerStyle
	if a.width > 0 {
		style = style.Width(a.width)
	}
	return style.Render("ВСЕМ КЛИЕНТАМ ДАРИМ 500 РУБ.\n" +
		lipgloss.NewStyle().Bold(false).Render("на первый заказ в телеграм-боте"))
}

func (a *App) searchView() string {
	style := InputStyle
	if a.focus == focusSearch {
		style = FocusedInputStyle
	}
	box := style.Render(a.search.View() + "  " + HelpStyle.Render("Найти"))
	if a.focus != focusSearch {
		return box
	}

	var lines []string
	pos := 0
	item := func(s string) string {
		if pos == a.suggestionCursor {
			s = ActiveChipStyle.Render(s)
		} else {
			s = ChipStyle.Render(s)
		}
		pos++
		return s
	}

	if len(a.suggestions) > 0 {
		lines = append(lines, TitleStyle.Render("Подходящие товары"))
		for _, s := range a.suggestions {
			lines = append(lines, item("🔍 "+s))
		}
	}
	if len(a.popular) > 0 {
		tags := make([]string, 0, len(a.popular))
		for _, s := range a.popular {
			tags = append(tags, item(s))
		}
		lines = append(lines,
			TitleStyle.Render("Часто ищут:"),
			lipgloss.NewStyle().Width(max(20, a.width-2)).Render(strings.Join(tags, " ")),
		)
	}
	if len(lines) == 0 {
		return box
	}
	return lipgloss.JoinVertical(lipgloss.Left, box, PanelStyle.Render(strings.Join(lines, "\n")))
}

func (a *App) filterToggleView() string {
	arrow := "▼"
	if a.showFilters {
		arrow = "▲"
	}
	line := TitleStyle.Render("Фильтры " + arrow)
	if summary := activeFilters(a.state.Filters); summary != "" && !a.showFilters {
		line += "  " + HelpStyle.Render(summary)
	}
	return line
}

func (a *App) categoriesView() string {
	if len(a.categories) == 0 {
		return ""
	}
	selected := ""
	if a.state.Filters.Category != nil {
		selected = *a.state.Filters.Category
	}

	chips := make([]string, len(a.categories))
	for i, c := range a.categories {
		label := fmt.Sprintf("%s %s %d", c.Icon, c.Name, c.ProductCount)
		active := strings.ToLower(c.Name) == selected ||
			(selected == "" && strings.ToLower(c.Name) == allCategories && a.state.Mode() == controller.ModeBrowse)
		switch {
		case a.focus == focusCategories && i == a.categoryCursor:
			chips[i] = SelectedCardStyle.UnsetPadding().Render(label)
		case active:
			chips[i] = ActiveChipStyle.Border(lipgloss.RoundedBorder()).Render(label)
		default:
			chips[i] = CardStyle.UnsetPadding().Render(label)
		}
	}

	// Scroll so the cursor chip is visible.
	start := 0
	if a.width > 0 {
		for start < a.categoryCursor && lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, chips[start:a.categoryCursor+1]...)) > a.width {
			start++
		}
	}
	end := start
	for end < len(chips) {
		if a.width > 0 && lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, chips[start:end+1]...)) > a.width {
			break
		}
		end++
	}
	if end == start {
		end = start + 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips[start:end]...)
}

func (a *App) statusView() string {
	if a.toast != "" {
		return ToastStyle.Render("✓ " + a.toast)
	}
	return a.help.View(a.keys)
}

// renderContent rebuilds the scrollable product area and repositions the
// load-more sentinel.
func (a *App) renderContent() {
	st := a.state
	products := st.Visible()
	a.cardLines = a.cardLines[:0]

	var lines []string
	add := func(s string) {
		lines = append(lines, strings.Split(s, "\n")...)
	}
	marker := -1

	switch {
	case st.Loading && st.Page == 1 && len(products) == 0:
		add(a.spinner.View() + " Загрузка товаров...")

	case st.Err != nil:
		msg := st.Err.Error()
		var loadErr *controller.SessionLoadError
		if errors.As(st.Err, &loadErr) {
			msg = loadErr.Message
		}
		add(ErrorStyle.Render(msg))
		add(HelpStyle.Render("[r] Попробовать снова"))

	default:
		if st.Mode() == controller.ModeResult {
			add(a.resultsHeader())
			add("")
		}
		lines = a.appendGrid(lines, products, st.Columns())

		if st.HasMore() {
			if st.Loading {
				add(a.spinner.View() + " Загрузка товаров...")
			} else {
				add(TitleStyle.Render(fmt.Sprintf("Показать еще (%d)", st.Remaining())))
			}
			marker = len(lines) - 1
		}
	}
	add("")
	add(HelpStyle.Render("© 2024 Noxer Shop"))

	a.viewport.SetContent(strings.Join(lines, "\n"))

	if marker < 0 {
		a.sentinel.Unobserve()
		a.markerLine = -1
		return
	}
	// A new page moves the marker; that counts as a fresh observation.
	if a.sentinel.Observing() && marker == a.markerLine {
		a.sentinel.Move(sentinel.Marker{Line: marker})
		return
	}
	a.markerLine = marker
	a.sentinel.Observe(sentinel.Marker{Line: marker}, a.requestMore)
}

func (a *App) resultsHeader() string {
	title := "Товары не найдены"
	if len(a.state.Results) > 0 {
		title = fmt.Sprintf("Найдено %d товаров", a.state.TotalItems)
	}
	out := TitleStyle.Render(title)
	if a.state.SearchQuery != "" {
		out += "\n" + HelpStyle.Render(fmt.Sprintf("По запросу: %q", a.state.SearchQuery))
	}
	return out
}

// appendGrid lays products out in rows of cols cards and records where each card starts
func (a *App) appendGrid(lines []string, products []models.Product, cols int) []string {
	width := a.width
	if width <= 0 {
		width = 80
	}
	cardWidth := max(20, width/cols-1)

	for start := 0; start < len(products); start += cols {
		end := min(start+cols, len(products))
		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			a.cardLines = append(a.cardLines, len(lines))
			cards = append(cards, a.cardView(products[i], cardWidth, i == a.cursor && a.focus == focusGrid))
		}
		lines = append(lines, strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, cards...), "\n")...)
	}
	return lines
}

func (a *App) cardView(p models.Product, width int, selected bool) string {
	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	inner := width - 4 // border and padding

	name := format.Truncate(p.Name, min(nameWidth, max(4, inner-8)))
	if p.OriginalPrice != nil && *p.OriginalPrice > p.Price {
		name += " " + BadgeStyle.Render(fmt.Sprintf("-%d%%", format.Discount(*p.OriginalPrice, p.Price)))
	}

	price := PriceStyle.Render(format.Price(p.Price))
	if p.OriginalPrice != nil && *p.OriginalPrice > p.Price {
		price += " " + OldPriceStyle.Render(format.Price(*p.OriginalPrice))
	}

	rating := StarStyle.Render(format.Stars(p.Stars())) + HelpStyle.Render(fmt.Sprintf(" (%d)", p.Reviews()))

	action := TitleStyle.Render("[a] В корзину")
	if !p.InStock {
		action = OutOfStockStyle.Render("Нет в наличии")
	}

	body := strings.Join([]string{
		name,
		HelpStyle.Render(format.Truncate(p.Category, max(4, inner))),
		price,
		rating,
		action,
	}, "\n")
	return style.Width(width - 2).Height(cardInnerLines).MaxHeight(cardHeight).Render(body)
}
