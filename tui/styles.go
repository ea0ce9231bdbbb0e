package tui

import "github.com/charmbracelet/lipgloss"

var (
	AccentColor    = lipgloss.AdaptiveColor{Light: "#7B2FF7", Dark: "#A879FF"}
	SecondaryColor = lipgloss.AdaptiveColor{Light: "#0A7CFF", Dark: "#5FA8FF"}
	TextColor      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#EDEDED"}
	MutedColor     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	ErrorColor     = lipgloss.AdaptiveColor{Light: "#D92D20", Dark: "#FF6B5E"}
	SuccessColor   = lipgloss.AdaptiveColor{Light: "#12805C", Dark: "#4ADE80"}
	DiscountColor  = lipgloss.AdaptiveColor{Light: "#E5484D", Dark: "#FF7A7F"}
)

var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(AccentColor).
			Bold(true).
			Padding(0, 2)

	TitleStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ToastStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ChipStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1)

	ActiveChipStyle = ChipStyle.
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(SecondaryColor)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)

	SelectedCardStyle = CardStyle.
				BorderForeground(AccentColor)

	PriceStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	OldPriceStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Strikethrough(true)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(DiscountColor).
			Padding(0, 1)

	StarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5A524"))

	OutOfStockStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)

	FocusedInputStyle = InputStyle.
				BorderForeground(AccentColor)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(MutedColor).
			Padding(0, 1)
)
