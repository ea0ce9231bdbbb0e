// Package format renders prices, discounts and ratings for display.
package format

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	fullStar  = "★"
	halfStar  = "⯨"
	emptyStar = "☆"
	maxStars  = 5
)

// Price groups thousands with a space and appends the ruble sign: 2 800 ₽
func Price(rubles int) string {
	return humanize.FormatInteger("# ###.", rubles) + " ₽"
}

// Discount is the percentage saved against the original price, rounded.
// It is 0 when there is no saving.
func Discount(original, current int) int {
	if original <= 0 || current >= original {
		return 0
	}
	return int(math.Round(float64(original-current) / float64(original) * 100))
}

// Truncate cuts s to max runes and marks the cut with "..."
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max < 0 {
		max = 0
	}
	return string(r[:max]) + "..."
}

// Stars draws a five-star rating with a half star for fractions of .5 and up
func Stars(rating float64) string {
	rating = math.Max(0, math.Min(maxStars, rating))
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5

	var b strings.Builder
	b.WriteString(strings.Repeat(fullStar, full))
	empty := maxStars - full
	if half {
		b.WriteString(halfStar)
		empty--
	}
	b.WriteString(strings.Repeat(emptyStar, empty))
	return b.String()
}
