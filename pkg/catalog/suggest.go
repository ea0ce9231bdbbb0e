package catalog

import (
	"slices"
	"strings"
)

// MaxSuggestions caps the number of suggestions returned for one query
const MaxSuggestions = 8

// Vocabulary is the fixed list of search terms suggestions are drawn from
type Vocabulary struct {
	terms   []string
	popular []string
}

func NewVocabulary(terms, popular []string) *Vocabulary {
	return &Vocabulary{terms: slices.Clone(terms), popular: slices.Clone(popular)}
}

// Suggest returns up to limit terms containing partial, case-insensitively.
// A limit of zero or less means MaxSuggestions.
func (v *Vocabulary) Suggest(partial string, limit int) []string {
	if limit <= 0 || limit > MaxSuggestions {
		limit = MaxSuggestions
	}
	needle := strings.ToLower(partial)
	out := make([]string, 0, limit)
	for _, term := range v.terms {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(term), needle) {
			out = append(out, term)
		}
	}
	return out
}

// Popular returns the frequently searched terms
func (v *Vocabulary) Popular() []string {
	return slices.Clone(v.popular)
}
