package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noxer-shop/storefront/models"
)

//go:embed fixture.yaml
var defaultFixture []byte

// Fixture is the on-disk shape of a mock catalog dataset
type Fixture struct {
	Products    []models.Product  `yaml:"products"`
	Categories  []models.Category `yaml:"categories"`
	Suggestions []string          `yaml:"suggestions"`
	Popular     []string          `yaml:"popular"`
}

// LoadFixture parses a YAML fixture and checks product ids are unique and positive
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog fixture: %w", err)
	}

	seen := make(map[int]struct{}, len(f.Products))
	for i, p := range f.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product #%d (%q) has invalid id %d", i, p.Name, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		seen[p.ID] = struct{}{}
		if f.Products[i].Tags == nil {
			f.Products[i].Tags = []string{}
		}
	}
	return &f, nil
}

// LoadFixtureFile reads a fixture from disk
func LoadFixtureFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog fixture: %w", err)
	}
	defer file.Close()
	return LoadFixture(file)
}

// DefaultFixture returns the built-in six product dataset
func DefaultFixture() *Fixture {
	f, err := LoadFixture(bytes.NewReader(defaultFixture))
	if err != nil {
		// The embedded file is part of the binary; failing here is a build defect.
		panic(err)
	}
	return f
}

// Default returns a catalog over the built-in dataset
func Default() *Catalog {
	return New(DefaultFixture().Products)
}

// DefaultCategories returns the categories shown by the category scroller
func DefaultCategories() []models.Category {
	return DefaultFixture().Categories
}

// DefaultVocabulary returns the built-in search suggestion vocabulary
func DefaultVocabulary() *Vocabulary {
	f := DefaultFixture()
	return NewVocabulary(f.Suggestions, f.Popular)
}
