// Package catalog loads the read-only list of vocabulary cards
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vocabtrainer/backend/internal/models"
	"golang.org/x/text/cases"
)

// ErrInvalidCatalog is returned for a catalog with empty or duplicate words
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is an ordered, immutable list of cards.
//
// Words are unique as exact strings, so "may" and "May" are distinct cards. A second,
// case-folded index serves lookups that ignore case.
type Catalog struct {
	cards  []models.CardDefinition
	exact  map[string]int
	folded map[string]int // first card of each folded word
}

// New validates the cards and builds the catalog. Card order is kept.
func New(cards []models.CardDefinition) (*Catalog, error) {
	fold := cases.Fold()
	c := &Catalog{
		cards:  make([]models.CardDefinition, 0, len(cards)),
		exact:  make(map[string]int, len(cards)),
		folded: make(map[string]int, len(cards)),
	}
	for i, card := range cards {
		card.Word = strings.TrimSpace(card.Word)
		if card.Word == "" {
			return nil, fmt.Errorf("%w: card %d has an empty word", ErrInvalidCatalog, i)
		}
		card.Level = models.Level(strings.ToUpper(strings.TrimSpace(string(card.Level))))

		if prev, ok := c.exact[card.Word]; ok {
			return nil, fmt.Errorf("%w: duplicate word %q (cards %d and %d)", ErrInvalidCatalog, card.Word, prev, i)
		}
		c.exact[card.Word] = len(c.cards)
		if key := fold.String(card.Word); !hasKey(c.folded, key) {
			c.folded[key] = len(c.cards)
		}
		c.cards = append(c.cards, card)
	}
	return c, nil
}

// Load reads a catalog file. The format is chosen by extension: .json, .xlsx or .csv.
func Load(path string) (*Catalog, error) {
	var (
		cards []models.CardDefinition
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		cards, err = loadJSONFile(path)
	case ".xlsx":
		cards, err = loadXLSX(path)
	case ".csv":
		cards, err = loadCSVFile(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return New(cards)
}

// ParseJSON reads cards in the dataset format: an array of card objects
func ParseJSON(r io.Reader) ([]models.CardDefinition, error) {
	var cards []models.CardDefinition
	if err := json.NewDecoder(r).Decode(&cards); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return cards, nil
}

func loadJSONFile(path string) ([]models.CardDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return ParseJSON(f)
}

// Cards returns a copy of the card list in catalog order.
//
// The copy is shallow: slice and pointer fields of the cards are shared and must not be modified.
func (c *Catalog) Cards() []models.CardDefinition {
	return slices.Clone(c.cards)
}

// Len returns the number of cards
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Find looks a word up. An exact match wins; otherwise case is ignored and the first
// matching card in catalog order is returned.
func (c *Catalog) Find(word string) (models.CardDefinition, bool) {
	word = strings.TrimSpace(word)
	if i, ok := c.exact[word]; ok {
		return c.cards[i], true
	}
	if i, ok := c.folded[cases.Fold().String(word)]; ok {
		return c.cards[i], true
	}
	return models.CardDefinition{}, false
}

func hasKey(m map[string]int, key string) bool {
	_, ok := m[key]
	return ok
}

// Levels returns the distinct levels present in the catalog, sorted
func (c *Catalog) Levels() []models.Level {
	var levels []models.Level
	for _, card := range c.cards {
		if card.Level != "" && !slices.Contains(levels, card.Level) {
			levels = append(levels, card.Level)
		}
	}
	slices.Sort(levels)
	return levels
}
