package models

import "strings"

// Level represents a CEFR level tag of a card
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
)

// LevelFilter selects which cards enter the queues
type LevelFilter string

const (
	LevelFilterAll LevelFilter = "all"
	LevelFilterA1  LevelFilter = "a1"
	LevelFilterA2  LevelFilter = "a2"
	LevelFilterB1  LevelFilter = "b1"
	LevelFilterB2  LevelFilter = "b2"
)

// ParseLevelFilter converts a user supplied value into a LevelFilter.
//
// Empty value means "all". Matching is case-insensitive.
func ParseLevelFilter(value string) (LevelFilter, bool) {
	switch f := LevelFilter(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return LevelFilterAll, true
	case LevelFilterAll, LevelFilterA1, LevelFilterA2, LevelFilterB1, LevelFilterB2:
		return f, true
	default:
		return "", false
	}
}

// Matches reports whether a card level passes the filter
func (f LevelFilter) Matches(level Level) bool {
	if f == LevelFilterAll || f == "" {
		return true
	}
	return strings.EqualFold(string(f), string(level))
}

// PronunciationAudio holds the two recorded variants of a word
type PronunciationAudio struct {
	UK string `json:"uk,omitempty"`
	US string `json:"us,omitempty"`
}

// CardDefinition represents a single vocabulary item of the catalog.
//
// Word is the unique identity of the card and the join key into review records.
type CardDefinition struct {
	Word          string              `json:"word"`
	Translation   string              `json:"translation"` // May contain several senses separated by ";" or "."
	Source        string              `json:"source,omitempty"`
	Level         Level               `json:"level,omitempty"`
	PartsOfSpeech []string            `json:"pos"`
	ReferenceURLs []string            `json:"oxford_urls"`
	Audio         *PronunciationAudio `json:"audio,omitempty"`
}

// Senses splits the translation into its separate meanings
func (c CardDefinition) Senses() []string {
	parts := strings.FieldsFunc(c.Translation, func(r rune) bool {
		return r == ';' || r == '.'
	})
	senses := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			senses = append(senses, p)
		}
	}
	return senses
}

// AudioURL returns the preferred pronunciation URL, UK first
func (c CardDefinition) AudioURL() string {
	if c.Audio == nil {
		return ""
	}
	if c.Audio.UK != "" {
		return c.Audio.UK
	}
	return c.Audio.US
}

// CardKind tells which queue a card was served from
type CardKind string

const (
	CardKindReview CardKind = "review"
	CardKindNew    CardKind = "new"
)
