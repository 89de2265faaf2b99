package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabtrainer/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const datasetJSON = `[
  {
    "word": "about",
    "translation": "о; об; около",
    "source": "mueller",
    "level": "A1",
    "pos": ["adverb", "preposition"],
    "oxford_urls": ["https://www.oxfordlearnersdictionaries.com/definition/english/about_1"],
    "audio": {"uk": "https://audio/about-uk.mp3", "us": null}
  },
  {
    "word": "Straße",
    "translation": "улица",
    "level": "b2",
    "pos": [],
    "oxford_urls": []
  },
  {
    "word": "ability",
    "translation": "способность",
    "level": null,
    "pos": ["noun"],
    "oxford_urls": [],
    "audio": null
  }
]`

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	require.NoError(t, os.WriteFile(path, []byte(datasetJSON), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "about", c.Cards()[0].Word)
	assert.Equal(t, []string{"adverb", "preposition"}, c.Cards()[0].PartsOfSpeech)
	assert.Equal(t, "https://audio/about-uk.mp3", c.Cards()[0].AudioURL())
	assert.Equal(t, models.LevelB2, c.Cards()[1].Level)
	assert.Nil(t, c.Cards()[2].Audio)
	assert.Equal(t, []models.Level{models.LevelA1, models.LevelB2}, c.Levels())
}

func TestCatalog_Find(t *testing.T) {
	cards, err := ParseJSON(strings.NewReader(datasetJSON))
	require.NoError(t, err)
	c, err := New(cards)
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    string
		expected string
		found    bool
	}{
		{name: "exact", query: "about", expected: "about", found: true},
		{name: "upper case", query: "ABOUT", expected: "about", found: true},
		{name: "surrounding spaces", query: "  ability ", expected: "ability", found: true},
		{name: "case folding", query: "STRASSE", expected: "Straße", found: true},
		{name: "missing", query: "zebra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, ok := c.Find(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, card.Word)
		})
	}
}

func TestCatalog_FindCaseDistinctWords(t *testing.T) {
	c, err := New([]models.CardDefinition{
		{Word: "may", Translation: "might"},
		{Word: "May", Translation: "month"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	tests := []struct {
		name        string
		query       string
		translation string
	}{
		{name: "lower case exact", query: "may", translation: "might"},
		{name: "title case exact", query: "May", translation: "month"},
		{name: "folded falls back to first card", query: "MAY", translation: "might"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, ok := c.Find(tt.query)
			require.True(t, ok)
			assert.Equal(t, tt.translation, card.Translation)
		})
	}
}

func TestCatalog_CardsReturnsCopy(t *testing.T) {
	c, err := New([]models.CardDefinition{{Word: "hello"}, {Word: "world"}})
	require.NoError(t, err)

	cards := c.Cards()
	cards[0].Word = "changed"
	cards[1] = models.CardDefinition{}

	assert.Equal(t, "hello", c.Cards()[0].Word)
	assert.Equal(t, "world", c.Cards()[1].Word)
	card, ok := c.Find("hello")
	require.True(t, ok)
	assert.Equal(t, "hello", card.Word)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		cards []models.CardDefinition
	}{
		{name: "empty word", cards: []models.CardDefinition{{Word: "a"}, {Word: "  "}}},
		{name: "duplicate word", cards: []models.CardDefinition{{Word: "hello"}, {Word: "hello"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cards)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.xlsx")
	f := excelize.NewFile()
	rows := [][]any{
		{"Word", "Translation", "Level", "POS", "Audio_UK", "Audio_US", "URLs"},
		{"hello", "привет", "A1", "exclamation, noun", "", "https://audio/hello-us.mp3", "https://a; https://b"},
		{},
		{"world", "мир", "a2"},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	hello := c.Cards()[0]
	assert.Equal(t, []string{"exclamation", "noun"}, hello.PartsOfSpeech)
	assert.Equal(t, []string{"https://a", "https://b"}, hello.ReferenceURLs)
	assert.Equal(t, "https://audio/hello-us.mp3", hello.AudioURL())

	world := c.Cards()[1]
	assert.Equal(t, models.LevelA2, world.Level)
	assert.Nil(t, world.Audio)
}

func TestLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	content := "word,translation,level\nhello,привет,A1\n,,\nworld,мир,A2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "мир", c.Cards()[1].Translation)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "cards.yaml"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	noWord := filepath.Join(dir, "cards.csv")
	require.NoError(t, os.WriteFile(noWord, []byte("translation\nпривет\n"), 0o644))
	_, err = Load(noWord)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"word": "not an array"}`), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
