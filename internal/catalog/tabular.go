package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/vocabtrainer/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// Tabular catalogs have a header row naming the columns. Unknown columns are ignored.
const (
	columnWord        = "word"
	columnTranslation = "translation"
	columnSource      = "source"
	columnLevel       = "level"
	columnPOS         = "pos"
	columnAudioUK     = "audio_uk"
	columnAudioUS     = "audio_us"
	columnURLs        = "urls"
)

func loadXLSX(path string) ([]models.CardDefinition, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel catalog: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel catalog has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return parseRows(rows)
}

func loadCSVFile(path string) ([]models.CardDefinition, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV catalog: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return parseRows(rows)
}

// parseRows maps a header row plus data rows to cards; blank rows are skipped
func parseRows(rows [][]string) ([]models.CardDefinition, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog has no header row")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[columnWord]; !ok {
		return nil, fmt.Errorf("catalog header has no %q column", columnWord)
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	cards := make([]models.CardDefinition, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		card := models.CardDefinition{
			Word:          cell(row, columnWord),
			Translation:   cell(row, columnTranslation),
			Source:        cell(row, columnSource),
			Level:         models.Level(cell(row, columnLevel)),
			PartsOfSpeech: splitList(cell(row, columnPOS)),
			ReferenceURLs: splitList(cell(row, columnURLs)),
		}
		uk, us := cell(row, columnAudioUK), cell(row, columnAudioUS)
		if uk != "" || us != "" {
			card.Audio = &models.PronunciationAudio{UK: uk, US: us}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// splitList splits a cell holding several values separated by commas or semicolons
func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
