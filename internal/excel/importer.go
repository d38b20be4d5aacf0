package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/wordmastery/pkg/models"
)

// ItemWriter stores imported vocabulary items
type ItemWriter interface {
	// UpsertItem inserts the item or updates the one with the same term,
	// reporting whether a new row was created
	UpsertItem(ctx context.Context, item *models.VocabularyItem) (bool, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	TermColumn        string // Column with the target-language term
	TranslationColumn string // Column with the translation
	LemmaColumn       string // Column with the dictionary form
	TagsColumn        string // Column with comma separated tags
	SheetName         string // Name of the sheet to import, first sheet if empty
	StartRow          int    // The row to start importing from (1-based index)
	Language          string // Language code stored on every item
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TermColumn:        "A",
		TranslationColumn: "B",
		LemmaColumn:       "C",
		TagsColumn:        "D",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportWords imports vocabulary from an Excel or CSV file
func ImportWords(ctx context.Context, w ItemWriter, config ImportConfig) (*ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	section := ""
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// A row with only its first cell filled names the section below it
		if name, ok := sectionHeader(row); ok {
			section = name
			continue
		}

		result.TotalProcessed++
		item, ok := parseRow(row, config, section)
		if !ok {
			result.Skipped++
			continue
		}
		created, err := w.UpsertItem(ctx, item)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

// readExcel returns the rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows of sheet %q", sheet)
	}
	return rows, nil
}

// readCSV returns every record of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func sectionHeader(row []string) (string, bool) {
	if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
		return "", false
	}
	for _, cell := range row[1:] {
		if strings.TrimSpace(cell) != "" {
			return "", false
		}
	}
	name := strings.Trim(strings.TrimSpace(row[0]), "\"")
	return name, name != ""
}

// parseRow builds an item from a row; rows without term or translation are rejected
func parseRow(row []string, config ImportConfig, section string) (*models.VocabularyItem, bool) {
	item := &models.VocabularyItem{
		Term:        cell(row, config.TermColumn),
		Translation: cell(row, config.TranslationColumn),
		Lemma:       cell(row, config.LemmaColumn),
		Language:    config.Language,
		Tags:        splitTags(cell(row, config.TagsColumn)),
	}
	if item.Term == "" || item.Translation == "" {
		return nil, false
	}
	if section != "" && !item.Tags.Has(section) {
		item.Tags = append(item.Tags, section)
	}
	return item, true
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func splitTags(s string) models.Tags {
	var tags models.Tags
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" && !tags.Has(tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
