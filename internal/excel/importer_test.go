package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/wordmastery/pkg/models"
)

type fakeWriter struct {
	items map[string]models.VocabularyItem
}

func (w *fakeWriter) UpsertItem(_ context.Context, item *models.VocabularyItem) (bool, error) {
	if w.items == nil {
		w.items = make(map[string]models.VocabularyItem)
	}
	_, exists := w.items[item.Term]
	w.items[item.Term] = *item
	return !exists, nil
}

func TestImportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.csv")
	data := "term,translation,lemma,tags\n" +
		"Food,,,\n" +
		"사과,apple,,\"fruit, basic\"\n" +
		"먹어요,eat,먹다,verbs\n" +
		",missing term,,\n" +
		"사과,apple (fruit),,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	w := &fakeWriter{}
	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.Language = "ko"
	result, err := ImportWords(context.Background(), w, cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)

	apple := w.items["사과"]
	assert.Equal(t, "apple (fruit)", apple.Translation)
	assert.Equal(t, models.Tags{"Food"}, apple.Tags)
	assert.Equal(t, "ko", apple.Language)

	eat := w.items["먹어요"]
	assert.Equal(t, "먹다", eat.Lemma)
	assert.Equal(t, models.Tags{"verbs", "Food"}, eat.Tags)
}

func TestImportExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"term", "translation", "lemma", "tags"},
		{"가다", "to go", "", "verbs"},
		{"물", "water", "", "food, basic"},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	w := &fakeWriter{}
	cfg := DefaultImportConfig()
	cfg.FilePath = path
	result, err := ImportWords(context.Background(), w, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, models.Tags{"food", "basic"}, w.items["물"].Tags)
	assert.Equal(t, "to go", w.items["가다"].Translation)
}

func TestImportMissingFile(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "nope.xlsx")
	_, err := ImportWords(context.Background(), &fakeWriter{}, cfg)
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 3, columnToIndex("d"))
	assert.Equal(t, 26, columnToIndex("AA"))
	assert.Equal(t, -1, columnToIndex("1"))
}
