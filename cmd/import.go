package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/wordmastery/internal/excel"
)

var importOpts = excel.DefaultImportConfig()

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import vocabulary from an Excel or CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openService()
		if err != nil {
			return err
		}
		defer store.Close()

		opts := importOpts
		opts.FilePath = args[0]
		if opts.Language == "" {
			opts.Language = cfg.DefaultLanguage
		}

		result, err := excel.ImportWords(context.Background(), store, opts)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Processed %d rows: %d created, %d updated, %d skipped\n",
			result.TotalProcessed, result.Created, result.Updated, result.Skipped)
		for _, e := range result.Errors {
			fmt.Println("⚠️", e)
		}
		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importOpts.SheetName, "sheet", "", "sheet to import, first sheet if empty")
	f.IntVar(&importOpts.StartRow, "start-row", importOpts.StartRow, "first data row (1-based)")
	f.StringVar(&importOpts.Language, "lang", "", "language code of the terms, DEFAULT_LANGUAGE if empty")
	f.StringVar(&importOpts.TermColumn, "term-col", importOpts.TermColumn, "column with the term")
	f.StringVar(&importOpts.TranslationColumn, "translation-col", importOpts.TranslationColumn, "column with the translation")
	f.StringVar(&importOpts.LemmaColumn, "lemma-col", importOpts.LemmaColumn, "column with the dictionary form")
	f.StringVar(&importOpts.TagsColumn, "tags-col", importOpts.TagsColumn, "column with comma separated tags")
	rootCmd.AddCommand(importCmd)
}
