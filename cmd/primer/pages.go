package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/pagestore"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Manage a book's page text files",
}

var pagesExtractCmd = &cobra.Command{
	Use:   "extract <book> <pdf>",
	Short: "Write one text file per PDF page from the PDF's text layer",
	Long: `Create the book directory if needed and write page0001.txt, page0002.txt, ...
into its text directory. Scanned PDFs without a text layer produce empty
files; run OCR separately for those.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, pdfPath := args[0], args[1]
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		h = h.WithLayout(cfg.Layout())
		if err := h.EnsureBookDir(book); err != nil {
			return err
		}

		n, err := pagestore.ExtractPDFText(pdfPath, h.TextDir(book), cfg.PageKeyFormat(), cfg.Catalog.TextExt)
		if err != nil {
			return err
		}
		if api.IsStructuredOutput() {
			return api.Output(map[string]any{"book": book, "pages": n, "dir": h.TextDir(book)})
		}
		fmt.Printf("%s wrote %d pages to %s\n", successStyle.Render("✓"), n, h.TextDir(book))
		return nil
	},
}

var pagesCheckCmd = &cobra.Command{
	Use:   "check <book> <pdf>",
	Short: "Compare a book's page files with its source PDF",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, pdfPath := args[0], args[1]
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		h = h.WithLayout(cfg.Layout())

		store, err := pagestore.Open(h.TextDir(book), cfg.PageKeyFormat(), cfg.Catalog.TextExt)
		if err != nil {
			return err
		}
		result, err := pagestore.Check(store, pdfPath)
		if err != nil {
			return err
		}
		if api.IsStructuredOutput() {
			if err := api.Output(result); err != nil {
				return err
			}
		} else {
			renderCheck(os.Stdout, book, result)
		}
		if !result.OK() {
			return fmt.Errorf("page files do not match %s", pdfPath)
		}
		return nil
	},
}

func init() {
	pagesCmd.AddCommand(pagesExtractCmd, pagesCheckCmd)
	rootCmd.AddCommand(pagesCmd)
}
