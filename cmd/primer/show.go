package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/home"
)

var (
	showSegments bool
	showLeaf     string
)

var showCmd = &cobra.Command{
	Use:   "show <book>",
	Short: "Print a book's catalog",
	Long: `Print the saved catalog. Text output renders the outline as Markdown
followed by its diagnostics; -o yaml|json prints the tree itself.

Examples:
  primer show algebra
  primer show algebra --segments -o json
  primer show algebra --leaf 2.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book := args[0]
		if err := home.ValidateBookName(book); err != nil {
			return err
		}
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h)
		if err != nil {
			return err
		}
		h = h.WithLayout(mgr.Get().Layout())

		path := h.CatalogPath(book)
		if showSegments {
			path = h.SegmentsPath(book)
		}
		root, err := catalog.Load(path)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s has no catalog yet; run: primer catalog %s", book, book)
		}
		if err != nil {
			return err
		}

		if showLeaf != "" {
			node, ok := catalog.Find(root, showLeaf)
			if !ok {
				return fmt.Errorf("no node at path %q", showLeaf)
			}
			root = node
		}

		if api.IsStructuredOutput() {
			return api.Output(root)
		}
		fmt.Print(catalog.Markdown(root))
		if showLeaf == "" {
			fmt.Println()
			renderCatalogReport(os.Stdout, book, root)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showSegments, "segments", false, "Show catalog_with_segments.json")
	showCmd.Flags().StringVar(&showLeaf, "leaf", "", "Only show the node at this dotted path")
	rootCmd.AddCommand(showCmd)
}
