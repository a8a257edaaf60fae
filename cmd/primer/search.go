package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
)

var (
	searchTopK     int
	searchProvider string
)

var searchCmd = &cobra.Command{
	Use:   "search <book> <query>...",
	Short: "Find the knowledge points closest to a query",
	Long: `Embed the query and rank the book's indexed knowledge points by cosine
similarity. Requires knowledge_index.json; run "primer index <book>" first.

Examples:
  primer search algebra commutative addition
  primer search algebra "what is a ratio" -k 10 -o json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := localServices()
		if err != nil {
			return err
		}
		book, query := args[0], strings.Join(args[1:], " ")
		hits, err := svc.Search.Search(cmd.Context(), book, query, searchProvider, searchTopK)
		if err != nil {
			return err
		}
		if api.IsStructuredOutput() {
			return api.Output(hits)
		}
		renderSearchHits(os.Stdout, book, query, hits)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top", "k", 0, "Number of hits (default: search.top_k)")
	searchCmd.Flags().StringVar(&searchProvider, "provider", "", "Embedding provider (default: the one that built the index)")
	rootCmd.AddCommand(searchCmd)
}
