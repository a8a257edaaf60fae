package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/pipeline"
)

// bookStatus is one book's stage status.
type bookStatus struct {
	Name   string                 `json:"name" yaml:"name"`
	Stages []pipeline.StageReport `json:"stages" yaml:"stages"`
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List books and their stage status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := localServices()
		if err != nil {
			return err
		}
		names, err := svc.Home.ListBooks()
		if err != nil {
			return err
		}

		books := make([]bookStatus, 0, len(names))
		for _, name := range names {
			reports, err := svc.Runner.Status(cmd.Context(), name)
			if err != nil {
				return err
			}
			books = append(books, bookStatus{Name: name, Stages: reports})
		}

		if api.IsStructuredOutput() {
			return api.Output(books)
		}
		if len(books) == 0 {
			fmt.Printf("No books in %s\n", svc.Home.UploadsPath())
			return nil
		}
		for _, b := range books {
			renderStageReports(os.Stdout, b.Name, b.Stages)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
}
