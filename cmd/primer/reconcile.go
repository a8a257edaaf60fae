package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/primer/internal/api"
	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/pagestore"
)

var (
	reconcileOffset  int
	reconcilePrinted int
	reconcileActual  int
	reconcileMax     int
	reconcileBook    string
	reconcileWrite   string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <catalog.json>",
	Short: "Re-map an existing outline onto physical pages",
	Long: `Reconcile an outline tree offline, without calling an LLM.

The offset is given directly with --offset, or derived from the first leaf's
printed page (--printed) and the physical page where it begins (--actual).
The last physical page comes from --max, or from the page files of --book.

Examples:
  primer reconcile catalog.json --offset 6 --max 320
  primer reconcile catalog.json --printed 12 --actual 18 --book algebra -w catalog.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		root, err := catalog.Unmarshal(data)
		if err != nil {
			return err
		}

		offset := reconcileOffset
		if !cmd.Flags().Changed("offset") {
			if reconcilePrinted == 0 && reconcileActual == 0 {
				return errors.New("either --offset or both --printed and --actual are required")
			}
			offset, err = catalog.ResolveOffset(catalog.Anchor{
				FirstLeafPrintedPage:    reconcilePrinted,
				FirstLeafActualFilePage: reconcileActual,
			})
			if err != nil {
				return err
			}
		}

		maxPage := reconcileMax
		var opts []catalog.Option
		if reconcileBook != "" {
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
			store, err := pagestore.Open(h.TextDir(reconcileBook), cfg.PageKeyFormat(), cfg.Catalog.TextExt)
			if err != nil {
				return err
			}
			if store.Len() == 0 {
				return fmt.Errorf("%w: %s", catalog.ErrNoPages, store.Dir())
			}
			if maxPage == 0 {
				maxPage = store.MaxPhysicalPage()
			}
			opts = append(opts, catalog.WithPageKey(store.PageFileKey))
		}
		if maxPage <= 0 {
			return errors.New("--max or --book is required")
		}

		out, err := catalog.Reconcile(root, offset, maxPage, opts...)
		if err != nil {
			return err
		}

		if reconcileWrite != "" {
			if err := catalog.Save(reconcileWrite, out); err != nil {
				return err
			}
		}
		switch {
		case api.IsStructuredOutput():
			return api.Output(out)
		case reconcileWrite == "":
			data, err := catalog.Marshal(out)
			if err != nil {
				return err
			}
			os.Stdout.Write(data)
			fmt.Fprintln(os.Stdout)
			renderCatalogReport(os.Stderr, "reconcile", out, field("Page offset", offset), field("Max page", maxPage))
		default:
			renderCatalogReport(os.Stdout, "reconcile", out,
				field("Output", reconcileWrite), field("Page offset", offset), field("Max page", maxPage))
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileOffset, "offset", 0, "Physical minus printed page number")
	reconcileCmd.Flags().IntVar(&reconcilePrinted, "printed", 0, "First leaf's printed page")
	reconcileCmd.Flags().IntVar(&reconcileActual, "actual", 0, "Physical page where the first leaf begins")
	reconcileCmd.Flags().IntVar(&reconcileMax, "max", 0, "Highest physical page number")
	reconcileCmd.Flags().StringVar(&reconcileBook, "book", "", "Take page keys and --max from this book's page files")
	reconcileCmd.Flags().StringVarP(&reconcileWrite, "write", "w", "", "Write the reconciled catalog to this file")
	reconcileCmd.MarkFlagsMutuallyExclusive("offset", "printed")
	reconcileCmd.MarkFlagsMutuallyExclusive("offset", "actual")
	reconcileCmd.MarkFlagsRequiredTogether("printed", "actual")

	rootCmd.AddCommand(reconcileCmd)
}
