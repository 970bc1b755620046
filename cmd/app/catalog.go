package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/duisenbekovayan/devstore/internal/catalog"
	model "github.com/duisenbekovayan/devstore/internal/models"
	"github.com/duisenbekovayan/devstore/internal/render"
)

var (
	catalogCategory string
	catalogSearch   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the catalog filtered the same way the storefront does",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			return err
		}
		ps := cat.Search(model.ParseFilter(catalogCategory), catalogSearch)
		if len(ps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), render.NoProducts)
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCATEGORY\tPRICE\tTITLE")
		for _, p := range ps {
			fmt.Fprintf(tw, "%s\t%s\t₹%s\t%s\n", p.ID, p.Category, render.FormatINR(p.Price), p.Title)
		}
		return tw.Flush()
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogCategory, "category", "all", "all, books, dev or merch")
	catalogCmd.Flags().StringVar(&catalogSearch, "search", "", "case-insensitive text to look for")
}
