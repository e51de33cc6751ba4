package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront-assistant/internal/rejections"
	"storefront-assistant/internal/schemagate"
)

var rejectionsDir string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Load the catalog and report what the assistant will see",
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&rejectionsDir, "rejections-dir", "", "append rejected rows to a daily JSONL log in this directory")
	rootCmd.AddCommand(catalogCmd)
}

type catalogReport struct {
	Products   int                    `json:"products"`
	InStock    int                    `json:"in_stock"`
	Categories int                    `json:"categories"`
	Offers     int                    `json:"offers"`
	Rejections []schemagate.Rejection `json:"rejections"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.Catalog.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	rep := catalogReport{
		Products:   len(snap.Products),
		Categories: len(snap.Categories),
		Offers:     len(snap.Offers),
		Rejections: a.Rejections(),
	}
	for _, p := range snap.Products {
		if p.InStock() {
			rep.InStock++
		}
	}

	if rejectionsDir != "" && len(rep.Rejections) > 0 {
		path, err := rejections.NewStore(rejectionsDir).Write(a.Config.Catalog.ProductsPath, rep.Rejections)
		if err != nil {
			return fmt.Errorf("write rejections: %w", err)
		}
		logger.Info().Str("path", path).Int("rows", len(rep.Rejections)).Msg("rejections recorded")
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return json.NewEncoder(out).Encode(rep)
	}

	fmt.Fprintf(out, "Products:   %d (%d in stock)\n", rep.Products, rep.InStock)
	fmt.Fprintf(out, "Categories: %d\n", rep.Categories)
	fmt.Fprintf(out, "Offers:     %d\n", rep.Offers)
	if len(rep.Rejections) == 0 {
		return nil
	}
	fmt.Fprintf(out, "\nRejected rows: %d\n", len(rep.Rejections))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCOPE\tREASON")
	for _, r := range rep.Rejections {
		fmt.Fprintf(tw, "%s\t%s\n", r.Scope, r.Reason)
	}
	return tw.Flush()
}
