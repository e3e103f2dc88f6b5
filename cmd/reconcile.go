// =============================================================================
// GAEB LV Tools - Reconcile Command
// =============================================================================
//
// The reconcile command merges prices from a priced issue (X84) into an
// unpriced bill of quantities (X83) and reports how each position matched:
//
//   gaeblv reconcile --quantity lv.x83 --priced angebot.x84 --out merged.x84
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hochbau-digital/gaeb-lv-tools/internal/ingest"
)

var (
	reconcileQuantity    string
	reconcilePriced      string
	reconcileOut         string
	reconcileStore       bool
	reconcileExternalRef string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge prices from a priced issue into the quantity document",
	Long: `Loads the quantity-phase document and the priced issue, matches their
positions (item identifier first, then the order number, then its last
segment) and carries unit prices and totals over. Positions without a match
keep their values and are reported, not rejected.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&reconcileQuantity, "quantity", "",
		"Quantity-phase input file (X83, CSV or XLSX)")
	reconcileCmd.Flags().StringVar(&reconcilePriced, "priced", "",
		"Priced input file (X84, CSV or XLSX)")
	reconcileCmd.Flags().StringVarP(&reconcileOut, "out", "o", "",
		"Write the merged document; format follows the extension")
	reconcileCmd.Flags().BoolVar(&reconcileStore, "store", false,
		"Persist the merged document to the import database")
	reconcileCmd.Flags().StringVar(&reconcileExternalRef, "ref", "",
		"External reference stored with the import")

	reconcileCmd.MarkFlagRequired("quantity")
	reconcileCmd.MarkFlagRequired("priced")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	var (
		db  *gorm.DB
		err error
	)
	if reconcileStore {
		db, err = openStore()
		if err != nil {
			return err
		}
	}

	pipeline := ingest.New(cfg)
	result, err := pipeline.Reconcile(reconcileQuantity, reconcilePriced, ingest.Options{
		DB:          db,
		ExternalRef: reconcileExternalRef,
		OutPath:     reconcileOut,
	})
	if err != nil {
		return fmt.Errorf("reconciling prices: %w", err)
	}

	stats := result.Match
	cmd.Printf("Reconciled %d positions\n", stats.Positions)
	cmd.Printf("  Matched by identifier:   %d\n", stats.ByIdentifier)
	cmd.Printf("  Matched by order number: %d\n", stats.ByOrderKey)
	cmd.Printf("  Matched by last segment: %d\n", stats.BySegment)
	cmd.Printf("  Unmatched:               %d\n", stats.Unmatched)
	if result.Saved != nil {
		cmd.Printf("  Stored:                  lv_id=%d\n", result.Saved.LVID)
	}
	if result.OutputFile != "" {
		cmd.Printf("  Output:                  %s\n", result.OutputFile)
	}
	return nil
}
