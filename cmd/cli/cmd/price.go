package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"storformat/core/pricing"
	"storformat/core/types"
	"storformat/internal/config"
	"storformat/internal/errors"
)

var (
	priceSelection selectionFlags
	priceCatalog   string
	priceFormat    string
)

// priceCmd prices one selection
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a selection",
	Long: `Price a selection against the runtime catalog.

The catalog is read from --catalog when given, otherwise it is resolved from the
configured shared store with the tenant's keys.

Examples:
  storformat price --catalog catalog.json --width 200 --height 100 --finishing rings
  storformat price --variant mesh --width 500 --height 200 --qty 2 --format json`,
	Args: cobra.NoArgs,
	RunE: runPrice,
}

func init() {
	priceSelection.register(priceCmd)
	priceCmd.Flags().StringVarP(&priceCatalog, "catalog", "c", "", "catalog JSON file (default: resolve from the store)")
	priceCmd.Flags().StringVarP(&priceFormat, "format", "f", "table", "output format (table, json)")
}

// priceOutput is the JSON shape of the price command
type priceOutput struct {
	Selection types.SelectionState `json:"selection"`
	Price     *pricing.Result      `json:"price"`
}

func runPrice(cmd *cobra.Command, args []string) error {
	if priceFormat != "table" && priceFormat != "json" {
		return errors.Input("unknown format: " + priceFormat)
	}
	sel, err := priceSelection.selection()
	if err != nil {
		return err
	}

	cfg := config.Get()
	var inline *types.RuntimeCatalog
	if priceCatalog != "" {
		if inline, _, err = readCatalog(priceCatalog); err != nil {
			return err
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := newEngine(cfg, store).Price(cmd.Context(), sel, inline)
	if err != nil {
		return err
	}

	if priceFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(priceOutput{Selection: sel, Price: res})
	}
	w := newWriter(cmd)
	if priceCatalog != "" {
		w.Debug("katalog fra %s", priceCatalog)
	}
	w.PriceSummary(sel, res)
	return nil
}
