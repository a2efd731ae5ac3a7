package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storformat/adapters/storage"
	"storformat/core/catalog"
	"storformat/core/types"
	"storformat/core/ui"
	"storformat/internal/config"
	"storformat/internal/errors"
)

var publishKey string

// catalogCmd groups catalog operations on the shared store
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Publish and inspect the runtime catalog",
}

var catalogPublishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Write a catalog file to the shared store",
	Long: `Validate a catalog file and write it to the shared store under the tenant's
composite key, or the explicit key when no tenant is configured.

Validation findings are printed as warnings; a catalog that does not parse is
rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogPublish,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Resolve the catalog from the shared store and list its products",
	Args:  cobra.NoArgs,
	RunE:  runCatalogShow,
}

func init() {
	catalogPublishCmd.Flags().StringVar(&publishKey, "key", "", "store key (default: composite key, then explicit key)")
	catalogCmd.AddCommand(catalogPublishCmd)
	catalogCmd.AddCommand(catalogShowCmd)
}

// publishKeyFor picks the key a catalog is published under
func publishKeyFor(cfg *config.Config, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	plan := catalog.PlanFromConfig(cfg)
	if key := plan.CompositeKey(); key != "" {
		return key, nil
	}
	if plan.ExplicitKey != "" {
		return plan.ExplicitKey, nil
	}
	return "", errors.Config("no catalog key configured; set tenant.id or catalog.explicit_key, or pass --key", nil)
}

func runCatalogPublish(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	w := newWriter(cmd)

	cat, data, err := readCatalog(args[0])
	if err != nil {
		return err
	}
	key, err := publishKeyFor(cfg, publishKey)
	if err != nil {
		return err
	}
	for _, finding := range catalog.Validate(cat, catalog.DefaultValidationRules()) {
		w.Warning("%v", finding)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if storage.Backend(cfg.Store.Backend) != storage.BackendRedis {
		w.Warning("the %q store does not outlive this process", cfg.Store.Backend)
	}
	if err := store.Set(cmd.Context(), key, string(data), 0); err != nil {
		return err
	}
	w.Success("Published %d product(s) to %s:%s (%s)", len(cat.Products), cfg.Store.Backend, key, catalog.Signature(cat))
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	w := newWriter(cmd)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	res := newEngine(cfg, store).Catalog(cmd.Context())
	if !res.Found() {
		return errors.NotFound("catalog", catalog.PlanFromConfig(cfg).CompositeKey())
	}

	w.Header("Katalog")
	w.Info("%s:%s (%s)", res.Store, res.Key, res.Signature)
	w.Println("")
	productTable(w, res.Catalog).Render()

	if findings := catalog.Validate(res.Catalog, catalog.DefaultValidationRules()); len(findings) > 0 {
		w.Println("")
		w.SubHeader("Valideringsfunn")
		for _, finding := range findings {
			w.Warning("%v", finding)
		}
	}
	return nil
}

func productTable(w *ui.Writer, cat *types.RuntimeCatalog) *ui.Table {
	table := w.NewTable("Slug", "Navn", "Materialer", "Etterbehandling", "Levering")
	for _, p := range cat.Products {
		materials, finishes := "-", "-"
		if p.Storformat != nil {
			materials = strconv.Itoa(len(p.Storformat.Materials))
			finishes = strconv.Itoa(len(p.Storformat.Finishes))
		}
		table.AddRow(p.Slug, p.Name, materials, finishes, fmt.Sprint(len(p.DeliveryMethods)))
	}
	return table
}
