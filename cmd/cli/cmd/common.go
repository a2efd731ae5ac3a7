package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"storformat/adapters/storage"
	"storformat/core/catalog"
	"storformat/core/engine"
	"storformat/core/render"
	"storformat/core/types"
	"storformat/core/ui"
	"storformat/internal/config"
	"storformat/internal/errors"
)

// selectionFlags are the flags that describe a selection on the command line
type selectionFlags struct {
	width       float64
	height      float64
	quantity    int
	variant     string
	product     string
	delivery    string
	finishing   []string
	ringSpacing int
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64Var(&f.width, "width", 100, "width in cm")
	fl.Float64Var(&f.height, "height", 100, "height in cm")
	fl.IntVarP(&f.quantity, "qty", "q", 1, "quantity")
	fl.StringVar(&f.variant, "variant", string(types.VariantPVC), "variant (pvc, mesh, textile, foil, cut-letters)")
	fl.StringVar(&f.product, "product", "", "product slug or id (default: the catalog's first priced product)")
	fl.StringVar(&f.delivery, "delivery", "", "delivery method id or name")
	fl.StringSliceVar(&f.finishing, "finishing", nil, "finishing options (rings, hemming, pockets, keder, doubleSided, uvLaminate)")
	fl.IntVar(&f.ringSpacing, "ring-spacing", types.RingSpacing50, "ring spacing in cm (50 or 100)")
}

// selection converts the flags to a selection
func (f *selectionFlags) selection() (types.SelectionState, error) {
	variant := types.Variant(strings.ToLower(f.variant))
	if !variant.IsValid() {
		return types.SelectionState{}, errors.Input("unknown variant: " + f.variant)
	}
	if f.width <= 0 || f.height <= 0 {
		return types.SelectionState{}, errors.Input("width and height must be positive")
	}
	if f.quantity < 1 {
		return types.SelectionState{}, errors.Input("quantity must be at least 1")
	}

	sel := types.SelectionState{
		WidthCm:          f.width,
		HeightCm:         f.height,
		Quantity:         f.quantity,
		Variant:          variant,
		ProductSlug:      f.product,
		DeliveryMethodID: f.delivery,
	}
	for _, name := range f.finishing {
		flag, ok := finishingFlag(name)
		if !ok {
			return types.SelectionState{}, errors.Input("unknown finishing option: " + name)
		}
		setFinishing(&sel.Finishing, flag)
	}
	if sel.Finishing.Rings {
		sel.Finishing.RingSpacingCm = types.RingSpacing50
		if f.ringSpacing == types.RingSpacing100 {
			sel.Finishing.RingSpacingCm = types.RingSpacing100
		}
	}
	return sel, nil
}

func finishingFlag(name string) (types.FinishingFlag, bool) {
	name = strings.TrimSpace(name)
	for _, flag := range types.FinishingFlags {
		if strings.EqualFold(string(flag), name) {
			return flag, true
		}
	}
	return "", false
}

func setFinishing(f *types.Finishing, flag types.FinishingFlag) {
	switch flag {
	case types.FlagRings:
		f.Rings = true
	case types.FlagHemming:
		f.Hemming = true
	case types.FlagPockets:
		f.Pockets = true
	case types.FlagKeder:
		f.Keder = true
	case types.FlagDoubleSided:
		f.DoubleSided = true
	case types.FlagUVLaminate:
		f.UVLaminate = true
	}
}

// readCatalog parses a catalog file
func readCatalog(path string) (*types.RuntimeCatalog, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.TypeInput, "read catalog", err).WithContext("path", path)
	}
	cat, ok := catalog.Parse(data)
	if !ok {
		return nil, nil, errors.Newf(errors.TypeCatalog, "%s is not a catalog", path)
	}
	return cat, data, nil
}

// newEngine builds an engine resolving the catalog from sources with the configured keys
func newEngine(cfg *config.Config, sources ...catalog.Source) *engine.Engine {
	return engine.New(engine.Options{
		Resolver: catalog.NewResolver(catalog.PlanFromConfig(cfg), sources...),
		Renderer: render.NewRenderer(cfg.Render.MaxWidthPx, cfg.Render.MaxHeightPx, nil),
	})
}

// newWriter is the command's terminal writer honouring --no-color and --verbose
func newWriter(cmd *cobra.Command) *ui.Writer {
	w := ui.NewWriter(cmd.OutOrStdout(), noColor)
	if verbose {
		w.SetVerbosity(2)
	}
	return w
}

// openStore opens the configured shared store
func openStore(cfg *config.Config) (storage.Store, error) {
	return storage.New(cfg.Store)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
