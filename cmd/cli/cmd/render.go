package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storformat/adapters/browser"
	"storformat/adapters/storage"
	"storformat/core/engine"
	"storformat/internal/config"
	"storformat/internal/errors"
)

var (
	renderSelection selectionFlags
	renderOut       string
	renderDesign    string
	renderFoils     []string
)

// renderCmd writes the live preview of a selection as SVG
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the preview of a selection as SVG",
	Long: `Render the live preview of a selection as a standalone SVG document.

A design image is placed centred at its natural print size. Cut-letter foils are
added in order and the last one is active.

Examples:
  storformat render --width 200 --height 100 --design logo.png --out preview.svg
  storformat render --variant cut-letters --foil "SALG" --foil "-50%"`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderSelection.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default: stdout)")
	renderCmd.Flags().StringVar(&renderDesign, "design", "", "design image (png, jpeg, gif or webp)")
	renderCmd.Flags().StringArrayVar(&renderFoils, "foil", nil, "cut-letter foil text (repeatable)")
}

func runRender(cmd *cobra.Command, args []string) error {
	sel, err := renderSelection.selection()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Get()
	e := newEngine(cfg)
	blobs := engine.NewStoreBlobs(storage.NewMemoryStore("render"), 0)
	st := engine.NewState(engine.StateOptions{
		Blobs:     blobs,
		Renderer:  e.Renderer(),
		TargetDPI: float64(cfg.Checkout.TargetDPI),
	})
	st.ApplySelection(ctx, sel)

	if renderDesign != "" {
		data, err := os.ReadFile(renderDesign)
		if err != nil {
			return errors.Wrap(errors.TypeInput, "read design", err).WithContext("path", renderDesign)
		}
		if _, err := st.SetUpload(ctx, data, filepath.Base(renderDesign)); err != nil {
			return err
		}
	}
	for _, text := range renderFoils {
		st.AddFoil(text)
	}

	scene := e.Render(st.RenderInput())
	markup, err := scene.MarkupResolved(func(href string) string {
		if !strings.HasPrefix(href, engine.BlobPrefix) {
			return href
		}
		blob, ok, err := blobs.Get(ctx, href)
		if err != nil || !ok {
			return ""
		}
		return browser.DataURL(blob.ContentType, blob.Data)
	})
	if err != nil {
		return errors.Internal("render markup", err)
	}

	if renderOut == "" {
		fmt.Fprintln(cmd.OutOrStdout(), markup)
		return nil
	}
	if err := os.WriteFile(renderOut, []byte(markup+"\n"), 0o644); err != nil {
		return errors.Wrap(errors.TypeInput, "write preview", err).WithContext("path", renderOut)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%.0f×%.0f px)\n", renderOut, scene.Box.Width, scene.Box.Height)
	return nil
}
