package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storformat/adapters/browser"
	"storformat/adapters/storage"
	"storformat/core/catalog"
	"storformat/core/checkout"
	"storformat/core/engine"
	"storformat/core/host"
	"storformat/core/scheduler"
	"storformat/core/ui"
	"storformat/internal/config"
	"storformat/internal/logging"
)

var (
	watchChrome  string
	watchHeadful bool
	watchAnchor  string
	watchTimeout time.Duration
)

// watchCmd follows a host product page and keeps the overlay and price in sync
var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Follow a host product page and keep the live preview in sync",
	Long: `Open a host product page in Chrome, read the selection from the page on every
change and draw the live preview over the product image.

The catalog is resolved from the page's session storage, then its parent frame,
then the configured shared store. Prices are printed as they change.

Examples:
  storformat watch https://shop.example/produkt/banner
  storformat watch --headful --anchor "#product-image" http://localhost:3000/banner`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchChrome, "chrome", "", "Chrome binary (default: $CHROME_PATH or a common install location)")
	watchCmd.Flags().BoolVar(&watchHeadful, "headful", false, "show the browser window")
	watchCmd.Flags().StringVar(&watchAnchor, "anchor", browser.DefaultAnchor, "CSS selector of the element the overlay covers")
	watchCmd.Flags().DurationVar(&watchTimeout, "action-timeout", browser.DefaultActionTimeout, "timeout of each browser round trip")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log := logging.Named("watch")

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	w := newWriter(cmd)
	execPath := watchChrome
	if execPath == "" {
		execPath = browser.DetectChromePath()
	}

	spinner := w.NewSpinner("Åpner " + args[0])
	spinner.Start()
	sess, err := openPage(ctx, execPath, args[0])
	spinner.Stop(err == nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	shared, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer shared.Close()

	self := browser.NewSessionStore(sess, browser.FrameSelf)
	parent := browser.NewSessionStore(sess, browser.FrameParent)
	sources := []catalog.Source{self, parent, shared}

	e := newEngine(cfg, sources...)
	blobs := engine.NewStoreBlobs(storage.NewMemoryStore("blobs"), 0)
	st := engine.NewState(engine.StateOptions{
		Blobs:     blobs,
		Renderer:  e.Renderer(),
		TargetDPI: float64(cfg.Checkout.TargetDPI),
	})

	presenter := engine.Presenters{
		browser.NewOverlayPresenter(sess, blobs, watchAnchor),
		ui.NewWatchPresenter(w),
	}
	pipeline := engine.NewPipeline(e, browser.NewPageSource(sess, host.KeywordsFromConfig(cfg.Host)), presenter)
	bridge := checkout.NewBridge(self, checkout.OptionsFromConfig(cfg))

	live := browser.NewLive(sess, pipeline, st, bridge, scheduler.OptionsFromConfig(cfg.Scheduler))
	log.Info("watching", zap.String("url", args[0]), zap.String("chrome", execPath))

	err = live.Run(ctx)
	stats := live.Scheduler().Stats()
	log.Info("watch stopped",
		zap.Int64("syncs", stats.Syncs),
		zap.Int64("tasks", stats.Tasks),
		zap.Int64("coalesced", stats.Coalesced),
		zap.Int64("panics", stats.Panics))
	w.Debug("%d synkroniseringer, %d hendelser, %d slått sammen", stats.Syncs, stats.Tasks, stats.Coalesced)
	return err
}

// openPage starts Chrome and loads url
func openPage(ctx context.Context, execPath, url string) (*browser.Session, error) {
	sess, err := browser.NewSession(ctx, browser.Options{
		ExecPath:      execPath,
		Headful:       watchHeadful,
		ActionTimeout: watchTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := sess.Navigate(ctx, url); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}
