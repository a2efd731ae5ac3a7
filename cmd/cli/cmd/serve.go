package cmd

import (
	"github.com/spf13/cobra"

	"storformat/api"
	"storformat/internal/config"
)

var serveAddr string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing, render and checkout API",
	Long: `Serve the HTTP API over the configured shared store.

Routes:
  GET  /health, /version, /catalog
  POST /price, /render, /checkout`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	srv := api.NewServer(api.OptionsFromConfig(cfg, version, newEngine(cfg, store), store))
	return srv.ListenAndServe(ctx, addr)
}
