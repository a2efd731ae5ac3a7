// Package main - Entry point for the storformat API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storformat/adapters/storage"
	"storformat/api"
	"storformat/core/catalog"
	"storformat/core/engine"
	"storformat/core/render"
	"storformat/internal/config"
	"storformat/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "config file (json, yaml or hcl)")
	addr := flag.String("addr", "", "server address (default: server.addr from config)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.LoadEnv(".env")
	config.Set(cfg)
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	store, err := storage.New(cfg.Store)
	if err != nil {
		logging.Error("store", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	e := engine.New(engine.Options{
		Resolver: catalog.NewResolver(catalog.PlanFromConfig(cfg), store),
		Renderer: render.NewRenderer(cfg.Render.MaxWidthPx, cfg.Render.MaxHeightPx, nil),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("storformat API v%s on %s\n", version, cfg.Server.Addr)
	if err := api.NewServer(api.OptionsFromConfig(cfg, version, e, store)).ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		logging.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
