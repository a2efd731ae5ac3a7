// Package api - HTTP surface of the configurator engine
// The API is only responsible for input ingestion, engine orchestration and output
// serialization.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"storformat/adapters/storage"
	"storformat/api/envelope"
	"storformat/core/checkout"
	"storformat/core/engine"
	"storformat/internal/config"
	"storformat/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Options configures a server
type Options struct {
	Version  string
	Engine   *engine.Engine
	Store    storage.Store
	Checkout checkout.Options

	// TargetDPI sizes uploads placed without an explicit placement
	TargetDPI float64

	// RatePerSecond per client; zero disables limiting
	RatePerSecond float64
	Burst         int
}

// OptionsFromConfig reads server, checkout and placement settings from configuration
func OptionsFromConfig(cfg *config.Config, version string, e *engine.Engine, store storage.Store) Options {
	return Options{
		Version:       version,
		Engine:        e,
		Store:         store,
		Checkout:      checkout.OptionsFromConfig(cfg),
		TargetDPI:     float64(cfg.Checkout.TargetDPI),
		RatePerSecond: cfg.Server.RatePerSecond,
		Burst:         cfg.Server.Burst,
	}
}

// Server is the API server
type Server struct {
	router  chi.Router
	handler *Handler
	limiter *RateLimiter
	log     *zap.Logger
}

// NewServer creates a server over opts.Engine. Checkout payloads and uploaded design
// blobs go to opts.Store.
func NewServer(opts Options) *Server {
	if opts.TargetDPI <= 0 {
		opts.TargetDPI = engine.DefaultTargetDPI
	}
	log := logging.Named("api")
	checkoutTTL := opts.Checkout.TTL
	if checkoutTTL <= 0 {
		checkoutTTL = checkout.DefaultTTL
	}

	s := &Server{
		router: chi.NewRouter(),
		handler: &Handler{
			engine:     opts.Engine,
			normalizer: envelope.NewNormalizer(opts.Engine.Renderer()),
			bridge:     checkout.NewBridge(opts.Store, opts.Checkout),
			blobs:      engine.NewStoreBlobs(opts.Store, checkoutTTL),
			targetDPI:  opts.TargetDPI,
			audit:      envelope.ZapAuditLogger{Logger: log.Named("audit")},
			version:    opts.Version,
		},
		limiter: NewRateLimiter(opts.RatePerSecond, opts.Burst),
		log:     log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.Middleware)

	r.Get("/health", s.handler.handleHealth)
	r.Get("/version", s.handler.handleVersion)
	r.Get("/catalog", s.handler.handleCatalog)
	r.Post("/price", s.handler.handlePrice)
	r.Post("/render", s.handler.handleRender)
	r.Post("/checkout", s.handler.handleCheckout)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
