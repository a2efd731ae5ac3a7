// Package config provides configuration management.
// Files may be JSON, YAML or HCL; STORFORMAT_* environment variables win over file values.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"storformat/internal/errors"
	"storformat/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Tenant identifies the shop the configurator is embedded in
	Tenant TenantConfig `json:"tenant" yaml:"tenant"`

	// Catalog controls where the runtime catalog is looked up
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Store selects the transient key-value backend
	Store StoreConfig `json:"store" yaml:"store"`

	// Host holds the host page contract overrides
	Host HostConfig `json:"host" yaml:"host"`

	// Scheduler contains sync loop timings
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Render contains overlay sizing
	Render RenderConfig `json:"render" yaml:"render"`

	// Checkout contains hand-off settings
	Checkout CheckoutConfig `json:"checkout" yaml:"checkout"`

	// Server contains HTTP settings
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// TenantConfig identifies tenant and site
type TenantConfig struct {
	ID   string `json:"id" yaml:"id"`
	Site string `json:"site" yaml:"site"`
}

// CatalogConfig contains catalog key settings
type CatalogConfig struct {
	// ExplicitKey is tried before any derived key
	ExplicitKey string `json:"explicit_key" yaml:"explicit_key"`

	// KeyPrefix scopes composite and prefix keys
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// StoreConfig selects the store backend
type StoreConfig struct {
	// Backend is memory or redis
	Backend string `json:"backend" yaml:"backend"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`
}

// HostConfig overrides the host page contract
type HostConfig struct {
	// SelectedClasses are CSS classes marking a selected button
	SelectedClasses []string `json:"selected_classes" yaml:"selected_classes"`
}

// SchedulerConfig contains sync timings in milliseconds
type SchedulerConfig struct {
	DebounceMs int `json:"debounce_ms" yaml:"debounce_ms"`
	IntervalMs int `json:"interval_ms" yaml:"interval_ms"`
}

// RenderConfig caps the banner box
type RenderConfig struct {
	MaxWidthPx  float64 `json:"max_width_px" yaml:"max_width_px"`
	MaxHeightPx float64 `json:"max_height_px" yaml:"max_height_px"`
}

// CheckoutConfig contains checkout hand-off settings
type CheckoutConfig struct {
	URL          string `json:"url" yaml:"url"`
	PayloadKey   string `json:"payload_key" yaml:"payload_key"`
	TTLSeconds   int    `json:"ttl_seconds" yaml:"ttl_seconds"`
	PreviewMaxPx int    `json:"preview_max_px" yaml:"preview_max_px"`
	TargetDPI    int    `json:"target_dpi" yaml:"target_dpi"`
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	Addr          string  `json:"addr" yaml:"addr"`
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `json:"burst" yaml:"burst"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Catalog: CatalogConfig{
			ExplicitKey: "storformat:config",
			KeyPrefix:   "storformat",
		},
		Store: StoreConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
		},
		Host: HostConfig{
			SelectedClasses: []string{"selected", "active", "is-selected", "is-active"},
		},
		Scheduler: SchedulerConfig{
			DebounceMs: 40,
			IntervalMs: 900,
		},
		Render: RenderConfig{
			MaxWidthPx:  560,
			MaxHeightPx: 360,
		},
		Checkout: CheckoutConfig{
			URL:          "/checkout",
			PayloadKey:   "storformat:checkout",
			TTLSeconds:   1800,
			PreviewMaxPx: 480,
			TargetDPI:    200,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			RatePerSecond: 20,
			Burst:         40,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Config("read config", err).WithContext("path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".hcl":
		err = decodeHCL(path, data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Config("parse config", err).WithContext("path", path)
	}

	return cfg, nil
}

// LoadEnv reads a dotenv file (if present) and applies STORFORMAT_* overrides
func (c *Config) LoadEnv(dotenvPath string) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			logging.Debug("dotenv not loaded")
		}
	}

	setString(&c.Tenant.ID, "STORFORMAT_TENANT")
	setString(&c.Tenant.Site, "STORFORMAT_SITE")
	setString(&c.Catalog.ExplicitKey, "STORFORMAT_CATALOG_KEY")
	setString(&c.Store.Backend, "STORFORMAT_STORE_BACKEND")
	setString(&c.Store.RedisAddr, "STORFORMAT_REDIS_ADDR")
	setString(&c.Store.RedisPassword, "STORFORMAT_REDIS_PASSWORD")
	setInt(&c.Store.RedisDB, "STORFORMAT_REDIS_DB")
	setString(&c.Checkout.URL, "STORFORMAT_CHECKOUT_URL")
	setString(&c.Server.Addr, "STORFORMAT_ADDR")
	setString(&c.Logging.Level, "STORFORMAT_LOG_LEVEL")
}

// Save writes the configuration as indented JSON
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Config("create config directory", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Config("encode config", err)
	}
	return os.WriteFile(path, data, 0644)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

var (
	globalMu     sync.RWMutex
	globalConfig = Default()
)

// Get returns the global configuration
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// Set sets the global configuration
func Set(cfg *Config) {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}

// hclConfig mirrors Config for HCL files. Absent attributes keep the defaults.
type hclConfig struct {
	Version   string        `hcl:"version,optional"`
	Tenant    *hclTenant    `hcl:"tenant,block"`
	Catalog   *hclCatalog   `hcl:"catalog,block"`
	Store     *hclStore     `hcl:"store,block"`
	Scheduler *hclScheduler `hcl:"scheduler,block"`
	Checkout  *hclCheckout  `hcl:"checkout,block"`
	Server    *hclServer    `hcl:"server,block"`
	Logging   *hclLogging   `hcl:"logging,block"`
}

type hclTenant struct {
	ID   string `hcl:"id,optional"`
	Site string `hcl:"site,optional"`
}

type hclCatalog struct {
	ExplicitKey string `hcl:"explicit_key,optional"`
	KeyPrefix   string `hcl:"key_prefix,optional"`
}

type hclStore struct {
	Backend   string `hcl:"backend,optional"`
	RedisAddr string `hcl:"redis_addr,optional"`
	RedisDB   int    `hcl:"redis_db,optional"`
}

type hclScheduler struct {
	DebounceMs int `hcl:"debounce_ms,optional"`
	IntervalMs int `hcl:"interval_ms,optional"`
}

type hclCheckout struct {
	URL        string `hcl:"url,optional"`
	PayloadKey string `hcl:"payload_key,optional"`
	TTLSeconds int    `hcl:"ttl_seconds,optional"`
	TargetDPI  int    `hcl:"target_dpi,optional"`
}

type hclServer struct {
	Addr          string  `hcl:"addr,optional"`
	RatePerSecond float64 `hcl:"rate_per_second,optional"`
	Burst         int     `hcl:"burst,optional"`
}

type hclLogging struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
	Output string `hcl:"output,optional"`
}

func decodeHCL(path string, data []byte, cfg *Config) error {
	var f hclConfig
	if err := hclsimple.Decode(filepath.Base(path), data, nil, &f); err != nil {
		return err
	}

	override(&cfg.Version, f.Version)
	if t := f.Tenant; t != nil {
		override(&cfg.Tenant.ID, t.ID)
		override(&cfg.Tenant.Site, t.Site)
	}
	if c := f.Catalog; c != nil {
		override(&cfg.Catalog.ExplicitKey, c.ExplicitKey)
		override(&cfg.Catalog.KeyPrefix, c.KeyPrefix)
	}
	if s := f.Store; s != nil {
		override(&cfg.Store.Backend, s.Backend)
		override(&cfg.Store.RedisAddr, s.RedisAddr)
		override(&cfg.Store.RedisDB, s.RedisDB)
	}
	if s := f.Scheduler; s != nil {
		override(&cfg.Scheduler.DebounceMs, s.DebounceMs)
		override(&cfg.Scheduler.IntervalMs, s.IntervalMs)
	}
	if c := f.Checkout; c != nil {
		override(&cfg.Checkout.URL, c.URL)
		override(&cfg.Checkout.PayloadKey, c.PayloadKey)
		override(&cfg.Checkout.TTLSeconds, c.TTLSeconds)
		override(&cfg.Checkout.TargetDPI, c.TargetDPI)
	}
	if s := f.Server; s != nil {
		override(&cfg.Server.Addr, s.Addr)
		override(&cfg.Server.RatePerSecond, s.RatePerSecond)
		override(&cfg.Server.Burst, s.Burst)
	}
	if l := f.Logging; l != nil {
		override(&cfg.Logging.Level, l.Level)
		override(&cfg.Logging.Format, l.Format)
		override(&cfg.Logging.Output, l.Output)
	}
	return nil
}

func override[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
