package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storformat/internal/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "json",
			file: "storformat.json",
			body: `{"tenant":{"id":"acme","site":"banners"},"scheduler":{"debounce_ms":25}}`,
		},
		{
			name: "yaml",
			file: "storformat.yaml",
			body: "tenant:\n  id: acme\n  site: banners\nscheduler:\n  debounce_ms: 25\n",
		},
		{
			name: "hcl",
			file: "storformat.hcl",
			body: "tenant {\n  id   = \"acme\"\n  site = \"banners\"\n}\nscheduler {\n  debounce_ms = 25\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)

			assert.Equal(t, "acme", cfg.Tenant.ID)
			assert.Equal(t, "banners", cfg.Tenant.Site)
			assert.Equal(t, 25, cfg.Scheduler.DebounceMs)
			// untouched values keep their defaults
			assert.Equal(t, 900, cfg.Scheduler.IntervalMs)
			assert.Equal(t, "storformat:config", cfg.Catalog.ExplicitKey)
		})
	}
}

func TestLoadMalformedIsConfigError(t *testing.T) {
	_, err := Load(writeFile(t, "broken.json", "{"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORFORMAT_TENANT", "globex")
	t.Setenv("STORFORMAT_REDIS_DB", "3")
	t.Setenv("STORFORMAT_REDIS_ADDR", "")

	cfg := Default()
	cfg.LoadEnv("")

	assert.Equal(t, "globex", cfg.Tenant.ID)
	assert.Equal(t, 3, cfg.Store.RedisDB)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
}

func TestLoadEnvReadsDotenv(t *testing.T) {
	path := writeFile(t, ".env", "STORFORMAT_SITE=from-dotenv\n")
	t.Setenv("STORFORMAT_SITE", "")
	require.NoError(t, os.Unsetenv("STORFORMAT_SITE"))

	cfg := Default()
	cfg.LoadEnv(path)
	t.Cleanup(func() { _ = os.Unsetenv("STORFORMAT_SITE") })

	assert.Equal(t, "from-dotenv", cfg.Tenant.Site)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	cfg := Default()
	cfg.Tenant.ID = "acme"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.Tenant.ID)
}
