package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"pricing-engine/internal/errors"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Engine.DisplayPrecision)
	require.Equal(t, "cli", cfg.Output.DefaultFormat)
	require.Equal(t, "file", cfg.Storage.Backend)
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
engine:
  display_precision: -1
storage:
  backend: bolt
  path: /tmp/pricing.db
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, -1, cfg.Engine.DisplayPrecision)
	require.Equal(t, "bolt", cfg.Storage.Backend)
	require.Equal(t, "/tmp/pricing.db", cfg.Storage.Path)
	require.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.True(t, cfg.Output.ShowDetails)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			want := Default()
			want.Server.Addr = "127.0.0.1:9000"
			want.Output.DefaultFormat = "markdown"

			require.NoError(t, want.Save(path))
			got, err := Load(path)
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(want, got))
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"precision", `{"engine": {"display_precision": -3}}`},
		{"precision too large", `{"engine": {"display_precision": 100000}}`},
		{"backend", `{"storage": {"backend": "postgres"}}`},
		{"syntax", `{"engine": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := Load(path)
			require.True(t, errors.IsType(err, errors.TypeConfig), "%v", err)
		})
	}
}

func TestGlobalConfig(t *testing.T) {
	prev := Get()
	defer Set(prev)

	cfg := Default()
	cfg.Server.Addr = ":1"
	Set(cfg)
	require.Equal(t, ":1", Get().Server.Addr)
}
