package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Graph.DefaultLevel)
	assert.False(t, cfg.Graph.DropZeroEdges)
	assert.False(t, cfg.Graph.SuppressSelfLoops)
}

func TestDataConfigPaths(t *testing.T) {
	d := DataConfig{Dir: "data/figaro", ExportsFile: "fgte.tsv", ImportsFile: "fgti.tsv"}
	assert.Contains(t, d.ExportsPath(), "fgte.tsv")
	assert.Contains(t, d.ImportsPath(), "fgti.tsv")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(cfg *Config) { cfg.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(cfg *Config) { cfg.Server.ReadTimeout = 0 },
			wantErr: "read timeout",
		},
		{
			name:    "missing data dir",
			mutate:  func(cfg *Config) { cfg.Data.Dir = "" },
			wantErr: "data directory",
		},
		{
			name:    "rollup level out of range",
			mutate:  func(cfg *Config) { cfg.Graph.DefaultLevel = 5 },
			wantErr: "rollup level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// chdir switches the working directory so Load picks up (or misses) a
// config.yaml placed there, restoring the original directory afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadLayering(t *testing.T) {
	t.Run("defaults when no file or env", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	const configYAML = `server:
  port: 9090
data:
  exports_file: custom_exports.tsv
graph:
  default_level: 3
`

	t.Run("file values override defaults and unset keys keep them", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644))
		chdir(t, dir)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "custom_exports.tsv", cfg.Data.ExportsFile)
		assert.Equal(t, 3, cfg.Graph.DefaultLevel)

		assert.Equal(t, "estat_naio_10_fgti.tsv", cfg.Data.ImportsFile)
		assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
		assert.True(t, cfg.Security.RateLimit.Enabled)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0644))
		chdir(t, dir)
		t.Setenv("FIGFLOW_SERVER_PORT", "7070")
		t.Setenv("FIGFLOW_GRAPH_DEFAULT_LEVEL", "1")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, 1, cfg.Graph.DefaultLevel)
		assert.Equal(t, "custom_exports.tsv", cfg.Data.ExportsFile, "env left this key to the file layer")
	})

	t.Run("invalid file values fail validation", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("graph:\n  default_level: 9\n"), 0644))
		chdir(t, dir)

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rollup level")
	})
}
