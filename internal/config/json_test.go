package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"base_url":                      "https://example.test/api/1",
		"control_plane_timeout_seconds": 10,
		"part_size_bytes":               5 * 1024 * 1024,
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Runtime{}
		parseJson(cfg)

		assert.Equal(t, "https://example.test/api/1", cfg.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.ControlPlaneTimeout)
		assert.EqualValues(t, 5*1024*1024, cfg.PartSize)
	})

	t.Run("no CONFIG and no flags -> no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Runtime{
			BaseURL:             "defaults",
			ControlPlaneTimeout: 42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults", cfg.BaseURL)
		assert.Equal(t, 42*time.Second, cfg.ControlPlaneTimeout)
	})

	t.Run("invalid JSON -> panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Runtime{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
