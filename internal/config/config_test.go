// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsproj/getscheck/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "getscheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"addr: \":9000\"\nretention_days: 3\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 3, cfg.RetentionDays)
	// Unset values fall back to defaults.
	assert.Equal(t, config.Default().DatabasePath, cfg.DatabasePath)
	assert.Equal(t, config.Default().MaxUploadBytes, cfg.MaxUploadBytes)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8123")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8123", cfg.Addr)

	t.Setenv("GETSCHECK_ADDR", "127.0.0.1:9999")
	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Addr, "GETSCHECK_ADDR wins over PORT")

	t.Setenv("GETSCHECK_DB", "/tmp/other.db")
	t.Setenv("GETSCHECK_RETENTION_DAYS", "14")
	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, 14, cfg.RetentionDays)
}
