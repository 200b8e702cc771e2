package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestNewConfig(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"meta.yaml": "files:\n  - base.yaml\n",
		"base.yaml": "minimumToitVersion: 1.8.0\n",
	})
	t.Setenv(EnvConfigDir, dir)

	provider, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "config", provider.Name())
	assert.Equal(t, "1.8.0", provider.Get("minimumToitVersion").String())
}

func TestNewConfigFromDir(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		provider, err := newConfigFromDir("/nonexistent/path")
		assert.Error(t, err)
		assert.Nil(t, provider)
	})

	t.Run("malformed files list", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml": "files: base.yaml\n",
		})
		_, err := newConfigFromDir(dir)
		assert.ErrorContains(t, err, "files list")
	})

	t.Run("no listed files exist", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml": "files:\n  - base.yaml\n",
		})
		_, err := newConfigFromDir(dir)
		assert.ErrorContains(t, err, "no configuration files found")
	})

	t.Run("later files take priority", func(t *testing.T) {
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml":        "files:\n  - base.yaml\n  - development.yaml\n  - local.yaml\n",
			"base.yaml":        "logging:\n  level: info\njsonrpc:\n  mode: stdio\n",
			"development.yaml": "logging:\n  level: debug\n",
		})
		provider, err := newConfigFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "debug", provider.Get("logging.level").String())
		assert.Equal(t, "stdio", provider.Get("jsonrpc.mode").String())
	})

	t.Run("environment expansion", func(t *testing.T) {
		t.Setenv("TLSP_PORT", "7000")
		dir := writeConfigDir(t, map[string]string{
			"meta.yaml": "files:\n  - base.yaml\n",
			"base.yaml": "jsonrpc:\n  address: 127.0.0.1:${TLSP_PORT:6000}\n",
		})
		provider, err := newConfigFromDir(dir)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7000", provider.Get("jsonrpc.address").String())
	})
}

func TestGetConfigDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	assert.Equal(t, "src/tlsp/config", getConfigDir())

	t.Setenv(EnvConfigDir, "/etc/tlsp")
	assert.Equal(t, "/etc/tlsp", getConfigDir())
}
