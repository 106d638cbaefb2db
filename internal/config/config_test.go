package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields the defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"extension: jpg\njpeg_quality: 75\nnotify: true\npng_compression: best\n",
		), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "jpg", cfg.Extension)
		assert.Equal(t, 75, cfg.JPEGQuality)
		assert.True(t, cfg.Notify)
		assert.Equal(t, "best", cfg.PNGCompression)
		// Untouched keys keep their defaults.
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "fast", Default().PNGCompression)
		assert.Equal(t, "20060102-150405-waygrab", cfg.FilenameFormat)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSave(t *testing.T) {
	t.Run("round-trips through Load", func(t *testing.T) {
		cfg := Default()
		cfg.Extension = "ppm"
		cfg.Cursor = true
		cfg.OutputDir = "/tmp/shots"

		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		require.NoError(t, cfg.Save(path))

		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	})
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
	assert.Equal(t, "waygrab", filepath.Base(filepath.Dir(DefaultPath())))
}
