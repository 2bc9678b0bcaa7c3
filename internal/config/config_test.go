package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Publish.MaxRetries)
	assert.Equal(t, []string{"post_card", "hero"}, cfg.Publish.CropSizes)
	assert.True(t, cfg.Publish.EnableVision)
	assert.Equal(t, "genai", cfg.Vision.Provider)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout())
	assert.Equal(t, 10*time.Second, cfg.Browser.PollWindow())
	assert.Equal(t, 250*time.Millisecond, cfg.Browser.PollInterval())
	assert.Equal(t, 2*time.Second, cfg.Publish.RetryDelay())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Publish.MaxRetries, cfg.Publish.MaxRetries)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser:
  headless: false
  poll_window_ms: 5000
publish:
  max_retries: 5
  crop_sizes: [square]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 5*time.Second, cfg.Browser.PollWindow())
	assert.Equal(t, 5, cfg.Publish.MaxRetries)
	assert.Equal(t, []string{"square"}, cfg.Publish.CropSizes)
	// untouched sections keep defaults
	assert.Equal(t, "gemini-3-flash-preview", cfg.Vision.Model)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":::"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUTOPRESS_VISION_API_KEY", "key-from-env")
	t.Setenv("AUTOPRESS_HEADLESS", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "key-from-env", cfg.Vision.APIKey)
	assert.False(t, cfg.Browser.Headless)
}

func TestGeminiKeyFallback(t *testing.T) {
	t.Setenv("AUTOPRESS_VISION_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.Vision.APIKey)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Publish.MaxRetries = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Publish.MaxRetries)
}
