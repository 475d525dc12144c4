package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("INVCTL_CONFIG_DIR", dir)
	t.Setenv("INVCTL_API_URL", "")
	t.Setenv("INVCTL_HTTP_TIMEOUT", "")
	t.Setenv("INVCTL_NO_COLOR", "")
	t.Setenv("INVCTL_LOG_LEVEL", "")
	return dir
}

func TestLoadConfigMissingFile(t *testing.T) {
	useTempDir(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestSaveAndUpdate(t *testing.T) {
	dir := useTempDir(t)

	require.NoError(t, SaveConfig(&Config{APIURL: "http://inv.local"}))
	require.NoError(t, Update(func(cfg *Config) {
		cfg.LastStatusID = 3
		cfg.LastResponsible = "ops"
	}))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://inv.local", cfg.APIURL)
	assert.Equal(t, 3, cfg.LastStatusID)
	assert.Equal(t, "ops", cfg.LastResponsible)

	_, err = os.Stat(filepath.Join(dir, configFileName))
	assert.NoError(t, err)
}

func TestLoadConfigCorrupt(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("{nope"), 0644))
	_, err := LoadConfig()
	assert.Error(t, err)

	_, err = LoadSettings()
	assert.Error(t, err)
}

func TestUpdateKeepsUnreadableConfig(t *testing.T) {
	dir := useTempDir(t)
	path := filepath.Join(dir, configFileName)
	truncated := []byte(`{"api_url": "http://inv.local", "no_color": tr`)
	require.NoError(t, os.WriteFile(path, truncated, 0644))

	called := false
	err := Update(func(cfg *Config) {
		called = true
		cfg.LastStatusID = 2
	})
	require.Error(t, err)
	assert.False(t, called)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, truncated, data, "file is not overwritten")
}

func TestUpdateCreatesMissingConfig(t *testing.T) {
	useTempDir(t)
	require.NoError(t, Update(func(cfg *Config) { cfg.LastStatusID = 2 }))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.LastStatusID)
}

func TestLoadSettingsDefaults(t *testing.T) {
	useTempDir(t)
	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, s.APIURL)
	assert.Equal(t, 30*time.Second, s.HTTPTimeout)
	assert.Equal(t, "warn", s.LogLevel)
	assert.False(t, s.NoColor)
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	useTempDir(t)
	require.NoError(t, SaveConfig(&Config{APIURL: "http://file.local/", HTTPTimeoutSeconds: 5, NoColor: true}))

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "http://file.local", s.APIURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, s.HTTPTimeout)
	assert.True(t, s.NoColor)

	t.Setenv("INVCTL_API_URL", " http://env.local/ ")
	t.Setenv("INVCTL_HTTP_TIMEOUT", "45")
	s, err = LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "http://env.local", s.APIURL)
	assert.Equal(t, 45*time.Second, s.HTTPTimeout)
}
