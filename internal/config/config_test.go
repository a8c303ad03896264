package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper() {
	viper.Reset()
}

func TestNewWritesDefaultsWhenMissing(t *testing.T) {
	resetViper()
	dir := t.TempDir()

	cfg, err := New(dir)
	require.Nil(t, err)
	assert.Equal(t, "sources.txt", cfg.Sources)
	assert.True(t, cfg.EnableStage2)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestNewHonorsEnvOverride(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	t.Setenv("OPENRAY_SOURCES", "custom-sources.txt")

	cfg, err := New(dir)
	require.Nil(t, err)
	assert.Equal(t, "custom-sources.txt", cfg.Sources)
}

func TestNewRejectsNumericDuration(t *testing.T) {
	resetViper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("fetch-timeout: 15\n"), 0o644))

	_, err := New(dir)
	require.NotNil(t, err)
}
