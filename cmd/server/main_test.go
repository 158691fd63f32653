package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadConfig_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}
