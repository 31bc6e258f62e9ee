package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://docs.example.org\nca_file: /etc/ca.pem\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.org", cfg.BaseURL)
	assert.Equal(t, "/etc/ca.pem", cfg.CAFile)
	assert.Equal(t, Default().StateFile, cfg.StateFile)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unterminated"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.yaml")
	want := Config{BaseURL: "http://10.0.0.2:8080", StateFile: "/tmp/s.db", MaxUploadBytes: 1 << 20}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
