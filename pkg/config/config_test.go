package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFillsInDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("DataDir: /var/lib/p2witter\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/p2witter", cfg.DataDir)
	require.Equal(t, 7443, cfg.ListenPort)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestValidateRejectsBadTokenKeyLength(t *testing.T) {
	cfg := Default()
	cfg.TokenKeyHex = "deadbeef"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadLogEncoding(t *testing.T) {
	cfg := Default()
	cfg.LogEncoding = "xml"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadListenPort(t *testing.T) {
	cfg := Default()
	cfg.ListenPort = 99999
	require.Error(t, cfg.Validate())
}

func TestNewLoggerBuildsWithoutError(t *testing.T) {
	cfg := Default()
	logger, atom, err := NewLogger(cfg, true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, atom)
	defer logger.Sync()
}
