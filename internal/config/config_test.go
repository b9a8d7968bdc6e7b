package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appmcpd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 500, cfg.CacheTTLMs)
	require.Equal(t, 10, cfg.MaxDepth)
	require.Equal(t, 50, cfg.MaxChildren)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
transport: streamable-http
port: 9000
max_depth: 6
log:
  level: debug
  file: /tmp/appmcpd.log
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "streamable-http", cfg.Transport)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, 6, cfg.MaxDepth)
	require.Equal(t, 50, cfg.MaxChildren) // default survives partial file
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "/tmp/appmcpd.log", cfg.Log.File)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("APPMCP_MAX_CHILDREN", "25")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 25, cfg.MaxChildren)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_BadTransport(t *testing.T) {
	path := writeConfig(t, "transport: grpc\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "unsupported transport")
}

func TestLoad_BadPort(t *testing.T) {
	path := writeConfig(t, "port: -1\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "invalid port")
}
