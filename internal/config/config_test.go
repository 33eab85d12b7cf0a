package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONConfig(t *testing.T, path string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
}

func TestLoadClientConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	writeJSONConfig(t, path, ClientConfig{
		ServerHost: "vault.example.com",
		ServerPort: 8443,
		CACertFile: "/etc/vault/ca.pem",
	})

	os.Clearenv()
	require.NoError(t, os.Setenv("VAULT_CLIENT_CONFIG", path))
	defer os.Unsetenv("VAULT_CLIENT_CONFIG")

	cfg, err := LoadClientConfig()
	require.NoError(t, err)
	assert.Equal(t, "vault.example.com", cfg.ServerHost)
	assert.Equal(t, 8443, cfg.ServerPort)
	assert.Equal(t, "/etc/vault/ca.pem", cfg.CACertFile)
}

func TestLoadClientConfigMissingFileIsFatal(t *testing.T) {
	os.Clearenv()
	require.NoError(t, os.Setenv("VAULT_CLIENT_CONFIG", filepath.Join(t.TempDir(), "does-not-exist.json")))
	defer os.Unsetenv("VAULT_CLIENT_CONFIG")

	_, err := LoadClientConfig()
	assert.Error(t, err)
}

func TestLoadServerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	writeJSONConfig(t, path, ServerConfig{
		ListenPort:     8443,
		StorageRoot:    "/var/lib/vault",
		TLSCertFile:    "/etc/vault/server.pem",
		TLSKeyFile:     "/etc/vault/server-key.pem",
		LogLevel:       "debug",
		MetricsEnabled: true,
	})

	os.Clearenv()
	require.NoError(t, os.Setenv("VAULT_SERVER_CONFIG", path))
	defer os.Unsetenv("VAULT_SERVER_CONFIG")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, 8443, cfg.ListenPort)
	assert.Equal(t, "/var/lib/vault", cfg.StorageRoot)
	assert.Equal(t, "/etc/vault/server.pem", cfg.TLSCertFile)
	assert.Equal(t, "/etc/vault/server-key.pem", cfg.TLSKeyFile)
	assert.Equal(t, true, cfg.MetricsEnabled)
	assert.Equal(t, 300*time.Second, cfg.SessionTimeout)
	assert.Equal(t, "debug", cfg.GetGinMode())
}

func TestLoadServerConfigSessionTimeoutOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	writeJSONConfig(t, path, ServerConfig{ListenPort: 8443, StorageRoot: dir})

	os.Clearenv()
	require.NoError(t, os.Setenv("VAULT_SERVER_CONFIG", path))
	require.NoError(t, os.Setenv("VAULT_SESSION_TIMEOUT_SECONDS", "60"))
	defer os.Unsetenv("VAULT_SERVER_CONFIG")
	defer os.Unsetenv("VAULT_SESSION_TIMEOUT_SECONDS")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.SessionTimeout)
}

func TestLoadServerConfigMissingFileIsFatal(t *testing.T) {
	os.Clearenv()
	require.NoError(t, os.Setenv("VAULT_SERVER_CONFIG", filepath.Join(t.TempDir(), "does-not-exist.json")))
	defer os.Unsetenv("VAULT_SERVER_CONFIG")

	_, err := LoadServerConfig()
	assert.Error(t, err)
}

func TestGetGinMode(t *testing.T) {
	tests := []struct {
		logLevel string
		expected string
	}{
		{"debug", "debug"},
		{"info", "release"},
		{"warn", "release"},
		{"", "release"},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &ServerConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetGinMode())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	err = os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("TEST_ENV_VAR=found"), 0o600)
	require.NoError(t, err)

	childDir := filepath.Join(tmpDir, "child", "grandchild")
	err = os.MkdirAll(childDir, 0o700)
	require.NoError(t, err)

	oldCwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(oldCwd)
	}()

	err = os.Chdir(childDir)
	require.NoError(t, err)

	loadDotEnv()

	assert.Equal(t, "found", os.Getenv("TEST_ENV_VAR"))
	err = os.Unsetenv("TEST_ENV_VAR")
	require.NoError(t, err)
}
