// Package config loads the vault's two file-based configurations: one for
// the client, one for the server. Configuration is process-wide state
// loaded once at startup and never mutated thereafter; failure to read or
// parse either file is fatal.
//
// The JSON file path itself may be overridden by an environment variable,
// falling back to a fixed relative default, with .env discovery for local
// development.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	env "github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// DefaultClientConfigPath is where the client looks for its configuration
// unless VAULT_CLIENT_CONFIG overrides it.
const DefaultClientConfigPath = "./config/client.json"

// DefaultServerConfigPath is where the server looks for its configuration
// unless VAULT_SERVER_CONFIG overrides it.
const DefaultServerConfigPath = "./config/server.json"

// ClientConfig is the client executable's on-disk configuration: where to
// reach the vault server and which CA certificate to trust.
type ClientConfig struct {
	ServerHost string `json:"server_host"`
	ServerPort int    `json:"server_port"`
	CACertFile string `json:"ca_cert_file"`
}

// ServerConfig is the server executable's on-disk configuration: its
// listen port, the root of its filesystem object store, and its TLS
// material.
type ServerConfig struct {
	ListenPort     int    `json:"listen_port"`
	StorageRoot    string `json:"storage_root"`
	TLSCertFile    string `json:"tls_cert_file"`
	TLSKeyFile     string `json:"tls_key_file"`
	LogLevel       string `json:"log_level"`
	MetricsEnabled bool   `json:"metrics_enabled"`

	// CORS is disabled by default: the vault is a server-to-server API
	// with no browser-based client. Kept configurable for the rare
	// embedder that fronts the vault with a browser console.
	CORSEnabled      bool   `json:"cors_enabled"`
	CORSAllowOrigins string `json:"cors_allow_origins"`

	// SessionTimeout is not file-persisted: it is an operational tuning
	// knob, so it stays on the environment-variable overlay rather than
	// the on-disk record.
	SessionTimeout time.Duration `json:"-"`
}

// LoadClientConfig reads and parses the client configuration. The JSON
// file path is taken from the VAULT_CLIENT_CONFIG environment variable,
// falling back to DefaultClientConfigPath, with .env discovery searching
// recursively upward from the working directory. Any failure to read or
// parse the file is returned verbatim; callers treat it as fatal.
func LoadClientConfig() (*ClientConfig, error) {
	loadDotEnv()
	path := env.GetString("VAULT_CLIENT_CONFIG", DefaultClientConfigPath)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ClientConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServerConfig reads and parses the server configuration the same
// way LoadClientConfig does, plus the session inactivity timeout.
func LoadServerConfig() (*ServerConfig, error) {
	loadDotEnv()
	path := env.GetString("VAULT_SERVER_CONFIG", DefaultServerConfigPath)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ServerConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.SessionTimeout = env.GetDuration("VAULT_SESSION_TIMEOUT_SECONDS", 300, time.Second)
	if cfg.LogLevel == "" {
		cfg.LogLevel = env.GetString("LOG_LEVEL", "info")
	}
	return &cfg, nil
}

// GetGinMode maps the configured log level to a gin.Mode string: "debug"
// stays verbose, everything else runs release-mode.
func (c *ServerConfig) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// loadDotEnv searches for a .env file recursively from the current
// directory up to the root, loading it if found. Local dev convenience
// only, never required for correctness.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
