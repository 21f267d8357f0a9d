// Package config is the static startup configuration for a node: listen
// defaults, logging, data directory, and the build-time AEAD key source
// used by the token codec.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file shape, loaded once at
// startup and never mutated afterward. Anything that can change at
// runtime (handle, identity) lives in the identity/config store instead.
type Config struct {
	Logger `yaml:",inline"`

	// ListenPort is a port number, range-checked by Validate. Nothing
	// else reads it: /open always binds the port given in its command.
	ListenPort int `yaml:"ListenPort"`

	// DataDir holds the logstore and identity databases.
	DataDir string `yaml:"DataDir"`

	// TokenKeyHex is the hex-encoded 32-byte ChaCha20-Poly1305 key used
	// by the token codec for connect tokens and DM payload encryption.
	// It is a build-time/deployment secret, never persisted to the
	// identity/config store.
	TokenKeyHex string `yaml:"TokenKeyHex"`

	// MaxPayload is a payload size in bytes, parsed from the file. The
	// network loop does not read it: every peer decoder uses the protocol
	// package's default cap.
	MaxPayload uint32 `yaml:"MaxPayload"`

	// StatusAddr, if non-empty, is the listen address for the optional
	// read-only status/WebSocket mirror.
	StatusAddr string `yaml:"StatusAddr"`
}

// Default returns the configuration a freshly installed node starts
// with, before any config file is read.
func Default() Config {
	return Config{
		ListenPort: 7443,
		DataDir:    "./data",
		Logger: Logger{
			LogLevel:    "info",
			LogEncoding: "console",
		},
	}
}

// Load reads and parses the YAML configuration file at path on top of
// Default, so any field the file does not set keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns an error if cfg is not internally consistent.
func (c Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("config: invalid ListenPort: %d", c.ListenPort)
	}
	if c.TokenKeyHex != "" && len(c.TokenKeyHex) != 64 {
		return fmt.Errorf("config: TokenKeyHex must be 64 hex characters (32 bytes), got %d", len(c.TokenKeyHex))
	}
	return nil
}
