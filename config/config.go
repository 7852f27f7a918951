// Package config loads the YAML server configuration: listen address and
// transport kind, TLS material, session tuning, compression selection, and
// the auth method's parameters.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gshsdk/protocol"
)

// Transport selects the wire transport a listener binds (spec section 4.1).
type Transport string

const (
	TransportTLS  Transport = "tls"
	TransportQUIC Transport = "quic"
)

type Config struct {
	Listen      ListenConfig      `yaml:"listen"`
	Session     SessionConfig     `yaml:"session"`
	Compression CompressionConfig `yaml:"compression"`
	Auth        AuthConfig        `yaml:"auth"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type ListenConfig struct {
	Addr      string    `yaml:"addr"`
	Transport Transport `yaml:"transport"`
	CertFile  string    `yaml:"cert_file"`
	KeyFile   string    `yaml:"key_file"`
}

type SessionConfig struct {
	TargetFPS  int `yaml:"target_fps"`
	QueueDepth int `yaml:"queue_depth"`
}

type CompressionConfig struct {
	Codec string `yaml:"codec"` // "" or "none", "zstd"
	Level int32  `yaml:"level"`
}

// AuthConfig selects the handshake's auth method. PasswordDigestHex is the
// hex-encoded SHA-256 digest a password client must match (see
// auth.DigestPassword); it is never the plaintext itself.
type AuthConfig struct {
	Method            string `yaml:"method"` // "none", "password", "signature"
	PasswordDigestHex string `yaml:"password_digest_hex"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the metrics listener
}

const (
	defaultListenAddr = "0.0.0.0:8443"
	defaultTargetFPS  = 60
	defaultQueueDepth = 4
)

// Load reads and defaults a Config from a YAML file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Listen.Addr == "" {
		c.Listen.Addr = defaultListenAddr
	}
	if c.Listen.Transport == "" {
		c.Listen.Transport = TransportTLS
	}
	if c.Session.TargetFPS == 0 {
		c.Session.TargetFPS = defaultTargetFPS
	}
	if c.Session.QueueDepth == 0 {
		c.Session.QueueDepth = defaultQueueDepth
	}
	if c.Auth.Method == "" {
		c.Auth.Method = "none"
	}
}

func (c *Config) validate() error {
	switch c.Listen.Transport {
	case TransportTLS, TransportQUIC:
	default:
		return fmt.Errorf("config: unknown listen.transport %q", c.Listen.Transport)
	}
	if c.Listen.CertFile == "" || c.Listen.KeyFile == "" {
		return fmt.Errorf("config: listen.cert_file and listen.key_file are required")
	}
	switch c.Auth.Method {
	case "none", "password", "signature":
	default:
		return fmt.Errorf("config: unknown auth.method %q", c.Auth.Method)
	}
	if c.Auth.Method == "password" {
		if _, err := c.PasswordDigest(); err != nil {
			return fmt.Errorf("config: auth.password_digest_hex: %w", err)
		}
	}
	switch c.Compression.Codec {
	case "", "none", "zstd":
	default:
		return fmt.Errorf("config: unknown compression.codec %q", c.Compression.Codec)
	}
	return nil
}

// AuthKind maps the configured method name onto protocol.AuthKind.
func (c *Config) AuthKind() protocol.AuthKind {
	switch c.Auth.Method {
	case "password":
		return protocol.AuthPassword
	case "signature":
		return protocol.AuthSignature
	default:
		return protocol.AuthNone
	}
}

// PasswordDigest decodes the configured hex digest into the 32-byte SHA-256
// value auth.NewPasswordVerifier expects.
func (c *Config) PasswordDigest() ([32]byte, error) {
	var digest [32]byte
	raw, err := hex.DecodeString(c.Auth.PasswordDigestHex)
	if err != nil {
		return digest, fmt.Errorf("invalid hex: %w", err)
	}
	if len(raw) != 32 {
		return digest, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	copy(digest[:], raw)
	return digest, nil
}

// CompressionSelector builds the *protocol.Compression ServerHelloAck should
// advertise, or nil when compression is disabled.
func (c *Config) CompressionSelector() *protocol.Compression {
	if c.Compression.Codec != "zstd" {
		return nil
	}
	return &protocol.Compression{Codec: protocol.CompressionZstd, Level: c.Compression.Level}
}
