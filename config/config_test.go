package config

import (
	"os"
	"path/filepath"
	"testing"

	"gshsdk/protocol"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gshd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
listen:
  cert_file: cert.pem
  key_file: key.pem
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Listen.Addr != defaultListenAddr {
		t.Fatalf("expected default listen addr, got %q", c.Listen.Addr)
	}
	if c.Listen.Transport != TransportTLS {
		t.Fatalf("expected default transport tls, got %q", c.Listen.Transport)
	}
	if c.Session.TargetFPS != defaultTargetFPS || c.Session.QueueDepth != defaultQueueDepth {
		t.Fatalf("expected default session tuning, got %+v", c.Session)
	}
	if c.AuthKind() != protocol.AuthNone {
		t.Fatalf("expected default auth none, got %v", c.AuthKind())
	}
	if c.CompressionSelector() != nil {
		t.Fatalf("expected nil compression selector by default")
	}
}

func TestLoad_MissingCertIsRejected(t *testing.T) {
	path := writeConfig(t, `
listen:
  addr: 0.0.0.0:9443
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for missing cert/key files")
	}
}

func TestLoad_UnknownTransportIsRejected(t *testing.T) {
	path := writeConfig(t, `
listen:
  cert_file: cert.pem
  key_file: key.pem
  transport: carrier-pigeon
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown transport")
	}
}

func TestLoad_PasswordAuthRequiresValidDigest(t *testing.T) {
	path := writeConfig(t, `
listen:
  cert_file: cert.pem
  key_file: key.pem
auth:
  method: password
  password_digest_hex: not-hex
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an invalid digest")
	}
}

func TestLoad_PasswordAuthAccepted(t *testing.T) {
	digest := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	path := writeConfig(t, `
listen:
  cert_file: cert.pem
  key_file: key.pem
auth:
  method: password
  password_digest_hex: `+digest+`
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.AuthKind() != protocol.AuthPassword {
		t.Fatalf("expected password auth, got %v", c.AuthKind())
	}
	if _, err := c.PasswordDigest(); err != nil {
		t.Fatalf("expected digest to decode, got %v", err)
	}
}

func TestLoad_CompressionSelector(t *testing.T) {
	path := writeConfig(t, `
listen:
  cert_file: cert.pem
  key_file: key.pem
compression:
  codec: zstd
  level: 6
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	sel := c.CompressionSelector()
	if sel == nil || sel.Codec != protocol.CompressionZstd || sel.Level != 6 {
		t.Fatalf("unexpected compression selector: %+v", sel)
	}
}
