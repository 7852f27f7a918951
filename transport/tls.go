package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"gshsdk/gsherr"
)

// TLSStream wraps a *tls.Conn (server side, already handshaken) as a Stream.
type TLSStream struct {
	conn net.Conn
}

// NewTLSStream wraps an already-accepted TLS connection.
func NewTLSStream(conn net.Conn) *TLSStream {
	return &TLSStream{conn: conn}
}

// watchCancel arranges for an in-flight conn.Read/Write to unblock promptly
// when ctx is cancelled, by forcing an immediate deadline — net.Conn has no
// native context support, and this is the standard workaround.
func watchCancel(ctx context.Context, conn net.Conn) (cancelWatch func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetDeadline(time.Unix(0, 1))
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (s *TLSStream) ReadExact(ctx context.Context, buf []byte) error {
	stop := watchCancel(ctx, s.conn)
	defer stop()
	err := readExactFrom(ctx, s.conn, buf)
	if err != nil && ctx.Err() != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "read cancelled", ctx.Err())
	}
	return err
}

func (s *TLSStream) WriteAll(ctx context.Context, buf []byte) error {
	stop := watchCancel(ctx, s.conn)
	defer stop()
	err := writeAllTo(ctx, s.conn, buf)
	if err != nil && ctx.Err() != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "write cancelled", ctx.Err())
	}
	return err
}

func (s *TLSStream) Close() error {
	return s.conn.Close()
}

// TLSListenerConfig configures the server-side TLS-over-TCP transport.
type TLSListenerConfig struct {
	Addr        string
	Certificate tls.Certificate
}

// TLSListener accepts TLS-over-TCP links and hands back a single bidirectional
// Stream per link. TLS 1.3 is required; client certificates are never
// requested — authentication is handled entirely at the application layer by
// component H.
type TLSListener struct {
	inner net.Listener
}

func ListenTLS(cfg TLSListenerConfig) (*TLSListener, error) {
	tlsConf := &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cfg.Certificate},
	}
	ln, err := tls.Listen("tcp", cfg.Addr, tlsConf)
	if err != nil {
		return nil, fmt.Errorf("transport: listen tls on %s: %w", cfg.Addr, err)
	}
	return &TLSListener{inner: ln}, nil
}

func (l *TLSListener) Accept() (*TLSStream, error) {
	conn, err := l.inner.Accept()
	if err != nil {
		return nil, err
	}
	return NewTLSStream(conn), nil
}

func (l *TLSListener) Addr() net.Addr { return l.inner.Addr() }

func (l *TLSListener) Close() error { return l.inner.Close() }

// LoadCertificate loads a certificate chain and private key already on disk,
// for use in TLSListenerConfig or QUICListenerConfig. It does not generate
// certificates (spec section 1 places certificate/key generation utilities
// among the external collaborators).
func LoadCertificate(certFile, keyFile string) (tls.Certificate, error) {
	return tls.LoadX509KeyPair(certFile, keyFile)
}
