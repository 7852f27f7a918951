package transport

import (
	"context"
	"crypto/tls"
	"fmt"

	"golang.org/x/net/quic"

	"gshsdk/gsherr"
)

// QUICControlStream wraps the session's bidirectional stream (id 0):
// handshake, auth, input, and status traffic all flow here.
type QUICControlStream struct {
	s *quic.Stream
}

func (s *QUICControlStream) ReadExact(ctx context.Context, buf []byte) error {
	err := readExactFrom(ctx, s.s, buf)
	if err != nil && ctx.Err() != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "read cancelled", ctx.Err())
	}
	return err
}

func (s *QUICControlStream) WriteAll(ctx context.Context, buf []byte) error {
	err := writeAllTo(ctx, s.s, buf)
	if err != nil && ctx.Err() != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "write cancelled", ctx.Err())
	}
	return err
}

func (s *QUICControlStream) Close() error {
	s.s.CloseRead()
	return s.s.CloseWrite()
}

// QUICUnidirectional wraps one additional server->client stream opened to
// carry Frame traffic off the control stream, so frame bursts never
// head-of-line-block input/status messages (spec section 4.1).
type QUICUnidirectional struct {
	s *quic.Stream
}

// WriteAll is the only meaningful direction on a server-opened uni stream;
// ReadExact always fails with TransportClosed because there is no peer data
// to read on a send-only stream.
func (s *QUICUnidirectional) WriteAll(ctx context.Context, buf []byte) error {
	err := writeAllTo(ctx, s.s, buf)
	if err != nil && ctx.Err() != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "write cancelled", ctx.Err())
	}
	return err
}

func (s *QUICUnidirectional) ReadExact(_ context.Context, _ []byte) error {
	return gsherr.New(gsherr.KindTransportClosed, "quic unidirectional stream is write-only")
}

func (s *QUICUnidirectional) Close() error {
	return s.s.CloseWrite()
}

// QUICSession is one accepted QUIC connection, offering the control stream
// plus the ability to open additional unidirectional frame streams. Peer
// address changes (connection migration) are handled transparently by
// quic.Conn; this adapter does not special-case them.
type QUICSession struct {
	conn *quic.Conn
}

// Control accepts the peer-opened bidirectional stream (id 0): the client
// always opens it immediately after the handshake completes.
func (q *QUICSession) Control(ctx context.Context) (*QUICControlStream, error) {
	st, err := q.conn.AcceptStream(ctx)
	if err != nil {
		return nil, gsherr.Wrap(gsherr.KindTransportClosed, "accept quic control stream", err)
	}
	return &QUICControlStream{s: st}, nil
}

// OpenFrameStream opens a new unidirectional stream for frame traffic.
func (q *QUICSession) OpenFrameStream(ctx context.Context) (*QUICUnidirectional, error) {
	st, err := q.conn.NewSendOnlyStream(ctx)
	if err != nil {
		return nil, gsherr.Wrap(gsherr.KindTransportClosed, "open quic frame stream", err)
	}
	return &QUICUnidirectional{s: st}, nil
}

func (q *QUICSession) Close() error {
	return q.conn.Close()
}

// QUICListenerConfig configures the server-side QUIC/UDP transport.
type QUICListenerConfig struct {
	Addr        string
	Certificate tls.Certificate
}

// QUICListener accepts QUIC connections.
type QUICListener struct {
	ep *quic.Endpoint
}

func ListenQUIC(cfg QUICListenerConfig) (*QUICListener, error) {
	tlsConf := &tls.Config{
		MinVersion:   tls.VersionTLS13,
		Certificates: []tls.Certificate{cfg.Certificate},
		NextProtos:   []string{"gsh"},
	}
	ep, err := quic.Listen("udp", cfg.Addr, &quic.Config{TLSConfig: tlsConf})
	if err != nil {
		return nil, fmt.Errorf("transport: listen quic on %s: %w", cfg.Addr, err)
	}
	return &QUICListener{ep: ep}, nil
}

func (l *QUICListener) Accept(ctx context.Context) (*QUICSession, error) {
	conn, err := l.ep.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return &QUICSession{conn: conn}, nil
}

func (l *QUICListener) Close() error {
	return l.ep.Close(context.Background())
}
