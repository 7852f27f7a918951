// Package transport implements component T: a uniform byte-stream
// abstraction over TLS-over-TCP and QUIC, so the codec and everything above
// it never has to know which one carries a given session.
package transport

import (
	"context"
	"io"

	"gshsdk/gsherr"
)

// Stream is the capability component C needs from a transport connection,
// plus lifecycle and deadline-cancellable suspension points per spec
// sections 4.1 and 5. It is a superset of protocol.ByteStream.
type Stream interface {
	ReadExact(ctx context.Context, buf []byte) error
	WriteAll(ctx context.Context, buf []byte) error
	Close() error
}

// Kind distinguishes which concrete variant a Stream is, mostly for logging
// and metrics labels.
type Kind int

const (
	KindTLS Kind = iota
	KindQUICControl
	KindQUICUnidirectional
)

func (k Kind) String() string {
	switch k {
	case KindTLS:
		return "tls"
	case KindQUICControl:
		return "quic-control"
	case KindQUICUnidirectional:
		return "quic-uni"
	default:
		return "unknown"
	}
}

// readExactFrom is shared by every Stream implementation backed by a plain
// io.Reader: spec requires partial reads never be surfaced to the caller,
// and a peer half-close before n bytes arrive surfaces as TransportClosed.
func readExactFrom(ctx context.Context, r io.Reader, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "read cancelled", err)
	}
	_, err := io.ReadFull(r, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return gsherr.Wrap(gsherr.KindTransportClosed, "peer closed before read completed", err)
		}
		return gsherr.Wrap(gsherr.KindTransportClosed, "read failed", err)
	}
	return nil
}

func writeAllTo(ctx context.Context, w io.Writer, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return gsherr.Wrap(gsherr.KindCancelled, "write cancelled", err)
	}
	_, err := w.Write(buf)
	if err != nil {
		return gsherr.Wrap(gsherr.KindTransportClosed, "write failed", err)
	}
	return nil
}
