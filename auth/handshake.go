// Package auth implements component H: the handshake and authentication
// state machine that runs once, at the start of every session, before the
// steady-state loop in the session package takes over.
package auth

import (
	"context"
	"crypto/rand"

	"gshsdk/gsherr"
	"gshsdk/protocol"
)

// ProtocolVersion is the wire version this server speaks. A ClientHello
// carrying any other value is rejected with KindIncompatibleVersion before a
// ServerHelloAck is ever sent (spec section 8, scenario S2).
const ProtocolVersion = 1

// challengeSize is the length, in bytes, of the random sign_message
// challenge issued for signature auth (spec section 4.3).
const challengeSize = 32

// Config selects the auth method negotiated for a session. It is supplied by
// the embedding service, typically sourced from the server's configuration
// file (see the config package).
type Config struct {
	Method AuthKind
}

// AuthKind re-exports protocol.AuthKind so callers outside protocol don't
// need to import it just to build a Config.
type AuthKind = protocol.AuthKind

const (
	MethodNone      = protocol.AuthNone
	MethodPassword  = protocol.AuthPassword
	MethodSignature = protocol.AuthSignature
)

// Hello is what the session layer supplies to answer a successful
// ClientHello: the negotiated frame format, optional compression, and the
// window set the client should render (spec section 4.2, server_hello
// capability).
type Hello struct {
	Format      protocol.FrameFormat
	Compression *protocol.Compression
	Windows     []protocol.Window
}

// Verifier groups the two service capabilities the handshake may call into.
// The session package builds one from whichever of the two a Service
// implements, denying the other.
type Verifier interface {
	PasswordVerifier
	PublicKeyVerifier
}

// Result is returned once a session reaches READY.
type Result struct {
	Hello *protocol.ClientHello
}

// codec is the subset of *protocol.Codec the handshake needs, so tests can
// supply a fake without standing up a real transport.
type codec interface {
	Read(ctx context.Context) (protocol.Message, error)
	Write(ctx context.Context, msg protocol.Message) error
}

// Run drives one session from INIT through READY or FAILED (spec section
// 4.3). On success it returns the client's hello; on failure it returns a
// *gsherr.Error whose Kind indicates why, and the caller is expected to
// close the transport without further writes (except the ServerAuthAck
// failure notice already sent, when applicable).
func Run(ctx context.Context, c codec, cfg Config, hello Hello, v Verifier) (*Result, error) {
	msg, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	clientHello, ok := msg.(*protocol.ClientHello)
	if !ok {
		return nil, gsherr.New(gsherr.KindProtocol, "expected ClientHello as first message")
	}
	if clientHello.ProtocolVersion != ProtocolVersion {
		return nil, gsherr.New(gsherr.KindIncompatibleVersion, "unsupported protocol version")
	}

	ack := &protocol.ServerHelloAck{
		Format:      hello.Format,
		Compression: hello.Compression,
		Windows:     hello.Windows,
	}

	var challenge []byte
	switch cfg.Method {
	case MethodNone:
		ack.AuthMethod = nil
	case MethodPassword:
		ack.AuthMethod = &protocol.AuthMethod{Kind: protocol.AuthPassword}
	case MethodSignature:
		challenge = make([]byte, challengeSize)
		if _, err := rand.Read(challenge); err != nil {
			return nil, gsherr.Wrap(gsherr.KindService, "generate auth challenge", err)
		}
		ack.AuthMethod = &protocol.AuthMethod{Kind: protocol.AuthSignature, SignMessage: challenge}
	default:
		return nil, gsherr.New(gsherr.KindProtocol, "unknown auth method configured")
	}

	if err := c.Write(ctx, ack); err != nil {
		return nil, err
	}

	if cfg.Method == MethodNone {
		return &Result{Hello: clientHello}, nil
	}

	authMsg, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	clientAuth, ok := authMsg.(*protocol.ClientAuth)
	if !ok {
		return nil, gsherr.New(gsherr.KindProtocol, "expected ClientAuth")
	}

	if authErr := verify(cfg.Method, challenge, clientAuth, v); authErr != nil {
		_ = c.Write(ctx, &protocol.ServerAuthAck{Status: protocol.AuthStatusFailure, Message: "authentication failed"})
		return nil, authErr
	}

	if err := c.Write(ctx, &protocol.ServerAuthAck{Status: protocol.AuthStatusSuccess}); err != nil {
		return nil, err
	}
	return &Result{Hello: clientHello}, nil
}

func verify(method AuthKind, challenge []byte, auth *protocol.ClientAuth, v Verifier) error {
	if auth.Method != method {
		return gsherr.New(gsherr.KindProtocol, "ClientAuth method does not match negotiated method")
	}
	switch method {
	case MethodPassword:
		if !v.VerifyPassword(auth.Password) {
			return gsherr.New(gsherr.KindAuthFailed, "incorrect password")
		}
		return nil
	case MethodSignature:
		if err := verifySignature(auth.PublicKey, challenge, auth.Signature); err != nil {
			return err
		}
		if !v.VerifyPublicKey(auth.PublicKey) {
			return gsherr.New(gsherr.KindAuthFailed, "public key not authorized")
		}
		return nil
	default:
		return gsherr.New(gsherr.KindProtocol, "unknown auth method")
	}
}
