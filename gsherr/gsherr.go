// Package gsherr defines the error taxonomy shared by every component of the
// session pipeline (transport, codec, handshake, encoder, session loop).
package gsherr

import "fmt"

// Kind classifies a failure the way the session state machine reasons about
// it: each kind maps to exactly one recovery action (see session.Serve).
type Kind int

const (
	// KindUnknown is the zero value; never constructed intentionally.
	KindUnknown Kind = iota
	// KindTransportClosed means the peer closed or half-closed the stream
	// before the expected number of bytes was available/writable.
	KindTransportClosed
	// KindCancelled means a suspension point resolved because its context
	// was cancelled, not because of any protocol condition.
	KindCancelled
	// KindProtocol means a message was malformed or arrived in a state that
	// doesn't accept it.
	KindProtocol
	// KindFrameTooLarge means a length prefix exceeded the codec's limit.
	KindFrameTooLarge
	// KindIncompatibleVersion means ClientHello.ProtocolVersion didn't match.
	KindIncompatibleVersion
	// KindAuthFailed means password or signature verification failed.
	KindAuthFailed
	// KindCodec means a compression/decompression operation failed.
	KindCodec
	// KindService means a user-supplied callback returned an error.
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindTransportClosed:
		return "transport_closed"
	case KindCancelled:
		return "cancelled"
	case KindProtocol:
		return "protocol"
	case KindFrameTooLarge:
		return "frame_too_large"
	case KindIncompatibleVersion:
		return "incompatible_version"
	case KindAuthFailed:
		return "auth_failed"
	case KindCodec:
		return "codec"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across package boundaries. It
// carries a Kind for programmatic dispatch and an optional service-supplied
// Code alongside the human-readable Message.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, gsherr.ErrX) style checks: it reports true for
// any *Error target of the same Kind, ignoring the target's Code, Message
// and Cause, so the Kind-only sentinels below match every error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a bare *Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a *Error of the given kind that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithCode attaches a service error code, mirroring the Service callback
// contract (`on_tick`/`on_input` returning a fatal error carries a code).
func WithCode(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Sentinel kind values for errors.Is comparisons, e.g.:
//
//	if errors.Is(err, gsherr.ErrTransportClosed) { ... }
var (
	ErrTransportClosed     = &Error{Kind: KindTransportClosed}
	ErrCancelled           = &Error{Kind: KindCancelled}
	ErrProtocol            = &Error{Kind: KindProtocol}
	ErrFrameTooLarge       = &Error{Kind: KindFrameTooLarge}
	ErrIncompatibleVersion = &Error{Kind: KindIncompatibleVersion}
	ErrAuthFailed          = &Error{Kind: KindAuthFailed}
	ErrCodec               = &Error{Kind: KindCodec}
	ErrService             = &Error{Kind: KindService}
)
