// Package session implements component S: the steady-state loop that takes
// over once a session reaches READY, multiplexing outbound Frame/StatusUpdate
// traffic against inbound UserInput/StatusUpdate traffic.
package session

import (
	"gshsdk/protocol"
)

// ExitReason classifies why a session's on_exit callback fired (spec section
// 4.5 termination triggers).
type ExitReason int

const (
	// ExitClientRequested means the client sent StatusUpdate{EXIT}.
	ExitClientRequested ExitReason = iota
	// ExitTransportError means the transport failed out from under the loop.
	ExitTransportError
	// ExitServiceError means on_tick or on_input returned a fatal error.
	ExitServiceError
)

func (r ExitReason) String() string {
	switch r {
	case ExitClientRequested:
		return "client_requested"
	case ExitTransportError:
		return "transport_error"
	case ExitServiceError:
		return "service_error"
	default:
		return "unknown"
	}
}

// Service is the capability set a server host wires into a session (spec
// section 4.5). None of the sub-interfaces are mandatory: the loop probes
// for each via a type assertion, the same optional-interface pattern
// net/http and io use for capabilities like Flusher or ReaderFrom.
//
// A concrete Service implementation satisfies whichever of these it needs;
// any value is a Service, and a capability it does not implement is simply
// never called, so a minimal Service only has to implement OnTick.
type Service interface{}

// HelloService supplies the ServerHelloAck contents. A Service missing this
// capability gets a single borderless window at a default resolution.
type HelloService interface {
	ServerHello() Hello
}

// StartService is called once, the instant a session enters READY.
type StartService interface {
	OnStart(h *Handle)
}

// TickService is called once per frame-rate tick.
type TickService interface {
	OnTick(h *Handle) error
}

// InputService is called for every inbound UserInput.
type InputService interface {
	OnInput(h *Handle, input *protocol.UserInput) error
}

// ResizeService is called when the client reports a window resize. The
// encoder's previous-buffer snapshot for that window is invalidated before
// this callback runs (spec section 4.5).
type ResizeService interface {
	OnResize(h *Handle, windowID, width, height uint32)
}

// ExitService is called exactly once, on the session's terminal transition.
type ExitService interface {
	OnExit(h *Handle, reason ExitReason)
}

// Hello is what a HelloService returns: the negotiated frame format,
// optional compression, and window set (mirrors auth.Hello, which is built
// from this).
type Hello struct {
	Format      protocol.FrameFormat
	Compression *protocol.Compression
	Windows     []protocol.Window
}

func defaultHello() Hello {
	return Hello{
		Format: protocol.FrameFormatRGBA,
		Windows: []protocol.Window{
			{WindowID: 1, Width: 1280, Height: 720, Title: "session", Mode: protocol.WindowModeBorderless, Resizable: true},
		},
	}
}
