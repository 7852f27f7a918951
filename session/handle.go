package session

import (
	"gshsdk/encoder"
	"gshsdk/protocol"
)

// Handle is the capability a Service's callbacks use to publish frames and
// status, and to read the window set negotiated at handshake time. It is
// single-owner: the loop only ever calls into a Service from its own
// goroutine, so Handle itself needs no internal locking (spec section 5:
// "cooperatively single-threaded within a session").
type Handle struct {
	sessionID string
	windows   []protocol.Window
	enc       *encoder.Encoder
	queue     *outboundQueue
}

// SessionID is a stable identifier for logging/metrics labels.
func (h *Handle) SessionID() string { return h.sessionID }

// Windows returns the window set negotiated at handshake time.
func (h *Handle) Windows() []protocol.Window { return h.windows }

// PublishFrame diffs newBuf against the previous buffer sent for windowID
// (component E) and, if anything changed, enqueues the resulting Frame onto
// the outbound queue (spec section 4.4/4.5). A no-op diff is silently
// dropped, matching the "emit no Frame at all" invariant.
func (h *Handle) PublishFrame(windowID, width, height uint32, newBuf []byte) error {
	frame, ok, err := h.enc.Encode(windowID, width, height, newBuf)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	h.queue.pushFrame(windowID, frame)
	return nil
}

// SendStatus enqueues a StatusUpdate; never dropped or coalesced.
func (h *Handle) SendStatus(level protocol.StatusLevel, code int32, message string) {
	h.queue.pushStatus(&protocol.StatusUpdate{Level: level, Code: code, Message: message})
}

// invalidateWindow is called by the loop before OnResize, per spec section
// 4.5's "E's previous-buffer for that window is invalidated before the
// callback" ordering requirement.
func (h *Handle) invalidateWindow(windowID uint32) {
	h.enc.InvalidateWindow(windowID)
}
