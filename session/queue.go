package session

import (
	"sync"

	"gshsdk/protocol"
)

// outboundQueue is the shared, bounded, per-window-coalescing queue spec
// section 4.5 describes: a writer task drains it while the ticker/reader
// push onto it without ever blocking on a slow wire.
//
// Status messages are never dropped and are delivered in emission order
// relative to one another and relative to frames that were already pending
// at the time they were pushed: a status message waits for every frame
// queued ahead of it to drain before it is handed to the writer, so a
// terminal StatusUpdate{EXIT} can never overtake a frame backlog the
// producer built up before exiting (spec section 5's "EXIT is the last
// message written" and section 8 property 8). Frames pushed after a status
// message are unaffected and may still be written following it. Frames
// themselves are dropped only by coalescing: pushing onto a full per-window
// queue discards that window's oldest *pending* frame, favoring recency.
type outboundQueue struct {
	mu      sync.Mutex
	depth   int
	frames  map[uint32][]*protocol.Frame
	order   []uint32 // windows with pending frames, in round-robin service order
	status  []*statusEntry
	metrics Metrics
	signal  chan struct{} // capacity 1; non-blocking send wakes a sleeping writer
	closed  bool
}

// statusEntry pairs a queued status message with the per-window frame
// backlog that existed when it was pushed; it is withheld from pop until
// every one of those frames has drained (by either being written or
// coalesced away).
type statusEntry struct {
	msg     *protocol.StatusUpdate
	waitFor map[uint32]int
}

func (se *statusEntry) ready() bool {
	for _, n := range se.waitFor {
		if n > 0 {
			return false
		}
	}
	return true
}

func newOutboundQueue(depth int, metrics Metrics) *outboundQueue {
	if depth < 1 {
		depth = 1
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &outboundQueue{
		depth:   depth,
		frames:  make(map[uint32][]*protocol.Frame),
		metrics: metrics,
		signal:  make(chan struct{}, 1),
	}
}

func (q *outboundQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pushFrame enqueues a frame for windowID, coalescing (dropping the oldest
// pending frame for that window) if the per-window queue is already full.
func (q *outboundQueue) pushFrame(windowID uint32, frame *protocol.Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	pending, had := q.frames[windowID]
	if !had {
		q.order = append(q.order, windowID)
	}
	if len(pending) >= q.depth {
		pending = pending[1:]
		q.recordFrameDrained(windowID)
	}
	pending = append(pending, frame)
	q.frames[windowID] = pending
	q.metrics.SetQueueDepth(windowID, len(pending))
	q.wake()
}

// pushStatus enqueues a status message; never dropped, never coalesced, and
// held back until the frame backlog pending at push time has drained.
func (q *outboundQueue) pushStatus(s *protocol.StatusUpdate) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	wait := make(map[uint32]int, len(q.frames))
	for w, pending := range q.frames {
		if n := len(pending); n > 0 {
			wait[w] = n
		}
	}
	q.status = append(q.status, &statusEntry{msg: s, waitFor: wait})
	q.wake()
}

// recordFrameDrained notes that one frame belonging to windowID left the
// queue (written or coalesced away), advancing any status entry waiting on
// that window's backlog.
func (q *outboundQueue) recordFrameDrained(windowID uint32) {
	for _, se := range q.status {
		if n, ok := se.waitFor[windowID]; ok && n > 0 {
			se.waitFor[windowID] = n - 1
		}
	}
}

// pop returns the next message to write. The front status message is served
// as soon as it is ready (its pushed-before frame backlog has drained);
// until then, frames are served so that backlog keeps draining.
func (q *outboundQueue) pop() (protocol.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.status) > 0 && q.status[0].ready() {
		se := q.status[0]
		q.status = q.status[1:]
		return se.msg, true
	}
	for len(q.order) > 0 {
		windowID := q.order[0]
		pending := q.frames[windowID]
		if len(pending) == 0 {
			q.order = q.order[1:]
			delete(q.frames, windowID)
			continue
		}
		frame := pending[0]
		pending = pending[1:]
		if len(pending) == 0 {
			q.order = q.order[1:]
			delete(q.frames, windowID)
		} else {
			q.frames[windowID] = pending
			q.order = append(q.order[1:], windowID)
		}
		q.recordFrameDrained(windowID)
		q.metrics.SetQueueDepth(windowID, len(pending))
		return frame, true
	}
	return nil, false
}

func (q *outboundQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *outboundQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
