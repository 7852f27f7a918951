package session

import (
	"testing"

	"gshsdk/protocol"
)

func TestOutboundQueue_StatusNeverDropped(t *testing.T) {
	q := newOutboundQueue(1, nil)
	for i := 0; i < 10; i++ {
		q.pushStatus(&protocol.StatusUpdate{Code: int32(i)})
	}
	for i := 0; i < 10; i++ {
		msg, ok := q.pop()
		if !ok {
			t.Fatalf("expected status %d, queue empty", i)
		}
		su := msg.(*protocol.StatusUpdate)
		if su.Code != int32(i) {
			t.Fatalf("expected status in emission order: got code %d, want %d", su.Code, i)
		}
	}
}

func TestOutboundQueue_FrameCoalescing(t *testing.T) {
	q := newOutboundQueue(2, nil)
	for i := 0; i < 5; i++ {
		q.pushFrame(1, &protocol.Frame{WindowID: 1, Width: uint32(i)})
	}
	// Depth 2: only the last two pushes should survive.
	msg, ok := q.pop()
	if !ok {
		t.Fatal("expected a frame")
	}
	if f := msg.(*protocol.Frame); f.Width != 3 {
		t.Fatalf("expected oldest surviving frame width=3, got %d", f.Width)
	}
	msg, ok = q.pop()
	if !ok {
		t.Fatal("expected a second frame")
	}
	if f := msg.(*protocol.Frame); f.Width != 4 {
		t.Fatalf("expected newest frame width=4, got %d", f.Width)
	}
	if _, ok := q.pop(); ok {
		t.Fatal("expected queue to be drained")
	}
}

// TestOutboundQueue_StatusWaitsForOlderFrames is spec section 5's "EXIT is
// the last message written" and section 8 property 8: a status pushed after
// a frame must not overtake that still-unwritten, already-queued frame.
func TestOutboundQueue_StatusWaitsForOlderFrames(t *testing.T) {
	q := newOutboundQueue(4, nil)
	q.pushFrame(1, &protocol.Frame{WindowID: 1})
	q.pushStatus(&protocol.StatusUpdate{Level: protocol.StatusLevelExit})

	msg, ok := q.pop()
	if !ok {
		t.Fatal("expected the older frame first")
	}
	if _, ok := msg.(*protocol.Frame); !ok {
		t.Fatalf("expected the already-queued frame to precede the status, got %T", msg)
	}

	msg, ok = q.pop()
	if !ok {
		t.Fatal("expected the status once its older frame drained")
	}
	if _, ok := msg.(*protocol.StatusUpdate); !ok {
		t.Fatalf("expected status after its older frame drained, got %T", msg)
	}
}

// TestOutboundQueue_StatusPrecedesLaterFrames: a status with no pending
// backlog at push time still goes out ahead of frames pushed afterward.
func TestOutboundQueue_StatusPrecedesLaterFrames(t *testing.T) {
	q := newOutboundQueue(4, nil)
	q.pushStatus(&protocol.StatusUpdate{Code: 7})
	q.pushFrame(1, &protocol.Frame{WindowID: 1})

	msg, _ := q.pop()
	su, ok := msg.(*protocol.StatusUpdate)
	if !ok || su.Code != 7 {
		t.Fatalf("expected the status pushed before any frames to go out first, got %T", msg)
	}
}

// TestOutboundQueue_StatusDrainsCoalescedBacklog: a status pushed while a
// window's backlog is still at full depth must wait for coalescing, not
// just for writer drains, to retire that backlog.
func TestOutboundQueue_StatusDrainsCoalescedBacklog(t *testing.T) {
	q := newOutboundQueue(2, nil)
	q.pushFrame(1, &protocol.Frame{WindowID: 1, Width: 1})
	q.pushFrame(1, &protocol.Frame{WindowID: 1, Width: 2})
	q.pushStatus(&protocol.StatusUpdate{Level: protocol.StatusLevelExit})
	// Depth 2 already full: this push coalesces away the Width:1 frame.
	q.pushFrame(1, &protocol.Frame{WindowID: 1, Width: 3})

	msg, _ := q.pop()
	if f := msg.(*protocol.Frame); f.Width != 2 {
		t.Fatalf("expected the surviving older frame first, got width=%d", f.Width)
	}
	msg, _ = q.pop()
	if _, ok := msg.(*protocol.StatusUpdate); !ok {
		t.Fatalf("expected status once its pre-push backlog (1 frame) drained, got %T", msg)
	}
	msg, _ = q.pop()
	if f := msg.(*protocol.Frame); f.Width != 3 {
		t.Fatalf("expected the frame pushed after the status last, got %+v", f)
	}
}

func TestOutboundQueue_RoundRobinAcrossWindows(t *testing.T) {
	q := newOutboundQueue(4, nil)
	q.pushFrame(1, &protocol.Frame{WindowID: 1, Width: 1})
	q.pushFrame(2, &protocol.Frame{WindowID: 2, Width: 1})
	q.pushFrame(1, &protocol.Frame{WindowID: 1, Width: 2})

	msg, _ := q.pop()
	if f := msg.(*protocol.Frame); f.WindowID != 1 {
		t.Fatalf("expected window 1 first, got %d", f.WindowID)
	}
	msg, _ = q.pop()
	if f := msg.(*protocol.Frame); f.WindowID != 2 {
		t.Fatalf("expected window 2 second, got %d", f.WindowID)
	}
	msg, _ = q.pop()
	if f := msg.(*protocol.Frame); f.WindowID != 1 || f.Width != 2 {
		t.Fatalf("expected window 1's second frame last, got %+v", f)
	}
}
