package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"gshsdk/protocol"
	"gshsdk/transport"
)

type countingService struct {
	mu        sync.Mutex
	ticks     int
	exitCalls int
	lastExit  ExitReason
	hello     Hello
}

func (s *countingService) ServerHello() Hello { return s.hello }

func (s *countingService) OnTick(h *Handle) error {
	s.mu.Lock()
	s.ticks++
	n := s.ticks
	s.mu.Unlock()
	buf := make([]byte, 2*2*4)
	for i := range buf {
		buf[i] = byte(n)
	}
	return h.PublishFrame(1, 2, 2, buf)
}

func (s *countingService) OnExit(h *Handle, reason ExitReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCalls++
	s.lastExit = reason
}

func pipeStreams() (server, client transport.Stream, closeFn func()) {
	s, c := net.Pipe()
	return transport.NewTLSStream(s), transport.NewTLSStream(c), func() { s.Close(); c.Close() }
}

// TestLoop_ClientExit is spec section 8 scenario S6: the client sends
// StatusUpdate{EXIT}; the server writes StatusUpdate{EXIT} back and closes;
// on_exit(ClientExit) runs exactly once.
func TestLoop_ClientExit(t *testing.T) {
	serverStream, clientStream, closeFn := pipeStreams()
	defer closeFn()

	svc := &countingService{hello: Hello{
		Format:  protocol.FrameFormatRGBA,
		Windows: []protocol.Window{{WindowID: 1, Width: 2, Height: 2}},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- Serve(ctx, serverStream, nil, "sess-1", Config{TargetFPS: 200}, svc)
	}()

	clientCodec := protocol.NewCodec(clientStream)
	if err := clientCodec.Write(ctx, &protocol.ClientHello{ProtocolVersion: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := clientCodec.Read(ctx); err != nil { // ServerHelloAck
		t.Fatal(err)
	}

	// Drain a couple of frames to confirm the tick/encode/write path runs,
	// then tell the server to stop.
	for i := 0; i < 2; i++ {
		msg, err := clientCodec.Read(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := msg.(*protocol.Frame); !ok {
			t.Fatalf("expected a Frame, got %T", msg)
		}
	}

	if err := clientCodec.Write(ctx, &protocol.StatusUpdate{Level: protocol.StatusLevelExit}); err != nil {
		t.Fatal(err)
	}

	// Drain any remaining frames until the terminal EXIT status arrives.
	for {
		msg, err := clientCodec.Read(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if su, ok := msg.(*protocol.StatusUpdate); ok {
			if su.Level != protocol.StatusLevelExit {
				t.Fatalf("expected terminal EXIT status, got %+v", su)
			}
			break
		}
	}

	if err := <-serveErrCh; err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.exitCalls != 1 {
		t.Fatalf("expected on_exit exactly once, got %d", svc.exitCalls)
	}
	if svc.lastExit != ExitClientRequested {
		t.Fatalf("expected ExitClientRequested, got %v", svc.lastExit)
	}
}

// TestLoop_ServiceErrorSendsStatusAndCloses is spec section 4.5's
// "on_tick/on_input returns a fatal error" termination trigger.
func TestLoop_ServiceErrorSendsStatusAndCloses(t *testing.T) {
	serverStream, clientStream, closeFn := pipeStreams()
	defer closeFn()

	svc := &erroringService{hello: Hello{Windows: []protocol.Window{{WindowID: 1, Width: 2, Height: 2}}}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- Serve(ctx, serverStream, nil, "sess-2", Config{TargetFPS: 200}, svc)
	}()

	clientCodec := protocol.NewCodec(clientStream)
	if err := clientCodec.Write(ctx, &protocol.ClientHello{ProtocolVersion: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := clientCodec.Read(ctx); err != nil {
		t.Fatal(err)
	}

	msg, err := clientCodec.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	su, ok := msg.(*protocol.StatusUpdate)
	if !ok || su.Level != protocol.StatusLevelError {
		t.Fatalf("expected an ERROR status, got %+v", msg)
	}

	if err := <-serveErrCh; err == nil {
		t.Fatal("expected Serve to return the service error")
	}
}

type erroringService struct {
	hello Hello
}

func (s *erroringService) ServerHello() Hello { return s.hello }

func (s *erroringService) OnTick(h *Handle) error {
	return errBoom
}

var errBoom = &boomError{"producer exploded"}

type boomError struct{ msg string }

func (e *boomError) Error() string { return e.msg }
