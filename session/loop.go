package session

import (
	"context"
	"time"

	"gshsdk/auth"
	"gshsdk/encoder"
	"gshsdk/gsherr"
	"gshsdk/protocol"
	"gshsdk/transport"
)

// Config tunes the steady-state loop. Zero values are replaced by the
// defaults spec section 4.5 names.
type Config struct {
	AuthMethod protocol.AuthKind
	TargetFPS  int
	QueueDepth int
	// Metrics observes frame throughput and queue depth; nil disables it.
	Metrics Metrics
}

const (
	defaultTargetFPS  = 60
	defaultQueueDepth = 4
	finalWriteDeadline = 100 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.TargetFPS == 0 {
		c.TargetFPS = defaultTargetFPS
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = defaultQueueDepth
	}
	return c
}

// Serve runs one full session on stream: handshake (component H), then the
// steady-state loop, until termination. Once the loop has started, it returns
// only after on_exit has run and the transport can be closed by the caller;
// a handshake or encoder setup failure returns without calling on_exit.
//
// frameStream, when non-nil, is a second, send-only stream Frame messages
// are routed to instead of stream — the additional unidirectional QUIC
// stream spec section 4.1 calls for so frame bursts never head-of-line-block
// control traffic (handshake, input, status). TLS sessions have no such
// second stream and pass nil; everything then flows over stream as before.
func Serve(ctx context.Context, stream transport.Stream, frameStream transport.Stream, sessionID string, cfg Config, svc Service) error {
	cfg = cfg.withDefaults()
	codec := protocol.NewCodec(stream)
	frameCodec := codec
	if frameStream != nil {
		frameCodec = protocol.NewCodec(frameStream)
	}

	hello := defaultHello()
	if hs, ok := svc.(HelloService); ok {
		hello = hs.ServerHello()
	}

	if _, err := auth.Run(ctx, codec, auth.Config{Method: cfg.AuthMethod}, auth.Hello{
		Format:      hello.Format,
		Compression: hello.Compression,
		Windows:     hello.Windows,
	}, resolveVerifier(svc)); err != nil {
		return err
	}

	enc, err := encoder.New(hello.Format, hello.Compression)
	if err != nil {
		return err
	}

	queue := newOutboundQueue(cfg.QueueDepth, cfg.Metrics)
	handle := &Handle{sessionID: sessionID, windows: hello.Windows, enc: enc, queue: queue}

	// The writer runs on its own context, independent of loopCtx: when the
	// session is told to terminate it still needs a chance to flush the
	// final EXIT status, even if that termination came from ctx itself
	// being cancelled (spec section 5's cancellation paragraph).
	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	writerCtx, cancelWriter := context.WithCancel(context.Background())
	defer cancelWriter()

	inputCh := make(chan *protocol.UserInput, 1)
	clientStatusCh := make(chan *protocol.StatusUpdate, 1)
	readErrCh := make(chan error, 1)
	tickCh := make(chan struct{}, 1)
	writerDone := make(chan struct{})

	go runReader(loopCtx, codec, inputCh, clientStatusCh, readErrCh)
	go runTicker(loopCtx, cfg.TargetFPS, tickCh)
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	go runWriter(writerCtx, codec, frameCodec, queue, writerDone, metrics)

	if ss, ok := svc.(StartService); ok {
		ss.OnStart(handle)
	}

	finalize := func(reason ExitReason, writeFinalExit bool) {
		if es, ok := svc.(ExitService); ok {
			es.OnExit(handle, reason)
		}
		cancelLoop()
		if writeFinalExit {
			handle.SendStatus(protocol.StatusLevelExit, 0, "")
		}
		queue.close()
		select {
		case <-writerDone:
		case <-time.After(finalWriteDeadline):
			cancelWriter()
		}
	}

	for {
		select {
		case <-ctx.Done():
			finalize(ExitTransportError, true)
			return ctx.Err()

		case err := <-readErrCh:
			finalize(ExitTransportError, false)
			return err

		case su := <-clientStatusCh:
			if su.Level == protocol.StatusLevelExit {
				finalize(ExitClientRequested, true)
				return nil
			}
			// Other inbound status levels (info/warning/error) are reported
			// by the client but carry no core-mandated reaction.

		case input := <-inputCh:
			if is, ok := svc.(InputService); ok {
				if err := is.OnInput(handle, input); err != nil {
					handle.SendStatus(protocol.StatusLevelError, errorCode(err), err.Error())
					finalize(ExitServiceError, false)
					return err
				}
			}
			if input.Variant == protocol.UserInputWindow && input.Window != nil && input.Window.Action == protocol.WindowActionResize {
				w, h := input.Window.W, input.Window.H
				handle.invalidateWindow(input.WindowID)
				if rs, ok := svc.(ResizeService); ok {
					rs.OnResize(handle, input.WindowID, w, h)
				}
			}

		case <-tickCh:
			if ts, ok := svc.(TickService); ok {
				if err := ts.OnTick(handle); err != nil {
					handle.SendStatus(protocol.StatusLevelError, errorCode(err), err.Error())
					finalize(ExitServiceError, false)
					return err
				}
			}
		}
	}
}

func runReader(ctx context.Context, codec *protocol.Codec, inputCh chan<- *protocol.UserInput, statusCh chan<- *protocol.StatusUpdate, errCh chan<- error) {
	for {
		msg, err := codec.Read(ctx)
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			return
		}
		switch m := msg.(type) {
		case *protocol.UserInput:
			select {
			case inputCh <- m:
			case <-ctx.Done():
				return
			}
		case *protocol.StatusUpdate:
			select {
			case statusCh <- m:
			case <-ctx.Done():
				return
			}
		default:
			// Any other message kind after handshake is out of protocol but
			// not fatal on its own; the core simply ignores it.
		}
	}
}

// runWriter drains queue onto codec, except Frame messages, which go out on
// frameCodec instead (frameCodec == codec when the session has no separate
// frame stream). metrics observes each frame actually written to the wire.
func runWriter(ctx context.Context, codec, frameCodec *protocol.Codec, queue *outboundQueue, done chan<- struct{}, metrics Metrics) {
	defer close(done)
	for {
		msg, ok := queue.pop()
		if ok {
			if frame, isFrame := msg.(*protocol.Frame); isFrame {
				body := protocol.Marshal(frame)
				if err := frameCodec.Write(ctx, frame); err != nil {
					return
				}
				metrics.FrameSent(frame.WindowID, len(body))
				continue
			}
			if err := codec.Write(ctx, msg); err != nil {
				return
			}
			continue
		}
		if queue.isClosed() {
			return
		}
		select {
		case <-queue.signal:
		case <-ctx.Done():
			return
		}
	}
}

// errorCode extracts a service error code when err is a *gsherr.Error built
// via gsherr.WithCode, and 0 otherwise.
func errorCode(err error) int32 {
	if e, ok := err.(*gsherr.Error); ok {
		return int32(e.Code)
	}
	return 0
}
