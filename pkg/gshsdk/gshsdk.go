// Package gshsdk provides a small public surface for embedding a remote
// graphical-session server in another program. The implementation lives in
// the sibling protocol/transport/auth/encoder/session packages and may
// change without notice.
package gshsdk

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gshsdk/auth"
	"gshsdk/config"
	"gshsdk/metrics"
	"gshsdk/protocol"
	"gshsdk/session"
	"gshsdk/transport"
)

// --- Config ---

type Config = config.Config

func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// --- Session types re-exported for embedders implementing a Service ---

type (
	Service       = session.Service
	HelloService  = session.HelloService
	StartService  = session.StartService
	TickService   = session.TickService
	InputService  = session.InputService
	ResizeService = session.ResizeService
	ExitService   = session.ExitService
	Handle        = session.Handle
	Hello         = session.Hello
	ExitReason    = session.ExitReason
)

// Server accepts connections on the transport named by cfg.Listen.Transport
// and runs one session.Serve per connection, using newService to build a
// fresh Service instance per session.
type Server struct {
	cfg       *Config
	newService func() Service
	metrics   *metrics.Registry
	log       *zap.Logger
}

func NewServer(cfg *Config, newService func() Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, newService: newService, metrics: metrics.NewRegistry(), log: logger}
}

// Metrics exposes the server's registry so the caller can serve /metrics
// under its own mux, or rely on ServeMetrics below.
func (s *Server) Metrics() *metrics.Registry { return s.metrics }

// ServeMetrics runs the Prometheus endpoint named by cfg.Metrics.Addr until
// ctx is cancelled. It is a no-op if no address was configured.
func (s *Server) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.Addr == "" {
		return nil
	}
	return s.metrics.Serve(ctx, s.cfg.Metrics.Addr)
}

// Run accepts sessions until ctx is cancelled, blocking the caller.
func (s *Server) Run(ctx context.Context) error {
	cert, err := tls.LoadX509KeyPair(s.cfg.Listen.CertFile, s.cfg.Listen.KeyFile)
	if err != nil {
		return fmt.Errorf("gshsdk: load certificate: %w", err)
	}

	switch s.cfg.Listen.Transport {
	case config.TransportTLS:
		return s.runTLS(ctx, cert)
	case config.TransportQUIC:
		return s.runQUIC(ctx, cert)
	default:
		return fmt.Errorf("gshsdk: unsupported transport %q", s.cfg.Listen.Transport)
	}
}

func (s *Server) runTLS(ctx context.Context, cert tls.Certificate) error {
	ln, err := transport.ListenTLS(transport.TLSListenerConfig{Addr: s.cfg.Listen.Addr, Certificate: cert})
	if err != nil {
		return err
	}
	defer ln.Close()
	s.log.Info("listening", zap.String("transport", "tls"), zap.String("addr", s.cfg.Listen.Addr))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		stream, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handleSession(ctx, stream, nil, "tls")
	}
}

func (s *Server) runQUIC(ctx context.Context, cert tls.Certificate) error {
	ln, err := transport.ListenQUIC(transport.QUICListenerConfig{Addr: s.cfg.Listen.Addr, Certificate: cert})
	if err != nil {
		return err
	}
	defer ln.Close()
	s.log.Info("listening", zap.String("transport", "quic"), zap.String("addr", s.cfg.Listen.Addr))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		qsess, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handleQUICSession(ctx, qsess)
	}
}

func (s *Server) handleQUICSession(ctx context.Context, qsess *transport.QUICSession) {
	defer qsess.Close()
	control, err := qsess.Control(ctx)
	if err != nil {
		s.log.Warn("accept quic control stream failed", zap.Error(err))
		return
	}

	// A dedicated unidirectional stream carries Frame traffic so a frame
	// burst never head-of-line-blocks input/status on the control stream
	// (spec section 4.1). Its absence isn't fatal: fall back to the control
	// stream alone rather than drop the session.
	var frameStream transport.Stream
	if fs, err := qsess.OpenFrameStream(ctx); err != nil {
		s.log.Warn("open quic frame stream failed, falling back to control stream", zap.Error(err))
	} else {
		frameStream = fs
		defer fs.Close()
	}

	s.handleSession(ctx, control, frameStream, "quic")
}

func (s *Server) handleSession(ctx context.Context, stream transport.Stream, frameStream transport.Stream, transportName string) {
	defer stream.Close()

	sessionID := uuid.NewString()
	s.metrics.SessionStarted(transportName)

	svc := s.newService()
	verified := wrapForMetrics(svc, s.cfg.AuthKind(), s.metrics)

	cfg := session.Config{
		AuthMethod: s.cfg.AuthKind(),
		TargetFPS:  s.cfg.Session.TargetFPS,
		QueueDepth: s.cfg.Session.QueueDepth,
		Metrics:    s.metrics,
	}

	err := session.Serve(ctx, stream, frameStream, sessionID, cfg, verified)
	reason := "error"
	if err == nil {
		reason = "ok"
	}
	s.metrics.SessionEnded(reason)
	if err != nil {
		s.log.Info("session ended", zap.String("session_id", sessionID), zap.Error(err))
	} else {
		s.log.Info("session ended", zap.String("session_id", sessionID))
	}
}

// metricsService wraps a Service to observe auth outcomes without requiring
// every embedder to instrument their own VerifyPassword/VerifyPublicKey.
type metricsService struct {
	Service
	method  string
	metrics *metrics.Registry
}

func wrapForMetrics(svc Service, method protocol.AuthKind, reg *metrics.Registry) Service {
	return &metricsService{Service: svc, method: authMethodName(method), metrics: reg}
}

func authMethodName(k protocol.AuthKind) string {
	switch k {
	case protocol.AuthPassword:
		return "password"
	case protocol.AuthSignature:
		return "signature"
	default:
		return "none"
	}
}

func (m *metricsService) VerifyPassword(plaintext string) bool {
	pv, ok := m.Service.(auth.PasswordVerifier)
	ok2 := ok && pv.VerifyPassword(plaintext)
	m.metrics.AuthAttempt(m.method, ok2)
	return ok2
}

func (m *metricsService) VerifyPublicKey(pkDER []byte) bool {
	kv, ok := m.Service.(auth.PublicKeyVerifier)
	ok2 := ok && kv.VerifyPublicKey(pkDER)
	m.metrics.AuthAttempt(m.method, ok2)
	return ok2
}
