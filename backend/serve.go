package backend

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/riftdata/pgwire/pkg/pglog"
	"github.com/riftdata/pgwire/wire"
)

var (
	// ErrServerClosed is the error value for a stopped server. No method
	// of Server returns it: Stop on an already-stopped Server returns nil.
	ErrServerClosed = errors.New("pgwire: server closed")
)

// Config configures a Server. Authenticate and Executor are required;
// Logger and Metrics default to the package logger and to no
// instrumentation respectively.
type Config struct {
	ListenAddr     string
	Authenticate   AuthPredicate
	Executor       Executor
	MaxConnections int
	Logger         pglog.Logger
	Metrics        *Metrics

	// OnQuery, if set, is called after every simple-query Query message
	// with the SQL text and the error (if any) reported to the client.
	// Tests use this to assert on query traffic without instrumenting
	// the Executor itself.
	OnQuery func(sql string, err error)
}

// Server accepts connections on a single listener and drives each
// through the fake postmaster's connection protocol, following the
// teacher's Proxy: an accept loop over a net.Listener, a WaitGroup
// tracking in-flight connections, and a context cancelled by Stop.
type Server struct {
	cfg Config

	listener net.Listener
	connWG   sync.WaitGroup
	connN    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewServer constructs a Server from cfg without binding a listener yet.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = pglog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{cfg: cfg, ctx: ctx, cancel: cancel}
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound; use Addr to learn
// the bound address (useful when ListenAddr is ":0").
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln
	s.connWG.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the listener's bound address, or nil if Start has not
// been called.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount returns the number of connections currently being
// served.
func (s *Server) ConnectionCount() int64 { return s.connN.Load() }

// Stop cancels the server context, closes the listener, and waits for the
// accept loop and every connection goroutine to exit. It does not close
// in-flight connections, so it returns only after each connected client
// has gone away. The returned error holds the listener's close error, if
// any.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	var result *multierror.Error
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.connWG.Wait()
	return result.ErrorOrNil()
}

func (s *Server) acceptLoop() {
	defer s.connWG.Done()
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.cfg.Logger.Warn("accept error", "err", err)
				continue
			}
		}
		if s.cfg.MaxConnections > 0 && s.connN.Load() >= int64(s.cfg.MaxConnections) {
			_ = nc.Close()
			continue
		}
		s.connWG.Add(1)
		go s.handleConn(nc)
	}
}

func (s *Server) handleConn(nc net.Conn) {
	defer s.connWG.Done()
	s.connN.Add(1)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ConnectionsTotal.Inc()
		s.cfg.Metrics.ConnectionsActive.Inc()
	}
	defer func() {
		s.connN.Add(-1)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ConnectionsActive.Dec()
		}
		_ = nc.Close()
	}()

	pid, secret, err := randomBackendKeyPair()
	if err != nil {
		s.cfg.Logger.Error("generating backend key pair", "err", err)
		return
	}
	conn := newConn(nc, pid, secret, s.cfg.Logger)

	authWrapped := s.cfg.Authenticate
	if authWrapped != nil && s.cfg.Metrics != nil {
		inner := authWrapped
		authWrapped = func(params ConnectionParams, hash string, salt wire.Byte4) bool {
			ok := inner(params, hash, salt)
			if !ok {
				s.cfg.Metrics.AuthFailuresTotal.Inc()
			}
			return ok
		}
	}

	if err := conn.Handshake(authWrapped); err != nil {
		s.cfg.Logger.Warn("handshake failed", "conn", conn.ID(), "err", err)
		return
	}
	s.cfg.Logger.Info("client authenticated", "conn", conn.ID(), "user", conn.Params().User, "database", conn.Params().Database)

	onQuery := s.cfg.OnQuery
	if s.cfg.Metrics != nil {
		metrics := s.cfg.Metrics
		wrapped := onQuery
		onQuery = func(sql string, err error) {
			metrics.QueriesTotal.Inc()
			if err != nil {
				metrics.QueryErrorsTotal.Inc()
			}
			if wrapped != nil {
				wrapped(sql, err)
			}
		}
	}

	if err := conn.Serve(s.ctx, s.cfg.Executor, onQuery); err != nil {
		s.cfg.Logger.Debug("connection ended", "conn", conn.ID(), "err", err)
	}
}

func randomBackendKeyPair() (pid, secret int32, err error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, 0, err
	}
	pid = int32(buf[0])<<24 | int32(buf[1])<<16 | int32(buf[2])<<8 | int32(buf[3])
	secret = int32(buf[4])<<24 | int32(buf[5])<<16 | int32(buf[6])<<8 | int32(buf[7])
	return pid, secret, nil
}
