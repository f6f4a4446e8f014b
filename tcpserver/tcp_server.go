// Package tcpserver accepts TCP connections and hands each one to its own
// session goroutine without waiting for it.
package tcpserver

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/cyberinferno/sleepd/logger"
	"golang.org/x/time/rate"
)

// NewSessionFunc creates the session for an accepted connection. It receives
// the id assigned by the server and takes ownership of conn.
type NewSessionFunc func(id uint32, conn net.Conn) TCPServerSession

// TCPServer binds Addr and runs an unbounded accept loop. Every accepted
// connection becomes a session running in its own goroutine; the accept loop
// never waits on a session.
type TCPServer struct {
	Logger     logger.Logger
	Name       string
	Addr       string
	Listener   net.Listener
	Running    atomic.Bool
	NewSession NewSessionFunc
	// Limiter caps the accept rate when set. Connections over the limit are
	// closed without creating a session. Nil means unlimited.
	Limiter    *rate.Limiter

	sessions *sessionRegistry
}

// NewTCPServer returns a server that is not yet listening.
//
// Parameters:
//   - name: Name used in log messages
//   - addr: "host:port" to bind
//   - log: Logger for server events
//   - newSession: Factory for per-connection sessions
//
// Returns:
//   - The server; call Start then Serve
func NewTCPServer(name, addr string, log logger.Logger, newSession NewSessionFunc) *TCPServer {
	return &TCPServer{
		Logger:     log,
		Name:       name,
		Addr:       addr,
		NewSession: newSession,
		sessions:   newSessionRegistry(),
	}
}

// Start binds Addr. It does not accept connections; call Serve for that.
//
// Returns:
//   - An error if the server is already running or the bind fails
func (s *TCPServer) Start() error {
	if s.Running.Load() {
		return fmt.Errorf("server %s already running", s.Name)
	}

	if s.sessions == nil {
		s.sessions = newSessionRegistry()
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("%s server failed to start", s.Name), logger.Field{Key: "error", Value: err})
		return fmt.Errorf("server %s failed to listen on %s: %w", s.Name, s.Addr, err)
	}

	s.Listener = ln
	s.Running.Store(true)

	fields := []logger.Field{{Key: "addr", Value: ln.Addr().String()}}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		fields = append(fields, logger.Field{Key: "port", Value: tcpAddr.Port})
	}

	s.Logger.Info(fmt.Sprintf("%s server listening", s.Name), fields...)
	return nil
}

// Serve runs the accept loop until Stop is called or Accept fails. An accept
// failure while running has no recovery and is returned to the caller.
//
// Returns:
//   - nil after Stop, otherwise the accept error
func (s *TCPServer) Serve() error {
	if s.Listener == nil {
		return fmt.Errorf("server %s not started", s.Name)
	}

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if !s.Running.Load() {
				return nil
			}

			s.Logger.Error(fmt.Sprintf("%s server accept error", s.Name), logger.Field{Key: "error", Value: err})
			return fmt.Errorf("server %s accept failed: %w", s.Name, err)
		}

		if s.Limiter != nil && !s.Limiter.Allow() {
			s.Logger.Warn("connection rate limit exceeded", logger.Field{Key: "remote", Value: conn.RemoteAddr().String()})
			_ = conn.Close()
			continue
		}

		s.dispatch(conn)
	}
}

func (s *TCPServer) dispatch(conn net.Conn) {
	id := s.sessions.nextID()
	session := s.NewSession(id, conn)
	s.sessions.add(session)

	s.Logger.Info("connection accepted",
		logger.Field{Key: "session", Value: id},
		logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
	)

	go func() {
		defer s.sessions.remove(id)
		session.Handle()
	}()
}

// Stop closes the listener, which makes Serve return, and closes every open
// session. Sessions blocked outside their connection keep running until they
// return on their own. Safe to call when the server is not running.
func (s *TCPServer) Stop() {
	if !s.Running.CompareAndSwap(true, false) {
		return
	}

	if s.Listener != nil {
		_ = s.Listener.Close()
	}

	s.sessions.closeAll()
	s.Logger.Info(fmt.Sprintf("%s server stopped", s.Name))
}

// BoundAddr returns the address the listener is bound to, or nil before Start.
func (s *TCPServer) BoundAddr() net.Addr {
	if s.Listener == nil {
		return nil
	}

	return s.Listener.Addr()
}

// GetSession returns the open session with the given id.
func (s *TCPServer) GetSession(id uint32) (TCPServerSession, bool) {
	return s.sessions.get(id)
}

// SessionCount returns the number of sessions still being handled.
func (s *TCPServer) SessionCount() int {
	return s.sessions.len()
}
