package processor

import (
	"net"
	"sync"

	"github.com/cyberinferno/sleepd/logger"
	"github.com/cyberinferno/sleepd/tcpserver"
)

// Session is the handler for one accepted connection. It owns the connection
// and closes it once the single command has been processed.
type Session struct {
	id        uint32
	conn      net.Conn
	processor *Processor
	log       logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewSession creates the session for conn. Its signature matches
// tcpserver.NewSessionFunc.
func (p *Processor) NewSession(id uint32, conn net.Conn) tcpserver.TCPServerSession {
	return &Session{
		id:        id,
		conn:      conn,
		processor: p,
		log: p.Logger.With(
			logger.Field{Key: "session", Value: id},
			logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
		),
	}
}

// ID implements tcpserver.TCPServerSession.
func (s *Session) ID() uint32 {
	return s.id
}

// Handle implements tcpserver.TCPServerSession. Failures end this session
// only; they are logged at debug level and never reach the server.
func (s *Session) Handle() {
	defer s.Close()

	cmd, err := s.processor.process(s.conn, s.log)
	if err != nil {
		s.log.Debug("connection aborted", logger.Field{Key: "error", Value: err.Error()})
		return
	}

	s.log.Debug("connection handled", logger.Field{Key: "command", Value: cmd.String()})
}

// Close implements tcpserver.TCPServerSession.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})

	return s.closeErr
}
