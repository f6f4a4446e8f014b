package tcpserver

// TCPServerSession handles one accepted connection. The server creates a
// session per connection and runs Handle in its own goroutine.
type TCPServerSession interface {
	// ID returns the identifier assigned by the server.
	ID() uint32

	// Handle processes the connection. It runs until the session is done with
	// the connection and must release it before returning.
	Handle()

	// Close closes the underlying connection. It must be safe to call more
	// than once and concurrently with Handle.
	Close() error
}
