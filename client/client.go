// Package client sends sleepd commands: dial, write one byte, hang up.
package client

import (
	"fmt"
	"net"
	"time"
)

// Config holds the settings for reaching a sleepd server.
type Config struct {
	// Address is the "host:port" of the server (e.g. "192.168.1.20:8253").
	Address           string
	// ConnectionTimeout bounds establishing the connection; 0 means no timeout.
	ConnectionTimeout time.Duration
	// WriteTimeout bounds writing the command byte; 0 means no timeout.
	WriteTimeout      time.Duration
}

// DefaultConfig returns a Config for address with 10s connection and write
// timeouts.
//
// Parameters:
//   - address: The "host:port" of the server
//
// Returns:
//   - A Config with default timeouts
func DefaultConfig(address string) Config {
	return Config{
		Address:           address,
		ConnectionTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Client sends single-byte commands. Each Send uses a fresh connection, so a
// Client is safe for concurrent use.
type Client struct {
	config Config
	dialer net.Dialer
}

// New returns a Client for config.
func New(config Config) *Client {
	return &Client{
		config: config,
		dialer: net.Dialer{Timeout: config.ConnectionTimeout},
	}
}

// Send connects, writes b and closes the connection. The server never
// replies, so success only means the byte was handed to the network.
//
// Parameters:
//   - b: The command byte
//
// Returns:
//   - An error if dialing, setting the deadline or writing fails
func (c *Client) Send(b byte) error {
	conn, err := c.dialer.Dial("tcp", c.config.Address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.config.Address, err)
	}
	defer conn.Close()

	if c.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
			return err
		}
	}

	if _, err := conn.Write([]byte{b}); err != nil {
		return fmt.Errorf("failed to send command to %s: %w", c.config.Address, err)
	}

	return nil
}
