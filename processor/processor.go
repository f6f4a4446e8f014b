// Package processor turns the single byte read from a connection into a
// command and carries it out.
package processor

import (
	"fmt"
	"io"

	"github.com/cyberinferno/sleepd/command"
	"github.com/cyberinferno/sleepd/logger"
	"github.com/cyberinferno/sleepd/perfmonitor"
	"github.com/cyberinferno/sleepd/power"
)

// Processor reads one command byte and dispatches it. It holds no per
// connection state, so one Processor serves every connection concurrently.
type Processor struct {
	Logger    logger.Logger
	Magic     byte
	Suspender power.Suspender
}

// NewProcessor returns a Processor that suspends the host through suspender
// whenever it reads magic.
//
// Parameters:
//   - log: Logger for command events
//   - magic: The byte that requests a suspend
//   - suspender: The host power facility
//
// Returns:
//   - A Processor ready to use
func NewProcessor(log logger.Logger, magic byte, suspender power.Suspender) *Processor {
	return &Processor{
		Logger:    log,
		Magic:     magic,
		Suspender: suspender,
	}
}

// Process reads exactly one byte from r, classifies it and performs the
// action. Bytes after the first are never read and nothing is written back.
//
// For Sleep it logs, blocks in Suspender.Suspend for as long as the host is
// suspended, then logs again. For Unknown it logs the byte at error level.
//
// Parameters:
//   - r: The connection, or any reader standing in for it
//
// Returns:
//   - The command that was read; the zero Command if the read failed
//   - The read error, or the suspend error wrapped with context
func (p *Processor) Process(r io.Reader) (command.Command, error) {
	return p.process(r, p.Logger)
}

func (p *Processor) process(r io.Reader, log logger.Logger) (command.Command, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return command.Command{}, err
	}

	cmd := command.Classify(buf[0], p.Magic)
	switch cmd.Kind {
	case command.Sleep:
		if err := p.sleep(log); err != nil {
			return cmd, err
		}
	default:
		hex := command.Hex(cmd.Raw)
		log.Error(fmt.Sprintf("unknown command: %s", hex), logger.Field{Key: "command", Value: hex})
	}

	return cmd, nil
}

func (p *Processor) sleep(log logger.Logger) error {
	log.Info("putting the server to sleep")

	monitor := perfmonitor.NewPerformanceMonitor()
	monitor.Start()
	if err := p.Suspender.Suspend(); err != nil {
		return fmt.Errorf("suspend failed: %w", err)
	}
	monitor.Stop()

	log.Info("server is now awake", logger.Field{Key: "slept_ms", Value: monitor.ElapsedMilliseconds()})
	return nil
}
