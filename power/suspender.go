// Package power invokes the host's power management facility.
package power

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultSuspendCommand is the argv used to suspend a systemd host.
var DefaultSuspendCommand = []string{"systemctl", "suspend"}

// ErrEmptyCommand is returned when a CommandSuspender has no program to run.
var ErrEmptyCommand = errors.New("suspend command is empty")

// Suspender places the host into a low-power sleep state. Suspend blocks until
// the underlying facility returns, which for a real suspend is after the host
// has resumed.
type Suspender interface {
	Suspend() error
}

// CommandSuspender suspends the host by running an external program and
// waiting for it to exit.
type CommandSuspender struct {
	Name string
	Args []string
}

// NewCommandSuspender builds a CommandSuspender from an argv slice. An empty
// argv falls back to DefaultSuspendCommand.
//
// Parameters:
//   - argv: Program followed by its arguments (e.g. ["systemctl", "suspend"])
//
// Returns:
//   - A CommandSuspender ready to use
func NewCommandSuspender(argv []string) *CommandSuspender {
	if len(argv) == 0 {
		argv = DefaultSuspendCommand
	}

	return &CommandSuspender{
		Name: argv[0],
		Args: append([]string(nil), argv[1:]...),
	}
}

// Suspend runs the configured program synchronously. There is no timeout: the
// call lasts as long as the program does, including the time the host spends
// suspended.
//
// Returns:
//   - An error if the program cannot be started or exits non-zero; its
//     combined output is included when present
func (s *CommandSuspender) Suspend() error {
	if s.Name == "" {
		return ErrEmptyCommand
	}

	cmd := exec.Command(s.Name, s.Args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", s, err, msg)
		}

		return fmt.Errorf("%s failed: %w", s, err)
	}

	return nil
}

// String returns the command line as it would be typed in a shell.
func (s *CommandSuspender) String() string {
	return strings.TrimSpace(s.Name + " " + strings.Join(s.Args, " "))
}
