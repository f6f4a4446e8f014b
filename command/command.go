// Package command defines the single-byte command protocol spoken by sleepd.
// A connection carries exactly one byte; the byte is classified against a
// process-wide magic value into either a Sleep or an Unknown command.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMagic is the byte that requests a host suspend unless configured otherwise.
const DefaultMagic byte = 0x77

// ErrInvalidByte is returned by ParseByte for input that is not a value in 0..255.
var ErrInvalidByte = errors.New("invalid command byte")

// Kind identifies the variant of a Command.
type Kind int

const (
	Unknown Kind = iota // Any byte other than the magic value
	Sleep               // The magic value; suspend the host
)

// String returns a lower-case name for the kind.
func (k Kind) String() string {
	switch k {
	case Sleep:
		return "sleep"
	default:
		return "unknown"
	}
}

// Command is the value derived from the one byte read off a connection.
type Command struct {
	Kind Kind
	// Raw is the byte that produced the command.
	Raw  byte
}

// Classify derives the command carried by b. It is Sleep if b equals magic and
// Unknown otherwise.
//
// Parameters:
//   - b: The byte read from the connection
//   - magic: The configured magic value
//
// Returns:
//   - The classified Command
func Classify(b, magic byte) Command {
	if b == magic {
		return Command{Kind: Sleep, Raw: b}
	}

	return Command{Kind: Unknown, Raw: b}
}

// String returns "sleep" or "unknown(0x05)".
func (c Command) String() string {
	if c.Kind == Sleep {
		return c.Kind.String()
	}

	return fmt.Sprintf("%s(%s)", c.Kind, Hex(c.Raw))
}

// Hex renders b as a two digit, 0x-prefixed hexadecimal string such as "0x05".
func Hex(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}

// ParseByte parses a byte value written in any base strconv understands with a
// prefix ("0x77", "0o167", "0b1110111") or in decimal ("119").
//
// Parameters:
//   - s: The textual byte value; surrounding whitespace is ignored
//
// Returns:
//   - The parsed byte
//   - An error wrapping ErrInvalidByte if s is empty, malformed or out of range
func ParseByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidByte)
	}

	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidByte, s)
	}

	return byte(v), nil
}
