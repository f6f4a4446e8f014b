// Package config loads sleepd settings from defaults, an optional .env file,
// the environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/cyberinferno/sleepd/command"
	"github.com/cyberinferno/sleepd/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultAddr           = "0.0.0.0:8253"
	DefaultSuspendCommand = "systemctl suspend"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = logger.FormatConsole
	DefaultMaxConnBurst   = 1
)

// Environment variable names.
const (
	EnvAddr           = "SLEEPD_ADDR"
	EnvMagic          = "SLEEPD_MAGIC"
	EnvSuspendCommand = "SLEEPD_SUSPEND_COMMAND"
	EnvMaxConnRate    = "SLEEPD_MAX_CONN_RATE"
	EnvMaxConnBurst   = "SLEEPD_MAX_CONN_BURST"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvLogDir         = "LOG_DIR"
)

var (
	// ErrInvalidAddr is returned when the listen address is not host:port.
	ErrInvalidAddr = errors.New("invalid listen address")
	// ErrInvalidValue is returned for any other setting that fails validation.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config holds the daemon settings. It is read once at start and never
// changed afterwards.
type Config struct {
	// Addr is the "host:port" to listen on.
	Addr           string
	// Magic is the byte that requests a suspend.
	Magic          byte
	// SuspendCommand is the program and arguments run to suspend the host.
	SuspendCommand []string
	// MaxConnRate is the accepted connections per second; 0 means unlimited.
	MaxConnRate    float64
	// MaxConnBurst is the burst allowed above MaxConnRate.
	MaxConnBurst   int

	LogLevel  string
	LogFormat string
	// LogDir, when set, also writes daily log files there.
	LogDir    string
}

// Load builds a Config for a program called name from args (without the
// program name). A missing .env file is not an error.
//
// Parameters:
//   - name: Program name used in flag usage output
//   - args: Command-line arguments, usually os.Args[1:]
//
// Returns:
//   - The validated Config
//   - pflag.ErrHelp if -h was given, or an error describing the first bad value
func Load(name string, args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.parseFlags(name, args, os.Stderr); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv returns the defaults overridden by any environment variables set.
// It does not validate the result.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	loadEnvString(&cfg.Addr, EnvAddr, DefaultAddr)
	loadEnvString(&cfg.LogLevel, EnvLogLevel, DefaultLogLevel)
	loadEnvString(&cfg.LogFormat, EnvLogFormat, DefaultLogFormat)
	loadEnvString(&cfg.LogDir, EnvLogDir, "")

	var suspend string
	loadEnvString(&suspend, EnvSuspendCommand, DefaultSuspendCommand)
	cfg.SuspendCommand = strings.Fields(suspend)

	cfg.Magic = command.DefaultMagic
	if value := os.Getenv(EnvMagic); value != "" {
		magic, err := command.ParseByte(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvMagic, err)
		}
		cfg.Magic = magic
	}

	if err := loadEnvFloat(&cfg.MaxConnRate, EnvMaxConnRate, 0); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&cfg.MaxConnBurst, EnvMaxConnBurst, DefaultMaxConnBurst); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseFlags overrides cfg with any flags present in args.
func (c *Config) parseFlags(name string, args []string, output io.Writer) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)

	magic := command.Hex(c.Magic)
	suspend := strings.Join(c.SuspendCommand, " ")

	fs.StringVarP(&c.Addr, "addr", "a", c.Addr, "listen address (host:port)")
	fs.StringVarP(&magic, "magic", "m", magic, "command byte that suspends the host")
	fs.StringVar(&suspend, "suspend-command", suspend, "program and arguments run to suspend the host")
	fs.Float64Var(&c.MaxConnRate, "max-conn-rate", c.MaxConnRate, "accepted connections per second, 0 for unlimited")
	fs.IntVar(&c.MaxConnBurst, "max-conn-burst", c.MaxConnBurst, "connection burst above the rate limit")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "minimum log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format (console, json)")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "directory for daily log files")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", ErrInvalidValue, fs.Args())
	}

	if fs.Changed("magic") {
		b, err := command.ParseByte(magic)
		if err != nil {
			return fmt.Errorf("--magic: %w", err)
		}
		c.Magic = b
	}

	c.SuspendCommand = strings.Fields(suspend)
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	_, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidAddr, c.Addr, err)
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("%w %q: port must be 0-65535", ErrInvalidAddr, c.Addr)
	}

	if len(c.SuspendCommand) == 0 {
		return fmt.Errorf("%w: suspend command is empty", ErrInvalidValue)
	}

	if c.MaxConnRate < 0 {
		return fmt.Errorf("%w: max connection rate %v is negative", ErrInvalidValue, c.MaxConnRate)
	}

	if c.MaxConnBurst < 0 {
		return fmt.Errorf("%w: max connection burst %d is negative", ErrInvalidValue, c.MaxConnBurst)
	}

	if c.MaxConnRate > 0 && c.MaxConnBurst == 0 {
		return fmt.Errorf("%w: max connection burst must be at least 1 when a rate is set", ErrInvalidValue)
	}

	switch c.LogFormat {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidValue, c.LogFormat)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	return nil
}

func loadEnvString(target *string, key, defaultValue string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidValue, key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}
