// Package logger provides the structured logging interface used across sleepd,
// backed by zerolog, with console, JSON and daily-rotated file outputs.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats accepted by Options.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Logger writes leveled, structured log entries. Derived loggers created with
// With carry their fields into every later entry.
type Logger interface {
	// Debug logs msg at debug level.
	Debug(msg string, fields ...Field)

	// Info logs msg at info level.
	Info(msg string, fields ...Field)

	// Warn logs msg at warn level.
	Warn(msg string, fields ...Field)

	// Error logs msg at error level.
	Error(msg string, fields ...Field)

	// With returns a Logger that adds fields to every entry. The receiver is
	// unchanged.
	With(fields ...Field) Logger

	// Close releases resources held by the logger, such as an open log file.
	// It is safe to call more than once.
	Close() error
}

// Options selects how New builds a Logger.
type Options struct {
	// Service is added as the "service" field of every entry.
	Service string
	// Level is the minimum level written.
	Level   zerolog.Level
	// Format is FormatConsole or FormatJSON. Empty means FormatConsole.
	Format  string
	// Dir, when set, additionally writes JSON entries to daily-rotated files
	// in this directory.
	Dir     string
	// Output is where console or JSON entries go. Nil means os.Stdout.
	Output  io.Writer
}

// zerologLogger is the zerolog-based implementation of Logger.
type zerologLogger struct {
	logger         zerolog.Logger
	fileWriter     *DailyFileWriter
	ownsFileWriter bool
}

// New builds a Logger from opts.
//
// Parameters:
//   - opts: Service name, level, format and optional log directory
//
// Returns:
//   - The Logger
//   - An error if the format is unknown or the log directory cannot be used
func New(opts Options) (Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	switch opts.Format {
	case "", FormatConsole:
		out = consoleWriter(out)
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.Dir == "" {
		return NewZerologLogger(zerolog.New(out), opts.Service, opts.Level), nil
	}

	fileWriter, err := openDailyFileWriter(opts.Service, opts.Dir)
	if err != nil {
		return nil, err
	}

	return newOwningLogger(io.MultiWriter(out, fileWriter), fileWriter, opts.Service, opts.Level), nil
}

// NewZerologLogger wraps l, adding the service name and a timestamp to every
// entry and filtering below level. No file is created.
//
// Parameters:
//   - l: The zerolog.Logger to wrap
//   - serviceName: Value of the "service" field
//   - level: Minimum level to log
//
// Returns:
//   - A Logger that writes through l
func NewZerologLogger(l zerolog.Logger, serviceName string, level zerolog.Level) Logger {
	return &zerologLogger{
		logger: l.With().Str("service", serviceName).Timestamp().Logger().Level(level),
	}
}

// NewConsoleLogger writes human-readable entries to w.
func NewConsoleLogger(w io.Writer, serviceName string, level zerolog.Level) Logger {
	return NewZerologLogger(zerolog.New(consoleWriter(w)), serviceName, level)
}

// NewZerologFileLogger writes JSON entries to stdout and to daily-rotated
// files named {serviceName}_{date}.log in logDir. It panics if logDir cannot
// be created or opened; use New to get an error instead.
func NewZerologFileLogger(serviceName string, logDir string, level zerolog.Level) Logger {
	fileWriter, err := openDailyFileWriter(serviceName, logDir)
	if err != nil {
		panic(err)
	}

	return newOwningLogger(io.MultiWriter(os.Stdout, fileWriter), fileWriter, serviceName, level)
}

// ParseLevel converts a level name such as "debug" or "WARN" to a zerolog
// level. An empty name is info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}

	return level, nil
}

func newOwningLogger(w io.Writer, fileWriter *DailyFileWriter, serviceName string, level zerolog.Level) Logger {
	return &zerologLogger{
		logger:         zerolog.New(w).With().Str("service", serviceName).Timestamp().Logger().Level(level),
		fileWriter:     fileWriter,
		ownsFileWriter: true,
	}
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

func openDailyFileWriter(serviceName, logDir string) (*DailyFileWriter, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileWriter, err := NewDailyFileWriter(serviceName, logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	return fileWriter, nil
}

// Debug implements Logger.
func (z *zerologLogger) Debug(msg string, fields ...Field) {
	z.logger.Debug().Fields(toMap(fields)).Msg(msg)
}

// Info implements Logger.
func (z *zerologLogger) Info(msg string, fields ...Field) {
	z.logger.Info().Fields(toMap(fields)).Msg(msg)
}

// Warn implements Logger.
func (z *zerologLogger) Warn(msg string, fields ...Field) {
	z.logger.Warn().Fields(toMap(fields)).Msg(msg)
}

// Error implements Logger.
func (z *zerologLogger) Error(msg string, fields ...Field) {
	z.logger.Error().Fields(toMap(fields)).Msg(msg)
}

// With implements Logger.
func (z *zerologLogger) With(fields ...Field) Logger {
	return &zerologLogger{
		logger:     z.logger.With().Fields(toMap(fields)).Logger(),
		fileWriter: z.fileWriter,
	}
}

// Close implements Logger.
func (z *zerologLogger) Close() error {
	if z.fileWriter != nil && z.ownsFileWriter {
		return z.fileWriter.Close()
	}

	return nil
}

func toMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}

	return m
}
