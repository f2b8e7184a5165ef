package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// Logger handles leveled logging with optional file output
type Logger struct {
	Verbose bool
	fields  logrus.Fields
	s       *sinks
}

// sinks is shared between a logger and the children created by Component.
type sinks struct {
	mu          sync.Mutex
	console     *logrus.Logger
	errors      *logrus.Logger
	file        *logrus.Logger
	fileLog     *os.File
	interactive bool
}

// New creates a new Logger writing to stdout and stderr
func New(verbose bool) *Logger {
	return NewWithWriter(verbose, os.Stdout, os.Stderr)
}

// NewWithWriter creates a Logger with explicit console writers.
func NewWithWriter(verbose bool, out, errOut io.Writer) *Logger {
	return &Logger{
		Verbose: verbose,
		s: &sinks{
			console: newLogrus(out, true),
			errors:  newLogrus(errOut, true),
		},
	}
}

func newLogrus(w io.Writer, colors bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&nested.Formatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldsOrder:     []string{"component", "session"},
		HideKeys:        true,
		NoColors:        !colors,
	})
	return l
}

// Component returns a child logger whose entries carry component=name.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// With returns a child logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{Verbose: l.Verbose, fields: fields, s: l.s}
}

// SetFileLog enables logging to a file
func (l *Logger) SetFileLog(path string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.s.fileLog = f
	l.s.file = newLogrus(f, false)
	return nil
}

// SetInteractive indicates that a full-screen UI owns the terminal.
// Console output is suppressed until it is switched off again.
func (l *Logger) SetInteractive(active bool) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.interactive = active
}

// Close closes the log file if open
func (l *Logger) Close() error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if l.s.fileLog != nil {
		err := l.s.fileLog.Close()
		l.s.fileLog = nil
		l.s.file = nil
		return err
	}
	return nil
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(logrus.InfoLevel, format, args...)
}

// Debug logs detailed messages only in verbose mode
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(logrus.DebugLevel, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(logrus.WarnLevel, format, args...)
}

// Error logs error messages to stderr
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(logrus.ErrorLevel, format, args...)
}

func (l *Logger) log(level logrus.Level, format string, args ...interface{}) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	msg := fmt.Sprintf(format, args...)

	// Always write to file if available, debug included
	if l.s.file != nil {
		l.s.file.WithFields(l.fields).Log(level, msg)
	}

	if l.s.interactive {
		return
	}
	switch {
	case level <= logrus.ErrorLevel:
		l.s.errors.WithFields(l.fields).Log(level, msg)
	case level == logrus.DebugLevel && !l.Verbose:
	default:
		l.s.console.WithFields(l.fields).Log(level, msg)
	}
}
