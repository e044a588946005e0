// Package logging provides leveled, optionally colored console logging with
// an optional plain-text file sink, built on logrus.
//
// Every line has the form "2006-01-02 15:04:05 [LEVEL] message". ERROR lines
// go to stderr, everything else to stdout. The file sink never carries ANSI
// codes.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/term"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	labelKey   = "label" // overrides the level name, e.g. SUCCESS
)

// Logger is the leveled logger handed to every package that reports progress.
type Logger struct {
	base *logrus.Logger
	file *os.File
}

// NewLogger configures terminal colors from cfg and optionally opens
// cfg.LogFile for appending. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	color := term.Configure(cfg.ColorMode)
	l := newLogger(os.Stdout, os.Stderr, color, cfg.Verbose)

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, errors.Wrap(err, "create log directory")
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		l.file = f
		l.base.AddHook(&writerHook{out: f, formatter: &lineFormatter{}})
	}
	return l, nil
}

// New returns an uncolored logger writing to stdout and stderr. Tests use it
// with buffers.
func New(stdout, stderr io.Writer, verbose bool) *Logger {
	return newLogger(stdout, stderr, false, verbose)
}

func newLogger(stdout, stderr io.Writer, color, verbose bool) *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard) // all output goes through hooks
	base.SetLevel(logrus.InfoLevel)
	if verbose {
		base.SetLevel(logrus.DebugLevel)
	}
	base.AddHook(&writerHook{
		out:       stdout,
		errOut:    stderr,
		formatter: &lineFormatter{color: color},
	})
	return &Logger{base: base}
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Verbose reports whether DEBUG lines are emitted.
func (l *Logger) Verbose() bool { return l.base.IsLevelEnabled(logrus.DebugLevel) }

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.base.Info(fmt.Sprintf(format, args...))
}

// Success logs at INFO severity with a SUCCESS label (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.base.WithField(labelKey, "SUCCESS").Info(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.base.Warn(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.base.Error(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan); a no-op unless verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.base.Debug(fmt.Sprintf(format, args...))
}

// lineFormatter renders "ts [LEVEL] msg", coloring only the bracketed label.
type lineFormatter struct {
	color bool
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	label, color := levelLabel(e)
	tag := "[" + label + "]"
	if f.color {
		tag = term.Paint(color, tag)
	}
	return []byte(e.Time.Format(timeLayout) + " " + tag + " " + e.Message + "\n"), nil
}

func levelLabel(e *logrus.Entry) (string, string) {
	if v, ok := e.Data[labelKey].(string); ok && v == "SUCCESS" {
		return v, term.Green
	}
	switch e.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBUG", term.Cyan
	case logrus.WarnLevel:
		return "WARN", term.Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return "ERROR", term.Red
	default:
		return "INFO", term.Blue
	}
}

// writerHook writes formatted entries to out. When errOut is set, ERROR and
// above go there instead.
type writerHook struct {
	mu        sync.Mutex
	out       io.Writer
	errOut    io.Writer
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *writerHook) Fire(e *logrus.Entry) error {
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	w := h.out
	if h.errOut != nil && e.Level <= logrus.ErrorLevel {
		w = h.errOut
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = w.Write(line)
	return err
}
