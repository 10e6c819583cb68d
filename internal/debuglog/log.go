package debuglog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown values map to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF", "NONE":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu           sync.Mutex
	currentLevel = LevelOff
	logger       *log.Logger
	logFile      *os.File
)

// DefaultPath is where logs go when Setup is given no file.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".radar", "radar.log")
}

// Setup configures the logging system with the specified level and optional file path.
// If filePath is empty, DefaultPath is used.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	if level == LevelOff {
		return nil
	}

	logPath := DefaultPath()
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	logFile = f
	logger = log.New(f, "radar ", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// SetOutput routes log lines to w at the given level. Used by the HTTP server
// to log to stderr and by tests to capture output.
func SetOutput(level LogLevel, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	if level == LevelOff || w == nil {
		return
	}
	logger = log.New(w, "radar ", log.LstdFlags|log.Lmicroseconds)
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	currentLevel = level
	mu.Unlock()
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.Lock()
	defer mu.Unlock()
	return currentLevel
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func logf(level LogLevel, suffix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < currentLevel || logger == nil {
		return
	}
	logger.Printf("[%s] %s%s", level, fmt.Sprintf(format, args...), suffix)
}

func Debugf(format string, args ...any) { logf(LevelDebug, "", format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, "", format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, "", format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, "", format, args...) }

// Fields is a set of key/value pairs appended to a log line.
type Fields map[string]any

// FieldLogger appends a fixed set of fields to every message.
type FieldLogger struct {
	suffix string
}

// WithFields returns a logger that renders fields as " [k=v ...]" in key order.
func WithFields(fields Fields) *FieldLogger {
	if len(fields) == 0 {
		return &FieldLogger{}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return &FieldLogger{suffix: " [" + strings.Join(parts, " ") + "]"}
}

func (fl *FieldLogger) Debugf(format string, args ...any) { logf(LevelDebug, fl.suffix, format, args...) }
func (fl *FieldLogger) Infof(format string, args ...any)  { logf(LevelInfo, fl.suffix, format, args...) }
func (fl *FieldLogger) Warnf(format string, args ...any)  { logf(LevelWarn, fl.suffix, format, args...) }
func (fl *FieldLogger) Errorf(format string, args ...any) { logf(LevelError, fl.suffix, format, args...) }
