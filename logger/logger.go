// Package logger is the daemon's leveled file logger. The log file is kept
// to a bounded number of lines so a long-lived daemon never grows it without
// limit.
package logger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// MaxLogLines bounds the log file; older lines are discarded on rotation
const MaxLogLines = 5000

// LogLevel orders severities from most to least verbose
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = map[LogLevel]string{
	LogLevelTrace: "TRACE",
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a config string to a level, defaulting to info
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LimitedLogger writes timestamped leveled lines to a file, trimming the
// file back to MaxLogLines whenever it grows past the cap. It implements
// io.Writer so the stdlib log package can share the same file.
type LimitedLogger struct {
	mu    sync.Mutex
	file  *os.File
	lines int
	level LogLevel
}

// globalLogger backs the package-level functions once NewLimitedLogger has
// run; until then they fall back to stderr at info level.
var globalLogger *LimitedLogger

var stderrLogger = &LimitedLogger{file: os.Stderr, level: LogLevelInfo}

// NewLimitedLogger opens a logger on file and installs it as the global
// logger. The line count is taken from the file itself, so rotation carries
// across daemon restarts.
func NewLimitedLogger(file *os.File, level LogLevel) *LimitedLogger {
	ll := &LimitedLogger{file: file, level: level}
	ll.lines = ll.countLines()
	globalLogger = ll
	return ll
}

func current() *LimitedLogger {
	if globalLogger != nil {
		return globalLogger
	}
	return stderrLogger
}

// noop is shared so disabled tracing costs no allocation
var noop = func() {}

// Trace reports the duration of an operation at trace level:
//
//	defer logger.Trace("buffer.Sync")()
func Trace(name string) func() {
	ll := current()
	if !ll.enabled(LogLevelTrace) {
		return noop
	}
	start := time.Now()
	return func() {
		ll.printf(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

func Debug(format string, v ...any) { current().Debug(format, v...) }
func Info(format string, v ...any)  { current().Info(format, v...) }
func Warn(format string, v ...any)  { current().Warn(format, v...) }
func Error(format string, v ...any) { current().Error(format, v...) }

func (ll *LimitedLogger) Debug(format string, v ...any) { ll.printf(LogLevelDebug, format, v...) }
func (ll *LimitedLogger) Info(format string, v ...any)  { ll.printf(LogLevelInfo, format, v...) }
func (ll *LimitedLogger) Warn(format string, v ...any)  { ll.printf(LogLevelWarn, format, v...) }
func (ll *LimitedLogger) Error(format string, v ...any) { ll.printf(LogLevelError, format, v...) }

func (ll *LimitedLogger) enabled(level LogLevel) bool {
	return level >= ll.level
}

func (ll *LimitedLogger) printf(level LogLevel, format string, v ...any) {
	if !ll.enabled(level) {
		return
	}
	// Route through Write so line accounting sees every message
	msg := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

// Write implements io.Writer; every newline written counts toward rotation
func (ll *LimitedLogger) Write(p []byte) (int, error) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	n, err := ll.file.Write(p)
	if err != nil {
		return n, err
	}

	ll.lines += strings.Count(string(p), "\n")
	if ll.lines > MaxLogLines {
		ll.trim()
	}
	return n, err
}

// countLines scans the file once at startup, leaving the offset at the end
// for appending.
func (ll *LimitedLogger) countLines() int {
	ll.file.Seek(0, 0)
	scanner := bufio.NewScanner(ll.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	ll.file.Seek(0, 2)
	return count
}

// trim rewrites the file keeping only the newest MaxLogLines lines. Caller
// holds the mutex.
func (ll *LimitedLogger) trim() {
	ll.file.Seek(0, 0)
	scanner := bufio.NewScanner(ll.file)
	var kept []string
	for scanner.Scan() {
		kept = append(kept, scanner.Text())
	}
	if len(kept) > MaxLogLines {
		kept = kept[len(kept)-MaxLogLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, 0)
	for _, line := range kept {
		ll.file.WriteString(line + "\n")
	}
	ll.lines = len(kept)
}

// Close closes the underlying log file
func (ll *LimitedLogger) Close() error {
	return ll.file.Close()
}
