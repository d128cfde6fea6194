// pkg/logging/console.go - colored console output for interactive runs.

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
)

// New creates a console Logger. Debug lines are only printed when verbose is set.
func New(verbose bool) *Logger {
	enableColors()

	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	return &Logger{
		logger:   log.New(os.Stdout, "", 0),
		logLevel: level,
	}
}

// SetOutput changes the output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
}

func (l *Logger) colorPrintf(color, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	l.logger.Printf("%s[%s] %s%s", color, ts, msg, colorReset)
}

// Printf prints a regular message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, v...))
}

// Success prints a success message in green.
func (l *Logger) Success(format string, v ...interface{}) {
	l.colorPrintf(colorGreen, format, v...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, v ...interface{}) {
	l.colorPrintf(colorRed, format, v...)
}

// Warning prints a warning message in yellow.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.colorPrintf(colorYellow, format, v...)
}

// Debug prints a debug message in blue when the logger is verbose.
func (l *Logger) Debug(format string, v ...interface{}) {
	if l.logLevel < LevelDebug {
		return
	}
	l.colorPrintf(colorBlue, format, v...)
}
