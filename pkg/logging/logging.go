// pkg/logging/logging.go - Leveled logging for wasetupreport
//
// Console output goes to stdout. When a log directory is configured each run
// also gets a timestamped subdirectory (YYYY-MM-DD-HHMMss) holding:
// - wasetupreport.log  plain text, one line per message
// - events.jsonl       one JSON object per message
// - session.json       run summary written by EndSession
// Older run directories are pruned according to the retention policy.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/windowsadmins/wasetupreport/pkg/config"
	"github.com/windowsadmins/wasetupreport/pkg/version"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config value such as "debug" or "WARN" to a LogLevel.
// Unknown values map to LevelInfo.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is one line of events.jsonl.
type LogEntry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	PID        int64                  `json:"pid"`
	Hostname   string                 `json:"hostname"`
	Version    string                 `json:"version"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// RetentionPolicy defines log retention rules
type RetentionPolicy struct {
	KeepRuns   int // Keep the newest N run directories
	MaxAgeDays int // Delete run directories older than this
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	BaseDir       string // Empty disables file logging
	SessionID     string
	Component     string
	Level         LogLevel
	Retention     RetentionPolicy
	EnableJSON    bool
	EnableConsole bool
	Console       io.Writer // Defaults to os.Stdout
}

// Logger encapsulates the logging state.
type Logger struct {
	mu           sync.RWMutex
	logger       *log.Logger
	logLevel     LogLevel
	logFile      *os.File
	jsonFile     *os.File
	config       LoggerConfig
	sessionStart time.Time
	logDir       string
	hostname     string
	version      string
}

var (
	instance *Logger
	once     sync.Once
)

// DefaultRetentionPolicy returns the default log retention.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		KeepRuns:   20,
		MaxAgeDays: 30,
	}
}

// Init initializes the singleton Logger from the tool configuration.
// It must be called before any logging functions are used. Entries are echoed
// to console when it is non-nil; otherwise they only reach the log files.
func Init(cfg *config.Configuration, console io.Writer) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLoggerWithConfig(LoggerConfig{
			BaseDir:       cfg.LogDir,
			SessionID:     generateSessionID(),
			Component:     "wasetupreport",
			Level:         ParseLevel(cfg.LogLevel),
			Retention:     DefaultRetentionPolicy(),
			EnableJSON:    true,
			EnableConsole: console != nil,
			Console:       console,
		})
	})
	return initErr
}

func generateSessionID() string {
	now := time.Now()
	return fmt.Sprintf("wasetupreport-%d-%s", now.Unix(), now.Format("2006-01-02-150405"))
}

func createTimestampedLogDir(baseDir string, sessionStart time.Time) (string, error) {
	logDir := filepath.Join(baseDir, sessionStart.Format("2006-01-02-150405"))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create timestamped log directory %s: %w", logDir, err)
	}
	return logDir, nil
}

func newLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		config:       cfg,
		sessionStart: time.Now(),
		hostname:     hostname,
		version:      version.Version().Version,
		logLevel:     cfg.Level,
	}

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	if cfg.BaseDir != "" {
		if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base log directory: %w", err)
		}
		l.performCleanup()

		logDir, err := createTimestampedLogDir(cfg.BaseDir, l.sessionStart)
		if err != nil {
			return nil, err
		}
		l.logDir = logDir
		if err := l.initializeLogFiles(); err != nil {
			return nil, err
		}
	}

	switch {
	case cfg.EnableConsole && l.logFile != nil:
		l.logger = log.New(io.MultiWriter(console, l.logFile), "", 0)
	case l.logFile != nil:
		l.logger = log.New(l.logFile, "", 0)
	case cfg.EnableConsole:
		l.logger = log.New(console, "", 0)
	default:
		l.logger = log.New(io.Discard, "", 0)
	}

	return l, nil
}

func (l *Logger) initializeLogFiles() error {
	var err error

	logFilePath := filepath.Join(l.logDir, "wasetupreport.log")
	l.logFile, err = os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open main log file: %w", err)
	}

	if l.config.EnableJSON {
		jsonPath := filepath.Join(l.logDir, "events.jsonl")
		l.jsonFile, err = os.OpenFile(jsonPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open JSON log file: %w", err)
		}
	}

	return nil
}

// performCleanup removes old run directories based on the retention policy
func (l *Logger) performCleanup() {
	baseDir := l.config.BaseDir
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return
	}

	var logDirs []os.DirEntry
	for _, entry := range entries {
		// YYYY-MM-DD-HHMMss
		if entry.IsDir() && len(entry.Name()) == 17 && strings.Count(entry.Name(), "-") == 3 {
			logDirs = append(logDirs, entry)
		}
	}

	// Newest first
	sort.Slice(logDirs, func(i, j int) bool {
		return logDirs[i].Name() > logDirs[j].Name()
	})

	retention := l.config.Retention
	toDelete := map[string]bool{}

	// Leave room for the run about to be created.
	if keep := retention.KeepRuns - 1; keep >= 0 && len(logDirs) > keep {
		for _, dir := range logDirs[keep:] {
			toDelete[dir.Name()] = true
		}
	}

	if retention.MaxAgeDays > 0 {
		maxAge := time.Duration(retention.MaxAgeDays) * 24 * time.Hour
		for _, dir := range logDirs {
			if info, err := dir.Info(); err == nil && time.Since(info.ModTime()) > maxAge {
				toDelete[dir.Name()] = true
			}
		}
	}

	for name := range toDelete {
		os.RemoveAll(filepath.Join(baseDir, name)) // best effort
	}
}

func (l *Logger) createLogEntry(level LogLevel, message string, properties map[string]interface{}) LogEntry {
	now := time.Now()
	return LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.config.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		Version:    l.version,
		SessionID:  l.config.SessionID,
		Properties: properties,
	}
}

// CloseLogger closes all log files if they're open.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()

	if instance.logFile != nil {
		if err := instance.logFile.Close(); err != nil {
			fmt.Printf("Failed to close main log file: %v\n", err)
		}
		instance.logFile = nil
	}
	if instance.jsonFile != nil {
		if err := instance.jsonFile.Close(); err != nil {
			fmt.Printf("Failed to close JSON log file: %v\n", err)
		}
		instance.jsonFile = nil
	}
}

func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.logLevel {
		return
	}

	properties := make(map[string]interface{})
	for i := 0; i+1 < len(keyValues); i += 2 {
		properties[fmt.Sprintf("%v", keyValues[i])] = keyValues[i+1]
	}

	entry := l.createLogEntry(level, message, properties)
	l.writeMainLog(entry, keyValues)

	if l.config.EnableJSON && l.jsonFile != nil {
		if data, err := json.Marshal(entry); err == nil {
			l.jsonFile.Write(append(data, '\n'))
		}
	}
}

// writeMainLog writes one plain text line: [ts] LEVEL message key=value ...
func (l *Logger) writeMainLog(entry LogEntry, keyValues []interface{}) {
	ts := time.Unix(entry.Time, 0).Format("2006-01-02 15:04:05")
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", ts, entry.Level, entry.Message)
	for i := 0; i+1 < len(keyValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyValues[i], keyValues[i+1])
	}
	l.logger.Println(b.String())
}

func logPackage(level LogLevel, message string, keyValues []interface{}) {
	if instance == nil {
		if level <= LevelWarn {
			fmt.Printf("LOGGING NOT INITIALIZED: %s %s %v\n", level.String(), message, keyValues)
		}
		return
	}
	instance.logMessage(level, message, keyValues...)
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	logPackage(LevelInfo, message, keyValues)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	logPackage(LevelDebug, message, keyValues)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	logPackage(LevelWarn, message, keyValues)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	logPackage(LevelError, message, keyValues)
}

// GetCurrentLogDir returns the current timestamped log directory, or "" when file logging is off.
func GetCurrentLogDir() string {
	if instance == nil {
		return ""
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.logDir
}

// GetSessionID returns the current session ID
func GetSessionID() string {
	if instance == nil {
		return ""
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.config.SessionID
}
