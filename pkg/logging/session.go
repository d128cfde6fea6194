// pkg/logging/session.go - per-run summary written next to the run's log files

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionSummary provides high-level run metrics
type SessionSummary struct {
	BaseDir            string `json:"base_dir"`
	MachinesFound      int    `json:"machines_found"`
	CompanionLogsFound int    `json:"companion_logs_found"`
	Errors             int    `json:"errors"`
	Records            int    `json:"records"`
	OutputFile         string `json:"output_file,omitempty"`
}

// LogSession is the content of session.json
type LogSession struct {
	SessionID string         `json:"session_id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  string         `json:"duration"`
	Status    string         `json:"status"` // completed, failed, empty
	Hostname  string         `json:"hostname"`
	Version   string         `json:"version"`
	Summary   SessionSummary `json:"summary"`
}

// EndSession writes session.json for the current run. It is a no-op when file logging is off.
func EndSession(status string, summary SessionSummary) error {
	if instance == nil {
		return fmt.Errorf("logging not initialized")
	}
	return instance.EndSession(status, summary)
}

// EndSession writes session.json for this logger's run directory.
func (l *Logger) EndSession(status string, summary SessionSummary) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.logDir == "" {
		return nil
	}

	end := time.Now()
	session := LogSession{
		SessionID: l.config.SessionID,
		StartTime: l.sessionStart,
		EndTime:   end,
		Duration:  end.Sub(l.sessionStart).Round(time.Millisecond).String(),
		Status:    status,
		Hostname:  l.hostname,
		Version:   l.version,
		Summary:   summary,
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(l.logDir, "session.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
