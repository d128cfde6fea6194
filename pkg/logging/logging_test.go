package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR":   LevelError,
		"warn":    LevelWarn,
		"Warning": LevelWarn,
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestConsoleOnlyLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLoggerWithConfig(LoggerConfig{
		Component:     "test",
		Level:         LevelInfo,
		EnableConsole: true,
		Console:       &buf,
	})
	require.NoError(t, err)

	l.logMessage(LevelInfo, "Scanned machine folders", "machines", 3)
	l.logMessage(LevelDebug, "hidden")

	out := buf.String()
	assert.Contains(t, out, "INFO  Scanned machine folders machines=3")
	assert.NotContains(t, out, "hidden")
	assert.Empty(t, l.logDir)
	assert.NoError(t, l.EndSession("completed", SessionSummary{}))
}

func TestFileLogger(t *testing.T) {
	base := t.TempDir()
	l, err := newLoggerWithConfig(LoggerConfig{
		BaseDir:    base,
		SessionID:  "session-1",
		Component:  "test",
		Level:      LevelDebug,
		Retention:  DefaultRetentionPolicy(),
		EnableJSON: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, l.logDir)

	l.logMessage(LevelWarn, "Failed to read companion log", "machine", "VM-A")
	require.NoError(t, l.EndSession("completed", SessionSummary{MachinesFound: 2, Records: 5}))
	require.NoError(t, l.logFile.Close())
	require.NoError(t, l.jsonFile.Close())

	mainLog, err := os.ReadFile(filepath.Join(l.logDir, "wasetupreport.log"))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "WARN  Failed to read companion log machine=VM-A")

	f, err := os.Open(filepath.Join(l.logDir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var entry LogEntry
	require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "session-1", entry.SessionID)
	assert.Equal(t, "VM-A", entry.Properties["machine"])

	data, err := os.ReadFile(filepath.Join(l.logDir, "session.json"))
	require.NoError(t, err)
	var session LogSession
	require.NoError(t, json.Unmarshal(data, &session))
	assert.Equal(t, "completed", session.Status)
	assert.Equal(t, 2, session.Summary.MachinesFound)
}

func TestRetentionKeepsNewestRuns(t *testing.T) {
	base := t.TempDir()
	start := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		name := start.Add(time.Duration(i) * time.Minute).Format("2006-01-02-150405")
		require.NoError(t, os.MkdirAll(filepath.Join(base, name), 0755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(base, "keep-me"), 0755))

	l := &Logger{config: LoggerConfig{BaseDir: base, Retention: RetentionPolicy{KeepRuns: 3}}}
	l.performCleanup()

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Len(t, names, 3)
	assert.Contains(t, names, "keep-me")
	assert.Contains(t, names, start.Add(3*time.Minute).Format("2006-01-02-150405"))
}

func TestConsolePrinter(t *testing.T) {
	var buf bytes.Buffer
	l := New(false)
	l.SetOutput(&buf)

	l.Printf("Processing: %s", "VM-A")
	l.Debug("not shown")
	l.Warning("File %s is open.", "report.xlsx")

	out := buf.String()
	assert.Contains(t, out, "Processing: VM-A")
	assert.NotContains(t, out, "not shown")
	assert.True(t, strings.Contains(out, colorYellow+"["))
}
