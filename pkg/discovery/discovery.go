// pkg/discovery/discovery.go - locates per-machine Panther log folders under a base directory.

package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/windowsadmins/wasetupreport/pkg/config"
	"github.com/windowsadmins/wasetupreport/pkg/logging"
	"github.com/windowsadmins/wasetupreport/pkg/pasetup"
)

// ErrBaseDirUnavailable is returned when the base directory cannot be listed.
var ErrBaseDirUnavailable = errors.New("base directory not accessible")

// Target is one machine whose primary log was found.
type Target struct {
	Machine       string
	LogPath       string
	CompanionPath string   // empty when the machine has no companion log
	CompanionMs   *float64 // nil when absent or unreadable
}

// Scanner walks a base directory laid out as <base>/<machine>/<panther>/.
type Scanner struct {
	BaseDir        string
	PantherFolders []string
	PrimaryLog     string
	CompanionLog   string
}

// NewScanner builds a Scanner from the configuration.
func NewScanner(cfg *config.Configuration) *Scanner {
	return &Scanner{
		BaseDir:        cfg.BaseDir,
		PantherFolders: cfg.PantherFolders,
		PrimaryLog:     cfg.PrimaryLog,
		CompanionLog:   cfg.CompanionLog,
	}
}

// Discover returns one Target per machine directory that holds a primary log,
// in machine-name order. Machines without a Panther folder or primary log are
// skipped silently.
func (s *Scanner) Discover() ([]Target, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBaseDirUnavailable, s.BaseDir, err)
	}

	var targets []Target
	machines := 0
	for _, entry := range entries {
		machinePath := filepath.Join(s.BaseDir, entry.Name())
		if !isDir(machinePath) {
			continue
		}
		machines++

		target, ok, err := s.inspect(entry.Name(), machinePath)
		if err != nil {
			logging.Warn("Failed to inspect machine folder", "machine", entry.Name(), "error", err)
			continue
		}
		if ok {
			targets = append(targets, target)
		}
	}

	logging.Info("Scanned machine folders", "base_dir", s.BaseDir, "machines", machines, "with_logs", len(targets))
	return targets, nil
}

func (s *Scanner) inspect(machine, machinePath string) (Target, bool, error) {
	pantherPath, ok := s.findPantherFolder(machinePath)
	if !ok {
		logging.Debug("No Panther folder", "machine", machine)
		return Target{}, false, nil
	}

	logPath := filepath.Join(pantherPath, s.PrimaryLog)
	exists, err := fileExists(logPath)
	if err != nil {
		return Target{}, false, err
	}
	if !exists {
		logging.Debug("No primary log", "machine", machine, "path", logPath)
		return Target{}, false, nil
	}

	target := Target{Machine: machine, LogPath: logPath}
	if s.CompanionLog == "" {
		return target, true, nil
	}

	companionPath := filepath.Join(pantherPath, s.CompanionLog)
	if exists, _ := fileExists(companionPath); exists {
		target.CompanionPath = companionPath
		ms, err := pasetup.Scan(companionPath)
		if err != nil {
			logging.Warn("Failed to read companion log", "machine", machine, "path", companionPath, "error", err)
		}
		target.CompanionMs = ms
	}
	return target, true, nil
}

// findPantherFolder returns the first configured folder variant that is a directory.
func (s *Scanner) findPantherFolder(machinePath string) (string, bool) {
	for _, variant := range s.PantherFolders {
		p := filepath.Join(machinePath, variant)
		if isDir(p) {
			return p, true
		}
	}
	return "", false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
