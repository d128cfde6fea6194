package report

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/wasetupreport/pkg/telemetry"
)

// Details is the YAML audit document holding every detailed record of a run.
type Details struct {
	Generated string             `yaml:"generated"`
	BaseDir   string             `yaml:"base_dir"`
	Records   []telemetry.Record `yaml:"records"`
}

// WriteDetails writes the detailed records to path as YAML. Records are
// expected to be sorted already.
func WriteDetails(path, baseDir string, records []telemetry.Record) error {
	doc := Details{
		Generated: time.Now().Format(time.RFC3339),
		BaseDir:   baseDir,
		Records:   records,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write details file: %w", err)
	}
	return nil
}
