// pkg/config/config.go - configuration settings for wasetupreport.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"
	"github.com/windowsadmins/wasetupreport/pkg/phase"
	"github.com/windowsadmins/wasetupreport/pkg/timing"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "wasetupreport.yaml"

// CurrentSchemaVersion is written by SaveConfig and assumed when a file omits it.
const CurrentSchemaVersion = "1.0"

// SupportedSchemas is the constraint config files must satisfy.
const SupportedSchemas = ">= 1.0, < 2.0"

// Configuration holds the configurable options for wasetupreport in YAML format
type Configuration struct {
	SchemaVersion string `yaml:"SchemaVersion"`

	BaseDir        string   `yaml:"BaseDir"`
	OutputFile     string   `yaml:"OutputFile"` // relative to the working directory
	SheetName      string   `yaml:"SheetName"`
	PantherFolders []string `yaml:"PantherFolders"` // tried in order, first existing directory wins
	PrimaryLog     string   `yaml:"PrimaryLog"`
	CompanionLog   string   `yaml:"CompanionLog"`

	TimezoneName        string  `yaml:"TimezoneName"`
	TimezoneOffsetHours float64 `yaml:"TimezoneOffsetHours"`

	SummaryColumns []string `yaml:"SummaryColumns"`
	BlockingApps   []string `yaml:"BlockingApps"` // processes reported when the output file is locked

	LogLevel string `yaml:"LogLevel"`
	LogDir   string `yaml:"LogDir"` // empty disables file logging
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		SchemaVersion:       CurrentSchemaVersion,
		BaseDir:             `C:\PanterLogs`,
		OutputFile:          "wasetup_report.xlsx",
		SheetName:           "WA_Setup_Report",
		PantherFolders:      []string{"panther", "panter", "Panther", "PANTHER", "Panter", "PANTER"},
		PrimaryLog:          "WaSetup.xml",
		CompanionLog:        "PASetup.log",
		TimezoneName:        "PST",
		TimezoneOffsetHours: -8,
		SummaryColumns:      append([]string(nil), phase.SummaryColumns...),
		BlockingApps:        []string{"EXCEL.EXE", "soffice.bin", "scalc.exe"},
		LogLevel:            "WARN",
	}
}

// LoadConfig loads the configuration from a YAML file on top of the defaults.
// An empty path means DefaultConfigFile, which may be absent; an explicit path must exist.
func LoadConfig(path string) (*Configuration, error) {
	config := GetDefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return config, nil
}

// SaveConfig writes the configuration as YAML.
func SaveConfig(config *Configuration, path string) error {
	if config.SchemaVersion == "" {
		config.SchemaVersion = CurrentSchemaVersion
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("serializing configuration: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the schema version and normalizes phase column names.
func (c *Configuration) Validate() error {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	v, err := version.NewVersion(c.SchemaVersion)
	if err != nil {
		return fmt.Errorf("SchemaVersion %q: %w", c.SchemaVersion, err)
	}
	constraint, err := version.NewConstraint(SupportedSchemas)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("SchemaVersion %s is not supported (want %s)", v, SupportedSchemas)
	}

	if len(c.SummaryColumns) == 0 {
		c.SummaryColumns = append([]string(nil), phase.SummaryColumns...)
	}
	seen := make(map[string]bool, len(c.SummaryColumns))
	for i, col := range c.SummaryColumns {
		canon, ok := phase.Canonical(col)
		if !ok {
			return fmt.Errorf("SummaryColumns: unknown phase %q", col)
		}
		if seen[canon] {
			return fmt.Errorf("SummaryColumns: duplicate phase %q", canon)
		}
		seen[canon] = true
		c.SummaryColumns[i] = canon
	}

	if len(c.PantherFolders) == 0 {
		return errors.New("PantherFolders must list at least one folder name")
	}
	if strings.TrimSpace(c.PrimaryLog) == "" {
		return errors.New("PrimaryLog must not be empty")
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return errors.New("OutputFile must not be empty")
	}
	if c.SheetName == "" {
		c.SheetName = "WA_Setup_Report"
	}
	if c.TimezoneOffsetHours < -14 || c.TimezoneOffsetHours > 14 {
		return fmt.Errorf("TimezoneOffsetHours %v out of range", c.TimezoneOffsetHours)
	}
	return nil
}

// Zone returns the display time zone described by the configuration.
func (c *Configuration) Zone() timing.Zone {
	offset := time.Duration(c.TimezoneOffsetHours * float64(time.Hour))
	return timing.NewZone(c.TimezoneName, offset)
}
