// cmd/wasetupreport/main.go

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/wasetupreport/pkg/blocking"
	"github.com/windowsadmins/wasetupreport/pkg/config"
	"github.com/windowsadmins/wasetupreport/pkg/discovery"
	"github.com/windowsadmins/wasetupreport/pkg/filter"
	"github.com/windowsadmins/wasetupreport/pkg/logging"
	"github.com/windowsadmins/wasetupreport/pkg/report"
	"github.com/windowsadmins/wasetupreport/pkg/summary"
	"github.com/windowsadmins/wasetupreport/pkg/telemetry"
	"github.com/windowsadmins/wasetupreport/pkg/version"
)

var logger *logging.Logger

// options holds everything main parses from the command line.
type options struct {
	configPath  string
	output      string
	details     string
	showConfig  bool
	writeConfig string
	showVersion bool
	verbosity   int
	baseDir     string
	machines    *filter.MachineFilter
}

func main() {
	opts := options{machines: filter.NewMachineFilter(nil)}

	pflag.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file (default ./"+config.DefaultConfigFile+" if present).")
	pflag.StringVar(&opts.output, "output", "", "Report file to write, relative to the working directory.")
	pflag.StringVar(&opts.details, "details", "", "Also write every detailed timing record to this YAML file.")
	pflag.BoolVar(&opts.showConfig, "show-config", false, "Display the current configuration and exit.")
	pflag.StringVar(&opts.writeConfig, "write-config", "", "Write the effective configuration as YAML to this path and exit.")
	pflag.BoolVar(&opts.showVersion, "version", false, "Print the version and exit.")
	pflag.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv)")
	opts.machines.RegisterFlags()
	pflag.Usage = func() {
		fmt.Fprintf(os.Stdout, "Usage: wasetupreport [flags] [base-dir]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() > 1 {
		pflag.Usage()
		os.Exit(1)
	}
	if pflag.NArg() == 1 {
		opts.baseDir = pflag.Arg(0)
	}

	os.Exit(run(opts, os.Stdout))
}

// run executes one report run and returns the process exit code.
func run(opts options, out io.Writer) int {
	logger = logging.New(opts.verbosity > 0)
	logger.SetOutput(out)

	if opts.showVersion {
		if opts.verbosity > 0 {
			version.PrintFull(out)
		} else {
			version.Print(out)
		}
		return 0
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		return 1
	}
	if opts.baseDir != "" {
		cfg.BaseDir = opts.baseDir
	}
	if opts.output != "" {
		cfg.OutputFile = opts.output
	}

	// 0 => configured level, 1 => INFO, 2+ => DEBUG
	switch {
	case opts.verbosity == 1:
		cfg.LogLevel = "INFO"
	case opts.verbosity >= 2:
		cfg.LogLevel = "DEBUG"
	}

	if opts.showConfig {
		if cfgYaml, err := yaml.Marshal(cfg); err == nil {
			logger.Printf("Current configuration:\n%s", string(cfgYaml))
		}
		return 0
	}

	if opts.writeConfig != "" {
		if err := config.SaveConfig(cfg, opts.writeConfig); err != nil {
			logger.Error("Failed to write configuration: %v", err)
			return 1
		}
		logger.Success("Configuration written to %s", opts.writeConfig)
		return 0
	}

	// Structured entries echo to the console only with -v; progress and
	// failures are already printed through logger.
	var echo io.Writer
	if opts.verbosity > 0 {
		echo = out
	}
	if err := logging.Init(cfg, echo); err != nil {
		logger.Error("Error initializing logger: %v", err)
		return 1
	}
	defer logging.CloseLogger()
	if dir := logging.GetCurrentLogDir(); dir != "" {
		logger.Debug("Session %s logging to %s", logging.GetSessionID(), dir)
	}

	return generate(cfg, opts, out)
}

func generate(cfg *config.Configuration, opts options, out io.Writer) int {
	stats := logging.SessionSummary{BaseDir: cfg.BaseDir, OutputFile: cfg.OutputFile}

	logger.Printf("Searching for %s files in: %s", cfg.PrimaryLog, cfg.BaseDir)

	targets, err := discovery.NewScanner(cfg).Discover()
	if err != nil {
		logger.Error("Directory not accessible: %s", cfg.BaseDir)
		logger.Printf("Run with sufficient permissions, map the share first, or pass a local copy: wasetupreport \"C:\\path\\to\\copy\"")
		logging.Error("Base directory unavailable", "base_dir", cfg.BaseDir, "error", err)
		endSession("failed", stats)
		return 1
	}
	targets = opts.machines.Apply(targets)

	extractor := telemetry.NewExtractor(cfg.Zone())
	var records []telemetry.Record
	for _, target := range targets {
		stats.MachinesFound++
		if target.CompanionMs != nil {
			stats.CompanionLogsFound++
			logger.Printf("Processing: %s -> %s + %s (%v ms)", target.Machine, cfg.PrimaryLog, cfg.CompanionLog, *target.CompanionMs)
		} else {
			logger.Printf("Processing: %s -> %s (no %s)", target.Machine, cfg.PrimaryLog, cfg.CompanionLog)
		}

		recs := processTarget(extractor, target)
		if failed(recs) {
			stats.Errors++
			logger.Warning("Failed to process %s: %s", target.Machine, placeholderMessage(recs))
		}
		records = append(records, recs...)
	}
	stats.Records = len(records)

	logger.Printf("%s files found: %d", cfg.PrimaryLog, stats.MachinesFound)
	logger.Printf("%s files found: %d", cfg.CompanionLog, stats.CompanionLogsFound)
	logger.Printf("Processing errors: %d", stats.Errors)

	if len(records) == 0 {
		logger.Warning("No %s files found.", cfg.PrimaryLog)
		endSession("empty", stats)
		return 0
	}

	telemetry.SortRecords(records)
	rows := summary.Build(records, cfg.SummaryColumns)

	if opts.verbosity > 0 {
		if err := report.PrintTable(out, cfg.SummaryColumns, rows); err != nil {
			logging.Warn("Failed to render summary table", "error", err)
		}
	}

	if opts.details != "" {
		if err := report.WriteDetails(opts.details, cfg.BaseDir, records); err != nil {
			logger.Warning("Could not write details file %s: %v", opts.details, err)
		} else {
			logger.Printf("Detailed records written to %s", opts.details)
		}
	}

	if err := report.NewWriter(cfg).Write(rows); err != nil {
		if errors.Is(err, report.ErrOutputLocked) {
			logger.Warning("File %s is open. Please close it and run again.", cfg.OutputFile)
			if running := blocking.RunningApps(cfg.BlockingApps); len(running) > 0 {
				logger.Warning("Running applications that may hold it: %s", strings.Join(running, ", "))
			}
		} else {
			logger.Error("Failed to write report: %v", err)
		}
		logging.Error("Report not written", "path", cfg.OutputFile, "error", err)
		endSession("failed", stats)
		return 1
	}

	logger.Success("Report generated: %s", cfg.OutputFile)
	logger.Printf("%s files processed: %d", cfg.PrimaryLog, stats.MachinesFound-stats.Errors)
	logger.Printf("Files with errors: %d", stats.Errors)
	logger.Printf("Machines in report: %d", len(rows))
	logger.Printf("Sheet: %s", cfg.SheetName)

	endSession("completed", stats)
	return 0
}

// processTarget runs the extractor for one machine. A panic is turned into a
// single PARSE_ERROR record so the run continues.
func processTarget(x *telemetry.Extractor, target discovery.Target) (records []telemetry.Record) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Unexpected failure processing machine", "machine", target.Machine, "panic", r)
			records = []telemetry.Record{telemetry.ParseErrorRecord(target.Machine, fmt.Errorf("%v", r))}
		}
	}()
	return x.Extract(target.LogPath, target.Machine, target.CompanionMs)
}

func failed(records []telemetry.Record) bool {
	for _, r := range records {
		if r.Section == telemetry.SectionError || r.Section == telemetry.SectionParseError {
			return true
		}
	}
	return false
}

func placeholderMessage(records []telemetry.Record) string {
	for _, r := range records {
		if r.IsPlaceholder() && r.EndTimeRaw != nil {
			return *r.EndTimeRaw
		}
	}
	return ""
}

func endSession(status string, stats logging.SessionSummary) {
	if err := logging.EndSession(status, stats); err != nil {
		logging.Warn("Failed to write session summary", "error", err)
	}
}
