// pkg/telemetry/record.go - per-machine, per-phase timing records.

package telemetry

import (
	"fmt"
	"sort"

	"github.com/windowsadmins/wasetupreport/pkg/phase"
	"github.com/windowsadmins/wasetupreport/pkg/timing"
)

// Sentinel sections for files that produced no usable timing data.
const (
	SectionNoData     = "NO_DATA"
	SectionError      = "ERROR"
	SectionParseError = "PARSE_ERROR"
)

// Record is one timing observation for one (machine, phase) pair.
// Every field except Machine and Section may be nil.
type Record struct {
	Machine              string   `yaml:"machine" json:"machine"`
	Section              string   `yaml:"section" json:"section"`
	StartTimePST         *string  `yaml:"start_time_pst" json:"start_time_pst"`
	EndTimePST           *string  `yaml:"end_time_pst" json:"end_time_pst"`
	DurationSeconds      *float64 `yaml:"duration_s" json:"duration_s"`
	DurationMilliseconds *float64 `yaml:"duration_ms" json:"duration_ms"`
	TickCountMs          *float64 `yaml:"tick_count_ms" json:"tick_count_ms"`
	TickCountSeconds     *float64 `yaml:"tick_count_s" json:"tick_count_s"`
	StartTimeRaw         *string  `yaml:"start_time_utc_raw" json:"start_time_utc_raw"`
	EndTimeRaw           *string  `yaml:"end_time_utc_raw" json:"end_time_utc_raw"`
}

// IsPlaceholder reports whether the record stands in for a failed or empty file.
func (r Record) IsPlaceholder() bool {
	switch r.Section {
	case SectionNoData, SectionError, SectionParseError:
		return true
	}
	return false
}

// Milliseconds returns the value the summary uses for this record:
// DurationMilliseconds when present, else TickCountMs, else nil.
func (r Record) Milliseconds() *float64 {
	if r.DurationMilliseconds != nil {
		return r.DurationMilliseconds
	}
	return r.TickCountMs
}

// NoDataRecord is emitted when neither strategy found any phase.
func NoDataRecord(machine string) Record {
	msg := "No telemetry data found"
	return Record{Machine: machine, Section: SectionNoData, EndTimeRaw: &msg}
}

// ErrorRecord is emitted when the primary log could not be read or parsed.
func ErrorRecord(machine string, err error) Record {
	msg := fmt.Sprintf("Failed to parse: %v", err)
	return Record{Machine: machine, Section: SectionError, EndTimeRaw: &msg}
}

// ParseErrorRecord is emitted when processing a machine failed outside the extractor.
func ParseErrorRecord(machine string, err error) Record {
	msg := fmt.Sprintf("Parse error: %v", err)
	return Record{Machine: machine, Section: SectionParseError, EndTimeRaw: &msg}
}

// CompanionRecord is the synthetic PaSetup record built from the companion log.
// Only the duration fields are set.
func CompanionRecord(machine string, ms float64) Record {
	s, m := timing.FromMilliseconds(ms)
	return Record{
		Machine:              machine,
		Section:              phase.PaSetup,
		DurationSeconds:      s,
		DurationMilliseconds: m,
	}
}

// SortRecords orders records by (Machine, Section), keeping the relative
// order of records that compare equal.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Machine != records[j].Machine {
			return records[i].Machine < records[j].Machine
		}
		return records[i].Section < records[j].Section
	})
}
