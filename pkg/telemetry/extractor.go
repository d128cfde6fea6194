// pkg/telemetry/extractor.go - per-file extraction boundary.

package telemetry

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/windowsadmins/wasetupreport/pkg/logging"
	"github.com/windowsadmins/wasetupreport/pkg/timing"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Entry holds the raw timing fields of one phase as found in a log file.
type Entry struct {
	Phase     string
	StartTime *string
	EndTime   *string
	TickCount interface{} // string, json.Number or nil
}

// Source identifies which strategy produced a file's entries.
type Source string

const (
	SourceJSON Source = "json"
	SourceXML  Source = "xml"
)

// Extractor turns primary setup logs into Records.
type Extractor struct {
	Zone timing.Zone
}

// NewExtractor returns an Extractor that renders local times in zone.
func NewExtractor(zone timing.Zone) *Extractor {
	return &Extractor{Zone: zone}
}

// Extract reads the primary log at path and returns its records. It never
// returns an empty slice: a file with no phases yields a NO_DATA record and a
// file that cannot be read or parsed yields a single ERROR record.
// companionMs, when non-nil, is appended as a PaSetup record.
func (x *Extractor) Extract(path, machine string, companionMs *float64) []Record {
	raw, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Failed to read primary log", "machine", machine, "path", path, "error", err)
		return []Record{ErrorRecord(machine, err)}
	}
	return x.ExtractContent(raw, machine, companionMs)
}

// ExtractContent is Extract for content already in memory.
func (x *Extractor) ExtractContent(raw []byte, machine string, companionMs *float64) []Record {
	content, err := toUTF8(raw)
	if err != nil {
		logging.Warn("Failed to decode primary log", "machine", machine, "error", err)
		return []Record{ErrorRecord(machine, err)}
	}

	entries, source, err := findEntries(content)
	if err != nil {
		logging.Warn("Failed to parse primary log", "machine", machine, "error", err)
		return []Record{ErrorRecord(machine, err)}
	}
	logging.Debug("Extracted telemetry", "machine", machine, "source", string(source), "sections", len(entries))

	records := make([]Record, 0, len(entries)+1)
	for _, e := range entries {
		records = append(records, x.BuildRecord(machine, e))
	}
	if companionMs != nil {
		records = append(records, CompanionRecord(machine, *companionMs))
	}
	if len(records) == 0 {
		records = append(records, NoDataRecord(machine))
	}
	return records
}

// findEntries applies the embedded JSON strategy and falls back to the XML
// tree only when JSON produced nothing. Results are never merged.
func findEntries(content []byte) ([]Entry, Source, error) {
	entries, err := ExtractJSON(content)
	switch {
	case err == nil && len(entries) > 0:
		return entries, SourceJSON, nil
	case errors.Is(err, ErrNoTelemetryBlock):
		logging.Debug("No embedded TelemetryData; trying XML elements")
	case err != nil:
		logging.Warn("Embedded TelemetryData unreadable; trying XML elements", "error", err)
	}

	entries, err = ExtractXML(content)
	if err != nil {
		return nil, SourceXML, err
	}
	return entries, SourceXML, nil
}

// BuildRecord normalizes an Entry's raw fields into a Record.
func (x *Extractor) BuildRecord(machine string, e Entry) Record {
	var start, end time.Time
	if e.StartTime != nil {
		start, _ = timing.ParseTimestamp(*e.StartTime)
	}
	if e.EndTime != nil {
		end, _ = timing.ParseTimestamp(*e.EndTime)
	}

	durS, durMs := timing.ComputeDuration(start, end)
	tickMs, tickS := timing.ComputeTick(e.TickCount)

	return Record{
		Machine:              machine,
		Section:              e.Phase,
		StartTimePST:         x.Zone.Display(start),
		EndTimePST:           x.Zone.Display(end),
		DurationSeconds:      durS,
		DurationMilliseconds: durMs,
		TickCountMs:          tickMs,
		TickCountSeconds:     tickS,
		StartTimeRaw:         e.StartTime,
		EndTimeRaw:           e.EndTime,
	}
}

// toUTF8 strips a UTF-8 byte order mark and transcodes UTF-16 content that
// starts with one. Anything else is passed through as UTF-8.
func toUTF8(raw []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
	if err != nil {
		return nil, fmt.Errorf("decoding text: %w", err)
	}
	return out, nil
}
