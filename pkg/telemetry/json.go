// pkg/telemetry/json.go - embedded <TelemetryData>{...}</TelemetryData> extraction.

package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/windowsadmins/wasetupreport/pkg/logging"
	"github.com/windowsadmins/wasetupreport/pkg/phase"
)

// ErrNoTelemetryBlock means the file has no embedded TelemetryData JSON.
var ErrNoTelemetryBlock = errors.New("no TelemetryData JSON block found")

var telemetryBlock = regexp.MustCompile(`(?s)<TelemetryData[^>]*>(\{.*?\})</TelemetryData>`)

// ExtractJSON finds the first embedded TelemetryData block and returns one
// Entry per recognized phase key, in document order. Unrecognized keys and
// keys whose value is not an object are skipped.
func ExtractJSON(content []byte) ([]Entry, error) {
	m := telemetryBlock.FindSubmatch(content)
	if m == nil {
		return nil, ErrNoTelemetryBlock
	}

	dec := json.NewDecoder(bytes.NewReader(m[1]))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decoding TelemetryData: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decoding TelemetryData: expected object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding TelemetryData: %w", err)
		}
		key, _ := keyTok.(string)

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding TelemetryData key %q: %w", key, err)
		}

		name, ok := phase.Canonical(key)
		if !ok {
			logging.Debug("Ignoring unrecognized telemetry section", "key", key)
			continue
		}
		fields, ok := value.(map[string]interface{})
		if !ok {
			logging.Debug("Ignoring telemetry section that is not an object", "key", key)
			continue
		}

		entries = append(entries, Entry{
			Phase:     name,
			StartTime: stringField(fields, "StartTime"),
			EndTime:   stringField(fields, "EndTime"),
			TickCount: lookupField(fields, "TickCount"),
		})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decoding TelemetryData: %w", err)
	}
	return entries, nil
}

// lookupField returns fields[name], falling back to a case-insensitive key match.
func lookupField(fields map[string]interface{}, name string) interface{} {
	if v, ok := fields[name]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func stringField(fields map[string]interface{}, name string) *string {
	switch v := lookupField(fields, name).(type) {
	case nil:
		return nil
	case string:
		return &v
	default:
		s := fmt.Sprint(v)
		return &s
	}
}
