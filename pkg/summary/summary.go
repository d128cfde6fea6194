// pkg/summary/summary.go - folds detailed timing records into one row per machine.

package summary

import (
	"math"

	"github.com/windowsadmins/wasetupreport/pkg/telemetry"
	"github.com/windowsadmins/wasetupreport/pkg/timing"
)

// Row is one machine's line in the report. Values line up with the columns
// passed to Build; a nil value means the phase was never observed.
type Row struct {
	Machine string
	Values  []*float64
	Total   *float64
}

// Build groups records by machine in first-seen order. For each phase the
// record value is DurationMilliseconds, else TickCountMs, rounded to 3 places.
// A later record with a finite value replaces an earlier one for the same phase.
// Placeholder records still produce a row, with every value nil.
func Build(records []telemetry.Record, columns []string) []Row {
	var order []string
	byMachine := make(map[string]map[string]float64)

	for _, r := range records {
		phases, ok := byMachine[r.Machine]
		if !ok {
			phases = make(map[string]float64)
			byMachine[r.Machine] = phases
			order = append(order, r.Machine)
		}
		if ms := r.Milliseconds(); ms != nil && !math.IsNaN(*ms) && !math.IsInf(*ms, 0) {
			phases[r.Section] = timing.Round(*ms, 3)
		}
	}

	rows := make([]Row, 0, len(order))
	for _, machine := range order {
		rows = append(rows, newRow(machine, byMachine[machine], columns))
	}
	return rows
}

func newRow(machine string, phases map[string]float64, columns []string) Row {
	row := Row{Machine: machine, Values: make([]*float64, len(columns))}

	var sum float64
	populated := false
	for i, col := range columns {
		v, ok := phases[col]
		if !ok {
			continue
		}
		row.Values[i] = &v
		sum += v
		populated = true
	}
	if populated {
		total := timing.Round(sum, 3)
		row.Total = &total
	}
	return row
}

// Value returns the row value for column, or nil when the column is unknown
// or unpopulated.
func (r Row) Value(columns []string, column string) *float64 {
	for i, c := range columns {
		if c == column && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return nil
}
