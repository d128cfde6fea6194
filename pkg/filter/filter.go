// pkg/filter/filter.go - restricts a run to the machines named on the command line.

package filter

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/windowsadmins/wasetupreport/pkg/discovery"
	"github.com/windowsadmins/wasetupreport/pkg/logging"
)

// MachineFilter holds the --machine selection.
type MachineFilter struct {
	machines []string
	logger   *logging.Logger
}

// NewMachineFilter creates a new MachineFilter instance
func NewMachineFilter(logger *logging.Logger) *MachineFilter {
	return &MachineFilter{
		logger: logger,
	}
}

// RegisterFlags registers the --machine flag with pflag
func (f *MachineFilter) RegisterFlags() {
	f.RegisterFlagSet(pflag.CommandLine)
}

// RegisterFlagSet registers the --machine flag on fs.
func (f *MachineFilter) RegisterFlagSet(fs *pflag.FlagSet) {
	fs.StringSliceVar(
		&f.machines,
		"machine",
		nil,
		"Report only the specified machine folder name(s). "+
			"Can be repeated or given as a comma-separated list.",
	)
}

// SetMachines allows setting the filter programmatically
func (f *MachineFilter) SetMachines(machines []string) {
	f.machines = machines
}

// GetMachines returns the current filter
func (f *MachineFilter) GetMachines() []string {
	return f.machines
}

// HasFilter returns true if any machines are set in the filter
func (f *MachineFilter) HasFilter() bool {
	return len(f.machines) > 0
}

// Apply returns only the targets whose machine name appears in the filter,
// compared case-insensitively. Without a filter the targets are returned unchanged.
func (f *MachineFilter) Apply(targets []discovery.Target) []discovery.Target {
	if !f.HasFilter() {
		return targets
	}

	want := make(map[string]struct{}, len(f.machines))
	for _, m := range f.machines {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			want[m] = struct{}{}
		}
	}

	var filtered []discovery.Target
	for _, t := range targets {
		if _, ok := want[strings.ToLower(t.Machine)]; ok {
			filtered = append(filtered, t)
		}
	}

	if f.logger != nil {
		f.logger.Debug("Filtered machine list to %d of %d via --machine.", len(filtered), len(targets))
	}
	logging.Info("Applied machine filter", "requested", f.machines, "matched", len(filtered))
	return filtered
}
