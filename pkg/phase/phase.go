// pkg/phase/phase.go - canonical Windows setup phase names.

package phase

import "strings"

// Canonical display names for the setup phases found in WaSetup telemetry.
const (
	Specialize   = "specialize"
	OobeSystem   = "oobeSystem"
	SetupCl      = "SetupCl"
	WinDeploy    = "WinDeploy"
	Setup        = "Setup"
	OobeLdr      = "OobeLdr"
	Provisioning = "provisioning"
	PaSetup      = "PaSetup"
)

// All lists every recognized phase.
var All = []string{
	Specialize,
	OobeSystem,
	SetupCl,
	WinDeploy,
	Setup,
	OobeLdr,
	Provisioning,
	PaSetup,
}

// SummaryColumns is the default column order of the per-machine report.
var SummaryColumns = []string{
	Specialize,
	OobeSystem,
	SetupCl,
	Setup,
	OobeLdr,
	Provisioning,
	PaSetup,
}

var byLower = func() map[string]string {
	m := make(map[string]string, len(All))
	for _, name := range All {
		m[strings.ToLower(name)] = name
	}
	return m
}()

// Canonical maps any spelling of a phase name ("oobesystem", "OOBESYSTEM",
// "oobeSystem") to its canonical display name. Unknown names return false.
func Canonical(name string) (string, bool) {
	canon, ok := byLower[strings.ToLower(strings.TrimSpace(name))]
	return canon, ok
}
