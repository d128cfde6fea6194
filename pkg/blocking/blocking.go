// pkg/blocking/blocking.go - finds running applications that may hold the report file open.

package blocking

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/windowsadmins/wasetupreport/pkg/logging"
)

// processNames lists the names of running processes. Tests replace it.
var processNames = func() ([]string, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// matches reports whether a process name refers to appName. A name ending in
// .exe must match exactly; otherwise the .exe suffix is optional.
func matches(processName, appName string) bool {
	processName = strings.ToLower(processName)
	appName = strings.ToLower(appName)
	if strings.HasSuffix(appName, ".exe") {
		return processName == appName
	}
	return processName == appName || processName == appName+".exe"
}

// RunningApps returns the subset of appNames that currently have a running
// process, in the order given. A failure to list processes yields nil.
func RunningApps(appNames []string) []string {
	if len(appNames) == 0 {
		return nil
	}

	names, err := processNames()
	if err != nil {
		logging.Error("Failed to get process list", "error", err)
		return nil
	}

	var running []string
	for _, app := range appNames {
		for _, name := range names {
			if matches(name, app) {
				logging.Debug("Found running application", "app", app, "process", name)
				running = append(running, app)
				break
			}
		}
	}
	return running
}
