// pkg/version/version.go - build information for wasetupreport.

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// These values are private which ensures they can only be set with the build flags:
//
//	-ldflags "-X github.com/windowsadmins/wasetupreport/pkg/version.version=2025.10.1"
var (
	version   = "unknown"
	branch    = "unknown"
	revision  = "unknown"
	buildDate = "unknown"
	appName   = "wasetupreport"
)

// Info is a structure with version build information about the current application.
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	GoVersion string `json:"go_version"`
	BuildDate string `json:"build_date"`
}

// Version returns a structure with the current version information.
// Values not stamped at link time fall back to the module build info.
func Version() Info {
	info := Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: runtime.Version(),
		BuildDate: buildDate,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "unknown" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Revision == "unknown" {
					info.Revision = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "unknown" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}

// Print outputs the application name and version string.
func Print(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", appName, Version().Version)
}

// PrintFull prints the application name and detailed version information.
func PrintFull(w io.Writer) {
	v := Version()
	fmt.Fprintf(w, "%s %s\n", appName, v.Version)
	fmt.Fprintf(w, "  branch: \t%s\n", v.Branch)
	fmt.Fprintf(w, "  revision: \t%s\n", v.Revision)
	fmt.Fprintf(w, "  build date: \t%s\n", v.BuildDate)
	fmt.Fprintf(w, "  go version: \t%s\n", v.GoVersion)
}
