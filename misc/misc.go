// Package misc provides program identity helpers shared by all commands.
package misc

import (
	"runtime/debug"
)

const appName = "sbmlannot"

// GetAppName returns short program name used for logs, temp files and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns module version recorded by the build system.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "development"
}

// GetGitHash returns VCS revision recorded by the build system, shortened the
// way git does it.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				return s.Value[:12]
			}
		}
	}
	return "unknown"
}
