// Package version reports build information for the verify tool.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time with:
// go build -ldflags "-X verify/internal/version.Version=1.2.0 -X verify/internal/version.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Resolve fills unset fields from the module build info embedded by the Go
// toolchain.
func Resolve() (version, commit string) {
	version, commit = Version, Commit
	info, ok := readBuildInfo()
	if !ok {
		return version, commit
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	if commit == "unknown" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				commit = s.Value
			}
		}
	}
	return version, commit
}

// Info returns a short version string
func Info() string {
	version, commit := Resolve()
	if len(commit) > 7 && commit != "unknown" {
		return version + " (" + commit[:7] + ")"
	}
	return version
}

// Full returns complete version information
func Full() string {
	version, commit := Resolve()
	return fmt.Sprintf("verify version %s\nCommit: %s\nBuilt: %s\nGo: %s",
		version, commit, BuildDate, runtime.Version())
}
