package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Set at build time via ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// Short returns the release version, falling back to the module version
// recorded by `go install`.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// Long is the string printed by `publicpath --version`.
func Long() string {
	v := Short()
	if GitCommit == "unknown" || GitCommit == "" {
		return "publicpath " + v
	}
	commit := GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("publicpath %s (commit: %s)", v, commit)
}
