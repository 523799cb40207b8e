package version

import (
	"fmt"
	"runtime/debug"
)

// Version is the release version, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/updatesnap/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, set the same way.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by `updatesnap --version`.
func String() string {
	commit := GitCommit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 8 {
					commit = s.Value[:8]
				}
			}
		}
	}
	return fmt.Sprintf("updatesnap %s (commit %s, built %s)", Version, commit, BuildTime)
}
