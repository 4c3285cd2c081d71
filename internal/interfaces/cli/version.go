package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var readBuildInfo = debug.ReadBuildInfo

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			version, commit, built := resolveVersion(readBuildInfo())
			fmt.Fprintf(cmd.OutOrStdout(), "courtsched %s (commit=%s, built=%s)\n", version, commit, built)
		},
	}
}

// resolveVersion prefers values set by -ldflags and falls back to what the
// toolchain stamped into the binary for `go install` and plain `go build`.
func resolveVersion(bi *debug.BuildInfo, ok bool) (version, commit, built string) {
	version, commit, built = Version, CommitSHA, BuildDate
	if !ok || bi == nil {
		return version, commit, built
	}
	if version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		version = bi.Main.Version
	}
	var dirty bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "none" && s.Value != "" {
				commit = s.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		case "vcs.time":
			if built == "unknown" && s.Value != "" {
				built = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && commit != CommitSHA {
		commit += "-dirty"
	}
	return version, commit, built
}
