package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, overridable at link time with -ldflags.
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("gridflow %s (%s, built %s, commit %s)\n",
				Version, runtime.Version(), BuildDate, GitCommit)
		},
	}
}
