package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shahbhuwan/gridflow/internal/cli"
	pkgerrors "github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	settingsPath string
	logLevel     string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	os.Exit(exitCode(err))
}

// exitCode maps a run outcome to a process exit code. A user-requested
// stop is a distinct outcome, not a failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pkgerrors.ErrDownloadStopped):
		fmt.Fprintln(os.Stderr, "stopped by user")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridflow",
		Short: "Concurrent bulk downloader for gridded climate data",
		Long: `gridflow downloads gridded climate data in bulk:
- CMIP6 files from the federated ESGF search, with checksum verification and retries
- PRISM archives by date range
- Catalog generation over the downloaded files`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "settings file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: minimal, normal, verbose, debug")

	// Set up CLI pkg variables
	cli.SettingsPath = &settingsPath
	cli.LogLevel = &logLevel

	// Add subcommands
	cmd.AddCommand(
		cli.NewDownloadCmd(),
		cli.NewPrismCmd(),
		cli.NewCatalogCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
