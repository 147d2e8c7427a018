package cli

import (
	"path/filepath"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/catalog"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"github.com/spf13/cobra"
)

type catalogOptions struct {
	inputDir    string
	outputDir   string
	metadataDir string
	workers     int
	demo        bool
}

// NewCatalogCmd creates the catalog command.
func NewCatalogCmd() *cobra.Command {
	opts := &catalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Generate a catalog of downloaded files",
		Long: `Scan a download directory for NetCDF files and group them by
activity, source model and variant using the metadata documents persisted
at download time. Filename collisions between flat and structured layouts
are resolved and reported in duplicates.json.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCatalog(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.inputDir, "input-dir", "./cmip6_data", "Directory scanned recursively for .nc files")
	flags.StringVar(&opts.outputDir, "output-dir", "./catalog", "Directory for catalog.json and duplicates.json")
	flags.StringVar(&opts.metadataDir, "metadata-dir", "./metadata", "Directory holding persisted metadata documents")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel workers (0=config)")
	flags.BoolVar(&opts.demo, "demo", false, "Size the pool for a demo run")

	return cmd
}

func runCatalog(cmd *cobra.Command, opts *catalogOptions) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if opts.demo {
		opts.workers = demoWorkers()
	}
	if opts.workers <= 0 {
		opts.workers = cfg.Settings.Workers
	}

	// Every persisted query document contributes metadata, whichever
	// project prefix wrote it.
	docs, err := filepath.Glob(filepath.Join(opts.metadataDir, "*query_results.json"))
	if err != nil {
		return err
	}
	index, err := catalog.BuildIndex(docs...)
	if err != nil {
		return err
	}
	logger.Info("loaded metadata index", logger.Fields{"documents": len(docs), "records": len(index)})

	stop := stopflag.New()
	wireStop(cmd.Context(), stop)

	gen := catalog.NewGenerator(index, opts.workers, stop)
	_, err = gen.Generate(cmd.Context(), opts.inputDir, opts.outputDir)
	return err
}
