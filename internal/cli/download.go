package cli

import (
	"time"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/config"
	"github.com/shahbhuwan/gridflow/pkg/download"
	"github.com/shahbhuwan/gridflow/pkg/esgf"
	"github.com/shahbhuwan/gridflow/pkg/files"
	"github.com/shahbhuwan/gridflow/pkg/hook"
	"github.com/shahbhuwan/gridflow/pkg/orchestrator"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"github.com/spf13/cobra"
)

// demoFacets is the small, always-available query used by --demo runs.
var demoFacets = map[string]string{
	"project":       "CMIP6",
	"variable_id":   "tas",
	"source_id":     "CMCC-ESM2",
	"frequency":     "mon",
	"variant_label": "r1i1p1f1",
	"activity_id":   "ScenarioMIP",
}

const demoMaxDownloads = 10

type downloadOptions struct {
	facets       config.FacetFile
	facetConfig  string
	extraParams  string
	outputDir    string
	metadataDir  string
	saveMode     string
	workers      int
	retries      int
	timeout      int
	maxDownloads int
	username     string
	password     string
	noVerifySSL  bool
	dryRun       bool
	demo         bool
	retryFile    string
	filterScript string
}

// NewDownloadCmd creates the CMIP6 download command.
func NewDownloadCmd() *cobra.Command {
	opts := &downloadOptions{}

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download CMIP6 data from the ESGF federation",
		Long: `Search the federated ESGF index nodes for CMIP6 files matching the
given facets and download them concurrently. Failed files are recorded
and retried with fresh metadata; the final failure list is persisted for
later --retry-failed runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.facets.Project, "project", "CMIP6", "Project facet")
	flags.StringVar(&opts.facets.Activity, "activity", "", "Activity facet (e.g. ScenarioMIP)")
	flags.StringVar(&opts.facets.Experiment, "experiment", "", "Experiment facet (e.g. ssp585)")
	flags.StringVar(&opts.facets.Variable, "variable", "", "Variable facet (e.g. tas)")
	flags.StringVar(&opts.facets.Frequency, "frequency", "", "Frequency facet (e.g. mon)")
	flags.StringVar(&opts.facets.Model, "model", "", "Source model facet (e.g. CESM2)")
	flags.StringVar(&opts.facets.Resolution, "resolution", "", "Nominal resolution facet (e.g. '100 km')")
	flags.StringVar(&opts.facets.Ensemble, "ensemble", "", "Variant label facet (e.g. r1i1p1f1)")
	flags.StringVar(&opts.facets.Institution, "institution", "", "Institution facet")
	flags.StringVar(&opts.facets.SourceType, "source-type", "", "Source type facet")
	flags.StringVar(&opts.facets.GridLabel, "grid-label", "", "Grid label facet")
	flags.BoolVar(&opts.facets.Latest, "latest", false, "Only the latest dataset versions")
	flags.StringVar(&opts.facetConfig, "facets", "", "JSON facet file (flags take precedence)")
	flags.StringVar(&opts.extraParams, "extra-params", "", "Extra facets as a JSON object, merged last")

	flags.StringVar(&opts.outputDir, "output-dir", "", "Download directory (defaults to config)")
	flags.StringVar(&opts.metadataDir, "metadata-dir", "", "Metadata directory (defaults to config)")
	flags.StringVar(&opts.saveMode, "save-mode", "", "File layout: flat or structured (defaults to config)")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel downloads (0=config)")
	flags.IntVar(&opts.retries, "retries", 0, "Download attempts per file (0=config)")
	flags.IntVar(&opts.timeout, "timeout", 0, "Request timeout in seconds (0=config)")
	flags.IntVar(&opts.maxDownloads, "max-downloads", 0, "Cap on files downloaded (0=no cap)")
	flags.StringVar(&opts.username, "username", "", "ESGF username for restricted data")
	flags.StringVar(&opts.password, "password", "", "ESGF password for restricted data")
	flags.BoolVar(&opts.noVerifySSL, "no-verify-ssl", false, "Skip TLS certificate verification")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Query and report matches without downloading")
	flags.BoolVar(&opts.demo, "demo", false, "Download a small sample dataset")
	flags.StringVar(&opts.retryFile, "retry-failed", "", "Retry from a persisted failure document instead of searching")
	flags.StringVar(&opts.filterScript, "filter-script", "", "Tengo script deciding per record whether to download it")

	return cmd
}

func runDownload(cmd *cobra.Command, opts *downloadOptions) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	applyDownloadOverrides(cfg, opts)

	if opts.demo {
		cfg.Settings.Workers = demoWorkers()
		cfg.Settings.MaxDownloads = demoMaxDownloads
		logger.Info("demo mode: downloading a small CMIP6 tas sample", logger.Fields{"workers": cfg.Settings.Workers})
	}

	fm, err := files.NewManager(
		cfg.Settings.DownloadDir,
		cfg.Settings.MetadataDir,
		files.SaveMode(cfg.Settings.SaveMode),
		"gridflow_cmip6_",
	)
	if err != nil {
		return err
	}

	stop := stopflag.New()
	wireStop(cmd.Context(), stop)

	client := esgf.NewClient(cfg.Nodes, cfg.Settings.Timeout, cfg.Settings.PageLimit, stop)
	dl := download.New(fm, download.Options{
		Workers:      cfg.Settings.Workers,
		Retries:      cfg.Settings.Retries,
		Timeout:      cfg.Settings.Timeout,
		MaxDownloads: cfg.Settings.MaxDownloads,
		Username:     cfg.Settings.Username,
		Password:     cfg.Settings.Password,
		VerifySSL:    cfg.Settings.VerifySSL,
		Requery:      client,
		Stop:         stop,
	})

	orch := &orchestrator.Orchestrator{Search: client, DL: dl, Store: fm}
	if opts.filterScript != "" {
		filter, err := hook.Load(opts.filterScript)
		if err != nil {
			return err
		}
		orch.Filter = filter
	}

	runOpts := orchestrator.Options{DryRun: opts.dryRun}

	if opts.retryFile != "" {
		_, err = orch.RunRetryFile(cmd.Context(), opts.retryFile, runOpts)
		return err
	}

	var facets config.Facets
	if opts.demo {
		facets = demoFacets
	} else {
		facetFile, err := config.LoadFacetFile(opts.facetConfig)
		if err != nil {
			return err
		}
		facets, err = config.BuildFacets(opts.facets, facetFile, opts.extraParams)
		if err != nil {
			return err
		}
	}

	_, err = orch.Run(cmd.Context(), facets, runOpts)
	return err
}

// applyDownloadOverrides layers explicit CLI flags over the resolved config.
func applyDownloadOverrides(cfg *config.Config, opts *downloadOptions) {
	if opts.outputDir != "" {
		cfg.Settings.DownloadDir = opts.outputDir
	}
	if opts.metadataDir != "" {
		cfg.Settings.MetadataDir = opts.metadataDir
	}
	if opts.saveMode != "" {
		cfg.Settings.SaveMode = opts.saveMode
	}
	if opts.workers > 0 {
		cfg.Settings.Workers = opts.workers
	}
	if opts.retries > 0 {
		cfg.Settings.Retries = opts.retries
	}
	if opts.timeout > 0 {
		cfg.Settings.Timeout = time.Duration(opts.timeout) * time.Second
	}
	if opts.maxDownloads > 0 {
		cfg.Settings.MaxDownloads = opts.maxDownloads
	}
	if opts.username != "" {
		cfg.Settings.Username = opts.username
	}
	if opts.password != "" {
		cfg.Settings.Password = opts.password
	}
	if opts.noVerifySSL {
		cfg.Settings.VerifySSL = false
	}
}
