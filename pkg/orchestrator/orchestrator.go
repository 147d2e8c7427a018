//go:generate mockgen -destination=./mocks/orchestrator.go . Searcher,BulkDownloader,MetadataStore,DescriptorFilter

// Package orchestrator ties the search client, file manager, download
// engine, and optional filter hook into the end-to-end download pipeline.
package orchestrator

import (
	"context"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/files"
	"github.com/shahbhuwan/gridflow/pkg/model"
)

// Searcher is the subset of the query client used by the orchestrator.
type Searcher interface {
	FetchDatasets(ctx context.Context, facets map[string]string) ([]*model.FileDescriptor, error)
}

// BulkDownloader is the subset of the download engine used by the
// orchestrator.
type BulkDownloader interface {
	DownloadAll(ctx context.Context, descs []*model.FileDescriptor, phase string) ([]string, []*model.FileDescriptor)
	RetryFailed(ctx context.Context, failed []*model.FileDescriptor) ([]string, []*model.FileDescriptor)
	Shutdown()
}

// MetadataStore persists descriptor documents between pipeline stages.
type MetadataStore interface {
	SaveMetadata(descs []*model.FileDescriptor, name string) error
	MetadataPath(name string) string
}

// DescriptorFilter drops records before they are queued for download.
type DescriptorFilter interface {
	Apply(descs []*model.FileDescriptor) ([]*model.FileDescriptor, error)
}

// Orchestrator runs the query -> filter -> download -> retry pipeline.
type Orchestrator struct {
	Search Searcher
	DL     BulkDownloader
	Store  MetadataStore
	Filter DescriptorFilter // optional
}

// Options control one pipeline run.
type Options struct {
	DryRun bool
}

// Report summarizes a finished run.
type Report struct {
	Attempted   int
	Succeeded   int
	Failed      int
	FailureFile string // path of the final failure document, empty when none
	DryRun      bool
}

// Run executes the full pipeline for one facet set. Shutdown is invoked on
// every exit path so an error or interrupt never leaks the engine's
// connections.
func (o *Orchestrator) Run(ctx context.Context, facets map[string]string, opts Options) (*Report, error) {
	defer o.DL.Shutdown()

	descs, err := o.Search.FetchDatasets(ctx, facets)
	if err != nil {
		return nil, err
	}

	descs = model.DeduplicateByTitle(descs)
	if err := o.Store.SaveMetadata(descs, "query_results.json"); err != nil {
		logger.Error("failed to persist query results", logger.Fields{"error": err.Error()})
	}

	if o.Filter != nil {
		descs, err = o.Filter.Apply(descs)
		if err != nil {
			return nil, err
		}
	}
	if len(descs) == 0 {
		return nil, errors.ErrNoFilesFound
	}

	if opts.DryRun {
		logger.Info("dry run: files matched", logger.Fields{"files": len(descs)})
		return &Report{Attempted: len(descs), DryRun: true}, nil
	}

	return o.download(ctx, descs)
}

// RunRetryFile re-drives the pipeline from a persisted failure document,
// bypassing the search entirely.
func (o *Orchestrator) RunRetryFile(ctx context.Context, path string, opts Options) (*Report, error) {
	defer o.DL.Shutdown()

	descs, err := files.LoadDescriptors(path)
	if err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return nil, errors.ErrNothingToRetry
	}
	logger.Info("retrying from failure file", logger.Fields{"path": path, "files": len(descs)})

	if opts.DryRun {
		return &Report{Attempted: len(descs), DryRun: true}, nil
	}
	return o.download(ctx, descs)
}

func (o *Orchestrator) download(ctx context.Context, descs []*model.FileDescriptor) (*Report, error) {
	downloaded, failed := o.DL.DownloadAll(ctx, descs, "initial")

	if len(failed) > 0 {
		if err := o.Store.SaveMetadata(failed, "failed_downloads.json"); err != nil {
			logger.Error("failed to persist failure list", logger.Fields{"error": err.Error()})
		}

		retried, remaining := o.DL.RetryFailed(ctx, failed)
		downloaded = append(downloaded, retried...)
		failed = remaining
	}

	report := &Report{
		Attempted: len(descs),
		Succeeded: len(downloaded),
		Failed:    len(failed),
	}
	if len(failed) > 0 {
		if err := o.Store.SaveMetadata(failed, "failed_downloads_final.json"); err != nil {
			logger.Error("failed to persist final failure list", logger.Fields{"error": err.Error()})
		}
		report.FailureFile = o.Store.MetadataPath("failed_downloads_final.json")
	}

	logger.Successf("completed: %d/%d files downloaded, %d failed",
		report.Succeeded, report.Attempted, report.Failed)
	return report, nil
}
