package prism

import (
	"context"
	"strings"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/archive"
	"github.com/shahbhuwan/gridflow/pkg/download"
	pkgerrors "github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/files"
	"github.com/shahbhuwan/gridflow/pkg/model"
)

// MetadataPrefix namespaces this archive's metadata documents.
const MetadataPrefix = "gridflow_prism_"

// Runner drives one PRISM run: plan, probe, download, optionally extract.
type Runner struct {
	fm      *files.Manager
	dl      *download.Downloader
	prober  *Prober
	extract bool
}

// NewRunner wires the runner to an existing file manager and download
// engine. The prober shares the engine's stop flag so one interrupt halts
// both probing and transfers.
func NewRunner(fm *files.Manager, dl *download.Downloader, extract bool) *Runner {
	return &Runner{
		fm:      fm,
		dl:      dl,
		prober:  NewProber(dl.StopFlag()),
		extract: extract,
	}
}

// Run plans the date range, probes availability chunk by chunk, and feeds
// the confirmed descriptors through the download engine. Chunk size equals
// the probe worker count so the pipeline alternates probing and transfer
// instead of front-loading thousands of probes. A range with no published
// files is an error; partial availability is normal and just logged.
func (r *Runner) Run(ctx context.Context, req *Request, workers int) ([]string, []*model.FileDescriptor, error) {
	planned, err := req.Plan()
	if err != nil {
		return nil, nil, err
	}
	logger.Info("planned PRISM range", logger.Fields{
		"variable":   req.Variable,
		"resolution": req.Resolution,
		"step":       string(req.TimeStep),
		"dates":      len(planned),
	})

	if workers <= 0 {
		workers = 4
	}

	var found []*model.FileDescriptor
	var downloaded []string
	var failed []*model.FileDescriptor

	for start := 0; start < len(planned); start += workers {
		if r.dl.StopFlag().Stopped() {
			logger.Info("PRISM run stopped by user")
			break
		}

		end := min(start+workers, len(planned))
		chunk := r.prober.FilterAvailable(ctx, planned[start:end], workers)
		if len(chunk) == 0 {
			continue
		}
		found = append(found, chunk...)

		chunkDownloaded, chunkFailed := r.dl.DownloadAll(ctx, chunk, "prism")
		downloaded = append(downloaded, chunkDownloaded...)
		failed = append(failed, chunkFailed...)
	}

	if len(found) == 0 {
		// An empty result after a stop means the run was cut short, not
		// that the archive has nothing for this range.
		if r.dl.StopFlag().Stopped() {
			return nil, nil, pkgerrors.ErrDownloadStopped
		}
		return nil, nil, pkgerrors.ErrNoPrismFiles
	}

	if err := r.fm.SaveMetadata(found, "query_results.json"); err != nil {
		logger.Error("failed to persist query results", logger.Fields{"error": err.Error()})
	}

	if r.extract {
		r.extractArchives(ctx, downloaded)
	}

	logger.Successf("PRISM run complete: %d/%d files", len(downloaded), len(found))
	return downloaded, failed, nil
}

// extractArchives unpacks each downloaded zip next to itself, into a
// directory named after the archive. Extraction failures do not fail the
// run; the archive itself is already safely on disk.
func (r *Runner) extractArchives(ctx context.Context, paths []string) {
	extractor := archive.NewExtractor()
	for _, path := range paths {
		if r.dl.StopFlag().Stopped() {
			return
		}
		destDir := strings.TrimSuffix(path, ".zip")
		if err := extractor.ExtractAll(ctx, path, destDir); err != nil {
			logger.Error("failed to extract archive", logger.Fields{"path": path, "error": err.Error()})
			continue
		}
		logger.Debug("extracted archive", logger.Fields{"path": path, "dest": destDir})
	}
}
