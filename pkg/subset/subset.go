// Package subset defines the spatial subsetting surface: region bounds, the
// Subsetter contract, and a pooled directory walker that fans NetCDF files
// out to an implementation. The grid operations themselves live behind the
// interface; this package ships no raster math.
package subset

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"golang.org/x/sync/errgroup"
)

// Region is a geographic bounding box in degrees, optionally padded by a
// uniform buffer on every side.
type Region struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLon float64 `yaml:"max_lon"`
	Buffer float64 `yaml:"buffer"`
}

// Buffered returns the region grown by its buffer.
func (r Region) Buffered() Region {
	return Region{
		MinLat: r.MinLat - r.Buffer,
		MaxLat: r.MaxLat + r.Buffer,
		MinLon: r.MinLon - r.Buffer,
		MaxLon: r.MaxLon + r.Buffer,
	}
}

// Valid reports whether the bounds describe a non-empty box.
func (r Region) Valid() bool {
	return r.MinLat < r.MaxLat && r.MinLon < r.MaxLon
}

// Subsetter performs the actual grid operations on one file.
type Subsetter interface {
	// Crop cuts the file to the region's bounding box, writing the result
	// to outputPath.
	Crop(ctx context.Context, inputPath, outputPath string, region Region) error
	// Clip masks the file to a shape boundary within the region.
	Clip(ctx context.Context, inputPath, outputPath string, region Region) error
}

// Walker fans every NetCDF file under a directory out to a Subsetter.
type Walker struct {
	subsetter Subsetter
	workers   int
	stop      *stopflag.Flag
}

// NewWalker wires a Walker to its Subsetter.
func NewWalker(subsetter Subsetter, workers int, stop *stopflag.Flag) *Walker {
	if workers <= 0 {
		workers = 4
	}
	if stop == nil {
		stop = stopflag.New()
	}
	return &Walker{subsetter: subsetter, workers: workers, stop: stop}
}

// CropAll crops every .nc file under inputDir into outputDir, preserving
// relative paths. The first subsetter error cancels the remaining work.
func (w *Walker) CropAll(ctx context.Context, inputDir, outputDir string, region Region) error {
	return w.walk(ctx, inputDir, outputDir, region, w.subsetter.Crop)
}

// ClipAll clips every .nc file under inputDir into outputDir, preserving
// relative paths.
func (w *Walker) ClipAll(ctx context.Context, inputDir, outputDir string, region Region) error {
	return w.walk(ctx, inputDir, outputDir, region, w.subsetter.Clip)
}

func (w *Walker) walk(ctx context.Context, inputDir, outputDir string, region Region,
	op func(ctx context.Context, inputPath, outputPath string, region Region) error,
) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if w.stop.Stopped() {
			return filepath.SkipAll
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".nc") {
			return nil
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		outputPath := filepath.Join(outputDir, rel)
		eg.Go(func() error {
			if w.stop.Stopped() {
				return nil
			}
			if err := op(ctx, path, outputPath, region); err != nil {
				logger.Error("subset operation failed", logger.Fields{"path": path, "error": err.Error()})
				return err
			}
			return nil
		})
		return nil
	})
	if werr := eg.Wait(); werr != nil {
		return werr
	}
	return err
}
