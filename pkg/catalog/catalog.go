// Package catalog builds a browsable index of downloaded NetCDF files.
// Facet metadata comes from the descriptor documents persisted at download
// time; the data files themselves are never decoded. Files are grouped by
// activity:source:variant, and filename collisions between flat-mode
// (prefixed) and structured-mode copies are resolved in favor of the
// non-prefixed name, then the newest dataset version.
package catalog

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goversion "github.com/hashicorp/go-version"
	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/files"
	"github.com/shahbhuwan/gridflow/pkg/fsutil"
	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"golang.org/x/sync/errgroup"
)

// FileRef is one catalogued file.
type FileRef struct {
	Path string `json:"path"`
}

// VariableFiles collects the files for one variable within a group.
type VariableFiles struct {
	FileCount int       `json:"file_count"`
	Files     []FileRef `json:"files"`
}

// Group is one activity:source:variant bucket.
type Group struct {
	ActivityID    string                    `json:"activity_id"`
	SourceID      string                    `json:"source_id"`
	VariantLabel  string                    `json:"variant_label"`
	InstitutionID string                    `json:"institution_id"`
	Variables     map[string]*VariableFiles `json:"variables"`
}

// Catalog maps group keys to their contents.
type Catalog map[string]*Group

// Duplicate records a file that lost a filename collision.
type Duplicate struct {
	FilePath string `json:"file_path"`
	Matches  string `json:"matches"`
	BaseName string `json:"base_name"`
}

// Generator builds catalogs from a download tree plus a metadata index.
type Generator struct {
	index   map[string]*model.FileDescriptor
	workers int
	stop    *stopflag.Flag
}

// NewGenerator creates a Generator. The index maps filenames (descriptor
// titles) to their records; BuildIndex assembles one from persisted
// metadata documents.
func NewGenerator(index map[string]*model.FileDescriptor, workers int, stop *stopflag.Flag) *Generator {
	if workers <= 0 {
		workers = 4
	}
	if stop == nil {
		stop = stopflag.New()
	}
	return &Generator{index: index, workers: workers, stop: stop}
}

// BuildIndex loads persisted descriptor documents and maps each title to
// its record. The first document mentioning a title wins.
func BuildIndex(paths ...string) (map[string]*model.FileDescriptor, error) {
	index := make(map[string]*model.FileDescriptor)
	for _, path := range paths {
		descs, err := files.LoadDescriptors(path)
		if err != nil {
			return nil, err
		}
		for _, desc := range descs {
			if _, exists := index[desc.Title]; !exists {
				index[desc.Title] = desc
			}
		}
	}
	return index, nil
}

// Generate scans inputDir recursively for .nc files, resolves each against
// the metadata index, and writes catalog.json (and duplicates.json when
// collisions occurred) into outputDir. Files without a complete metadata
// record are skipped with a warning, never guessed at.
func (g *Generator) Generate(ctx context.Context, inputDir, outputDir string) (Catalog, error) {
	if _, err := os.Stat(inputDir); err != nil {
		return nil, errors.Wrapf(errors.ErrCatalogInput, "%s", inputDir)
	}
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	ncFiles, err := findNetCDF(inputDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan input directory")
	}
	if len(ncFiles) == 0 {
		logger.Warn("no NetCDF files found", logger.Fields{"dir": inputDir})
		return Catalog{}, nil
	}

	unique, duplicates := g.resolveCollisions(ncFiles)
	logger.Info("cataloguing files", logger.Fields{
		"files":      len(unique),
		"duplicates": len(duplicates),
		"workers":    g.workers,
	})

	catalog, skipped := g.buildGroups(ctx, unique)

	logger.Info("catalog summary", logger.Fields{
		"processed": len(unique),
		"included":  len(unique) - skipped,
		"skipped":   skipped,
		"groups":    len(catalog),
	})

	if err := writeJSON(filepath.Join(outputDir, "catalog.json"), catalog); err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		if err := writeJSON(filepath.Join(outputDir, "duplicates.json"), duplicates); err != nil {
			logger.Error("failed to save duplicates", logger.Fields{"error": err.Error()})
		}
	}
	return catalog, nil
}

// buildGroups resolves metadata for each file over the worker pool and
// folds the results into groups.
func (g *Generator) buildGroups(ctx context.Context, paths []string) (Catalog, int) {
	catalog := Catalog{}
	skipped := 0
	var mu sync.Mutex

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for _, path := range paths {
		if g.stop.Stopped() {
			logger.Info("catalog generation stopped by user")
			break
		}
		eg.Go(func() error {
			desc := g.lookup(filepath.Base(path))
			mu.Lock()
			defer mu.Unlock()
			if desc == nil || desc.Activity() == "" || desc.Source() == "" || desc.Variant() == "" || desc.Variable() == "" {
				logger.Warn("skipping file with incomplete metadata", logger.Fields{"path": path})
				skipped++
				return nil
			}
			addToGroup(catalog, desc, path)
			return nil
		})
	}
	_ = eg.Wait()
	return catalog, skipped
}

func addToGroup(catalog Catalog, desc *model.FileDescriptor, path string) {
	key := desc.Activity() + ":" + desc.Source() + ":" + desc.Variant()
	group, ok := catalog[key]
	if !ok {
		group = &Group{
			ActivityID:    desc.Activity(),
			SourceID:      desc.Source(),
			VariantLabel:  desc.Variant(),
			InstitutionID: desc.Institution(),
			Variables:     make(map[string]*VariableFiles),
		}
		catalog[key] = group
	}
	vf, ok := group.Variables[desc.Variable()]
	if !ok {
		vf = &VariableFiles{}
		group.Variables[desc.Variable()] = vf
	}
	vf.Files = append(vf.Files, FileRef{Path: path})
	vf.FileCount++
}

// resolveCollisions groups the scanned paths by base filename and keeps one
// winner per base name: a non-prefixed copy beats a prefixed one, and among
// equals the newest dataset version wins. Losers are reported as duplicates.
func (g *Generator) resolveCollisions(paths []string) ([]string, []Duplicate) {
	byBase := make(map[string][]string)
	var order []string
	for _, path := range paths {
		base := g.baseName(filepath.Base(path))
		if _, seen := byBase[base]; !seen {
			order = append(order, base)
		}
		byBase[base] = append(byBase[base], path)
	}

	var unique []string
	var duplicates []Duplicate
	for _, base := range order {
		group := byBase[base]
		winner := g.pickWinner(base, group)
		unique = append(unique, winner)
		for _, path := range group {
			if path == winner {
				continue
			}
			logger.Warn("duplicate filename detected", logger.Fields{
				"path":    path,
				"matches": filepath.Base(winner),
			})
			duplicates = append(duplicates, Duplicate{
				FilePath: path,
				Matches:  filepath.Base(winner),
				BaseName: base,
			})
		}
	}
	return unique, duplicates
}

func (g *Generator) pickWinner(base string, group []string) string {
	if len(group) == 1 {
		return group[0]
	}

	winner := group[0]
	for _, candidate := range group[1:] {
		if g.beats(candidate, winner, base) {
			winner = candidate
		}
	}
	return winner
}

// beats reports whether candidate should replace current as the kept copy.
func (g *Generator) beats(candidate, current string, base string) bool {
	candNonPrefixed := filepath.Base(candidate) == base
	currNonPrefixed := filepath.Base(current) == base
	if candNonPrefixed != currNonPrefixed {
		return candNonPrefixed
	}

	candVer := g.datasetVersion(filepath.Base(candidate))
	currVer := g.datasetVersion(filepath.Base(current))
	if candVer != nil && currVer != nil {
		return candVer.GreaterThan(currVer)
	}
	return false
}

// datasetVersion parses the descriptor's dataset version, tolerating the
// "v20190429" form the federation uses.
func (g *Generator) datasetVersion(filename string) *goversion.Version {
	desc := g.lookup(filename)
	if desc == nil || desc.Version == "" {
		return nil
	}
	ver, err := goversion.NewVersion(strings.TrimPrefix(desc.Version, "v"))
	if err != nil {
		return nil
	}
	return ver
}

// baseName strips the flat-mode "<activity>_<resolution>_" prefix when the
// remainder is a known metadata title. Unknown filenames pass through
// unchanged.
func (g *Generator) baseName(filename string) string {
	if _, ok := g.index[filename]; ok {
		return filename
	}
	parts := strings.SplitN(filename, "_", 3)
	if len(parts) == 3 {
		if _, ok := g.index[parts[2]]; ok {
			return parts[2]
		}
	}
	return filename
}

// lookup resolves a filename to its metadata record, prefixed or not.
func (g *Generator) lookup(filename string) *model.FileDescriptor {
	if desc, ok := g.index[filename]; ok {
		return desc
	}
	if desc, ok := g.index[g.baseName(filename)]; ok {
		return desc
	}
	return nil
}

func findNetCDF(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".nc") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to save %s", filepath.Base(path))
	}
	logger.Info("saved catalog document", logger.Fields{"path": path})
	return nil
}
