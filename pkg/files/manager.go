// Package files maps file descriptors to deterministic on-disk paths and
// persists metadata snapshots (query results, failure lists) as JSON
// documents. Path mapping is a pure function of the descriptor and the save
// mode; nothing here touches the network.
package files

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/fsutil"
	"github.com/shahbhuwan/gridflow/pkg/model"
)

// SaveMode selects the on-disk layout for downloaded files.
type SaveMode string

const (
	// SaveModeFlat puts every file in one directory, the filename prefixed
	// with activity and resolution to avoid collisions across experiments.
	SaveModeFlat SaveMode = "flat"
	// SaveModeStructured nests directories by variable/resolution/activity
	// and keeps the original filename.
	SaveModeStructured SaveMode = "structured"
)

// UnknownToken is the resolution placeholder when neither the record nor
// the model table knows one.
const UnknownToken = "unknown"

// resolutionByModel is the static fallback table consulted when a record
// carries no nominal_resolution facet.
var resolutionByModel = map[string]string{
	"HiRAM-SIT-HR": "25km",
	"CanESM5":      "250km",
	"CESM2":        "100km",
}

// Manager owns the download and metadata directories for one run.
type Manager struct {
	downloadDir    string
	metadataDir    string
	mode           SaveMode
	metadataPrefix string
}

// NewManager creates both directories eagerly. A creation failure is a
// fatal, unrecoverable configuration error; the caller must halt.
func NewManager(downloadDir, metadataDir string, mode SaveMode, metadataPrefix string) (*Manager, error) {
	if err := fsutil.EnsureDir(downloadDir); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigDirectory, "%s: %v", downloadDir, err)
	}
	if err := fsutil.EnsureDir(metadataDir); err != nil {
		return nil, errors.Wrapf(errors.ErrConfigDirectory, "%s: %v", metadataDir, err)
	}
	return &Manager{
		downloadDir:    downloadDir,
		metadataDir:    metadataDir,
		mode:           mode,
		metadataPrefix: metadataPrefix,
	}, nil
}

// DownloadDir returns the root directory downloads land in.
func (m *Manager) DownloadDir() string {
	return m.downloadDir
}

// OutputPath returns the deterministic target path for a descriptor. It
// never fails: missing facets fall back through the model table to the
// "unknown" token. Parent directories are created lazily by the download
// engine, not here.
func (m *Manager) OutputPath(d *model.FileDescriptor) string {
	activity := sanitize(facetOr(d.Activity()))
	variable := sanitize(facetOr(d.Variable()))
	resolution := m.ResolutionFor(d)
	title := safeTitle(d.Title)

	if m.mode == SaveModeStructured {
		return filepath.Join(m.downloadDir, variable, resolution, activity, title)
	}
	return filepath.Join(m.downloadDir, activity+"_"+resolution+"_"+title)
}

// ResolutionFor resolves a record's resolution label: the explicit
// nominal_resolution facet with spaces stripped, else the static
// model table, else "unknown".
func (m *Manager) ResolutionFor(d *model.FileDescriptor) string {
	if nominal := d.Resolution(); nominal != "" {
		return strings.ReplaceAll(nominal, " ", "")
	}
	if res, ok := resolutionByModel[d.Source()]; ok {
		return res
	}
	return UnknownToken
}

// MetadataPath returns where a named metadata document lives, including the
// project prefix that disambiguates concurrent projects sharing one
// metadata directory.
func (m *Manager) MetadataPath(name string) string {
	return filepath.Join(m.metadataDir, m.metadataPrefix+name)
}

// SaveMetadata persists the descriptor list as an indented JSON document.
// Persistence failures are diagnostic, not load-bearing: callers log the
// returned error and continue.
func (m *Manager) SaveMetadata(descs []*model.FileDescriptor, name string) error {
	path := m.MetadataPath(name)
	data, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode metadata %s", name)
	}
	if err := os.WriteFile(path, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(err, "failed to save metadata %s", name)
	}
	logger.Debug("saved metadata", logger.Fields{"path": path, "files": len(descs)})
	return nil
}

// LoadDescriptors reads a previously persisted metadata document, the entry
// point for retry-from-failure-file runs.
func LoadDescriptors(path string) ([]*model.FileDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrRetryFileRead, err.Error())
	}
	var descs []*model.FileDescriptor
	if err := json.Unmarshal(data, &descs); err != nil {
		return nil, errors.Wrap(errors.ErrRetryFileRead, err.Error())
	}
	return descs, nil
}

func facetOr(v string) string {
	if v == "" {
		return UnknownToken
	}
	return v
}

// sanitize keeps facet values from escaping the download directory.
func sanitize(v string) string {
	return strings.ReplaceAll(v, "/", "_")
}

// safeTitle reduces an endpoint-supplied title to a bare filename. Titles
// are the one record field an index node controls verbatim, so any path
// components are stripped before the title touches the filesystem.
func safeTitle(title string) string {
	base := filepath.Base(strings.ReplaceAll(title, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		return UnknownToken
	}
	return base
}
