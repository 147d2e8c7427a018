// Package model defines the metadata records exchanged between the search,
// path-mapping and download layers. The JSON field layout mirrors the ESGF
// Solr file-record wire format, so persisted metadata documents round-trip
// losslessly into retry runs.
package model

import "strings"

// httpTransportTag marks a URL entry as plain HTTP(S) in the ESGF
// `url|mime|service` triple format. Other services (GridFTP, OPeNDAP) are
// listed on the same record but are not usable by this downloader.
const httpTransportTag = "HTTPServer"

// FileDescriptor is the metadata record identifying one downloadable file:
// classification facets, candidate URLs tagged by transport, and optional
// integrity metadata. Multi-valued fields keep the Solr array shape.
type FileDescriptor struct {
	ID                string   `json:"id,omitempty"`
	Title             string   `json:"title"`
	Version           string   `json:"version,omitempty"`
	ActivityID        []string `json:"activity_id,omitempty"`
	ExperimentID      []string `json:"experiment_id,omitempty"`
	VariableID        []string `json:"variable_id,omitempty"`
	Frequency         []string `json:"frequency,omitempty"`
	SourceID          []string `json:"source_id,omitempty"`
	VariantLabel      []string `json:"variant_label,omitempty"`
	InstitutionID     []string `json:"institution_id,omitempty"`
	SourceType        []string `json:"source_type,omitempty"`
	GridLabel         []string `json:"grid_label,omitempty"`
	NominalResolution []string `json:"nominal_resolution,omitempty"`
	Checksum          []string `json:"checksum,omitempty"`
	ChecksumType      []string `json:"checksum_type,omitempty"`
	URLs              []string `json:"url,omitempty"`
}

// Downloadable reports whether the descriptor carries enough information to
// be attempted at all. Records failing this check are permanently invalid
// and must be reported as errors, never retried.
func (d *FileDescriptor) Downloadable() bool {
	return d != nil && d.Title != "" && len(d.URLs) > 0
}

// DedupKey returns the identity used to eliminate duplicate descriptors:
// the stable record ID when present, otherwise the filename.
func (d *FileDescriptor) DedupKey() string {
	if d.ID != "" {
		return d.ID
	}
	return d.Title
}

// HTTPURL returns the first URL tagged with the HTTPServer transport.
// Untagged entries (no service triple) are treated as direct HTTP, which is
// the form PRISM descriptors and hand-edited retry files use.
func (d *FileDescriptor) HTTPURL() (string, bool) {
	for _, raw := range d.URLs {
		parts := strings.Split(raw, "|")
		if len(parts) == 1 {
			return parts[0], true
		}
		if parts[len(parts)-1] == httpTransportTag {
			return parts[0], true
		}
	}
	return "", false
}

// Facet accessors. Solr returns single-element arrays for these fields;
// absent facets yield the empty string.

func (d *FileDescriptor) Activity() string     { return first(d.ActivityID) }
func (d *FileDescriptor) Experiment() string   { return first(d.ExperimentID) }
func (d *FileDescriptor) Variable() string     { return first(d.VariableID) }
func (d *FileDescriptor) Freq() string         { return first(d.Frequency) }
func (d *FileDescriptor) Source() string       { return first(d.SourceID) }
func (d *FileDescriptor) Variant() string      { return first(d.VariantLabel) }
func (d *FileDescriptor) Institution() string  { return first(d.InstitutionID) }
func (d *FileDescriptor) Grid() string         { return first(d.GridLabel) }
func (d *FileDescriptor) Resolution() string   { return first(d.NominalResolution) }
func (d *FileDescriptor) ChecksumHex() string  { return first(d.Checksum) }
func (d *FileDescriptor) ChecksumAlgo() string { return strings.ToLower(first(d.ChecksumType)) }

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Deduplicate removes descriptors sharing a dedup key. The first occurrence
// wins, preserving the priority order of the source that produced them.
func Deduplicate(descs []*FileDescriptor) []*FileDescriptor {
	return dedupeBy(descs, (*FileDescriptor).DedupKey)
}

// DeduplicateByTitle removes descriptors sharing a filename, first wins.
// Used on the merged working set where the same logical file can appear
// under different record IDs.
func DeduplicateByTitle(descs []*FileDescriptor) []*FileDescriptor {
	return dedupeBy(descs, func(d *FileDescriptor) string { return d.Title })
}

func dedupeBy(descs []*FileDescriptor, key func(*FileDescriptor) string) []*FileDescriptor {
	seen := make(map[string]struct{}, len(descs))
	out := make([]*FileDescriptor, 0, len(descs))
	for _, d := range descs {
		if d == nil {
			continue
		}
		k := key(d)
		if k == "" {
			out = append(out, d)
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}
