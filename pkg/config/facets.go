package config

import (
	"encoding/json"
	"os"

	"github.com/shahbhuwan/gridflow/pkg/errors"
)

// Facets is a set of named search filters (facet name to value) in the form
// the federated search endpoints expect (activity_id, variable_id, ...).
type Facets map[string]string

// FacetFile is the JSON facet document layout accepted with --facets on the
// download command. The keys are the user-facing names from the CLI flags,
// not the wire facet names; BuildFacets performs the mapping.
type FacetFile struct {
	Project     string `json:"project,omitempty"`
	Activity    string `json:"activity,omitempty"`
	Experiment  string `json:"experiment,omitempty"`
	Variable    string `json:"variable,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
	Model       string `json:"model,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
	Ensemble    string `json:"ensemble,omitempty"`
	Institution string `json:"institution,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	GridLabel   string `json:"grid_label,omitempty"`
	Latest      bool   `json:"latest,omitempty"`
}

// LoadFacetFile reads a JSON facet document. A missing or malformed file is
// a fatal configuration error.
func LoadFacetFile(path string) (*FacetFile, error) {
	if path == "" {
		return &FacetFile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load facet config %s", path)
	}
	var ff FacetFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	return &ff, nil
}

// BuildFacets resolves the final facet set for a search request. Explicit
// flag values take precedence over the facet file; the extra-params JSON
// blob is merged last and can therefore override either, as well as add
// arbitrary facets the CLI has no flag for. Empty values are dropped.
func BuildFacets(flags FacetFile, file *FacetFile, extraParams string) (Facets, error) {
	if file == nil {
		file = &FacetFile{}
	}

	pick := func(flag, fromFile string) string {
		if flag != "" {
			return flag
		}
		return fromFile
	}

	facets := Facets{
		"project":            pick(flags.Project, file.Project),
		"activity_id":        pick(flags.Activity, file.Activity),
		"experiment_id":      pick(flags.Experiment, file.Experiment),
		"variable_id":        pick(flags.Variable, file.Variable),
		"frequency":          pick(flags.Frequency, file.Frequency),
		"source_id":          pick(flags.Model, file.Model),
		"nominal_resolution": pick(flags.Resolution, file.Resolution),
		"variant_label":      pick(flags.Ensemble, file.Ensemble),
		"institution_id":     pick(flags.Institution, file.Institution),
		"source_type":        pick(flags.SourceType, file.SourceType),
		"grid_label":         pick(flags.GridLabel, file.GridLabel),
	}
	if flags.Latest || file.Latest {
		facets["latest"] = "true"
	}

	if extraParams != "" {
		var extra map[string]string
		if err := json.Unmarshal([]byte(extraParams), &extra); err != nil {
			return nil, errors.Wrap(errors.ErrExtraParamsParse, err.Error())
		}
		for k, v := range extra {
			facets[k] = v
		}
	}

	for k, v := range facets {
		if v == "" {
			delete(facets, k)
		}
	}

	if len(facets) == 0 {
		return nil, errors.ErrNoSearchFacets
	}
	return facets, nil
}
