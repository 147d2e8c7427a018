package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultNodes, cfg.Nodes)
	assert.Equal(t, DefaultWorkers, cfg.Settings.Workers)
	assert.Equal(t, DefaultRetries, cfg.Settings.Retries)
	assert.Equal(t, DefaultTimeout, cfg.Settings.Timeout)
	assert.Equal(t, "flat", cfg.Settings.SaveMode)
	assert.True(t, cfg.Settings.VerifySSL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridflow.yaml")
	content := `
nodes:
  - https://fake-node.example.com/esg-search/search
settings:
  workers: 8
  retries: 2
  timeout: 10s
  save_mode: structured
  download_dir: /data/cmip6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://fake-node.example.com/esg-search/search"}, cfg.Nodes)
	assert.Equal(t, 8, cfg.Settings.Workers)
	assert.Equal(t, 2, cfg.Settings.Retries)
	assert.Equal(t, 10*time.Second, cfg.Settings.Timeout)
	assert.Equal(t, "structured", cfg.Settings.SaveMode)
	assert.Equal(t, "/data/cmip6", cfg.Settings.DownloadDir)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed yaml",
			content: "settings: [not a mapping",
		},
		{
			name:    "bad save mode",
			content: "settings:\n  save_mode: sideways\n",
		},
		{
			name:    "zero workers",
			content: "settings:\n  workers: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "gridflow.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadOrDefault_EnvOverride(t *testing.T) {
	t.Setenv("GRIDFLOW_WORKERS", "12")
	t.Setenv("GRIDFLOW_LOG_LEVEL", "debug")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Settings.Workers)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
}

func TestBuildFacets_Precedence(t *testing.T) {
	flags := FacetFile{Project: "CMIP6", Variable: "tas"}
	file := &FacetFile{Variable: "pr", Model: "CESM2", Latest: true}

	facets, err := BuildFacets(flags, file, "")
	require.NoError(t, err)

	assert.Equal(t, "CMIP6", facets["project"])
	// Explicit flag beats the facet file.
	assert.Equal(t, "tas", facets["variable_id"])
	// File fills in what flags left empty.
	assert.Equal(t, "CESM2", facets["source_id"])
	assert.Equal(t, "true", facets["latest"])
	_, ok := facets["experiment_id"]
	assert.False(t, ok, "empty facets must be dropped")
}

func TestBuildFacets_ExtraParamsMergedLast(t *testing.T) {
	flags := FacetFile{Project: "CMIP6", Variable: "tas"}

	facets, err := BuildFacets(flags, nil, `{"variable_id":"huss","data_node":"esgf-data.ucar.edu"}`)
	require.NoError(t, err)

	assert.Equal(t, "huss", facets["variable_id"], "extra params override everything")
	assert.Equal(t, "esgf-data.ucar.edu", facets["data_node"])
}

func TestBuildFacets_Errors(t *testing.T) {
	_, err := BuildFacets(FacetFile{}, nil, "")
	assert.Error(t, err, "no facets at all is a config error")

	_, err = BuildFacets(FacetFile{Project: "CMIP6"}, nil, "{broken")
	assert.Error(t, err)
}

func TestLoadFacetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"project":"CMIP6","variable":"tas","latest":true}`), 0o644))

	ff, err := LoadFacetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CMIP6", ff.Project)
	assert.Equal(t, "tas", ff.Variable)
	assert.True(t, ff.Latest)

	_, err = LoadFacetFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
