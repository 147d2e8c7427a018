//go:build integration

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/shahbhuwan/gridflow/test/testutil"
	"github.com/stretchr/testify/require"
)

func TestDownload_EndToEnd(t *testing.T) {
	tempDir := t.TempDir()
	downloadDir := filepath.Join(tempDir, "cmip6_data")
	metadataDir := filepath.Join(tempDir, "metadata")

	contents := map[string]string{
		"tas_Amon_CESM2_ssp585_r1i1p1f1_201501-210012.nc": "netcdf-bytes-1",
		"pr_Amon_CESM2_ssp585_r1i1p1f1_201501-210012.nc":  "netcdf-bytes-2",
	}
	fileSrv := testutil.NewFileServer(t, contents)

	var docs []*model.FileDescriptor
	for title, content := range contents {
		docs = append(docs, testutil.Descriptor(title, fileSrv.URL, content))
	}
	node := testutil.NewFakeNode(t, docs)

	settingsPath := testutil.WriteSettings(t, node.URL, downloadDir, metadataDir)

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--settings", settingsPath,
		"download",
		"--variable", "tas",
		"--model", "CESM2",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	for title, content := range contents {
		path := filepath.Join(downloadDir, "ScenarioMIP_100km_"+title)
		data, err := os.ReadFile(path)
		require.NoError(t, err, "downloaded file %s should exist", title)
		require.Equal(t, content, string(data))
	}

	metaPath := filepath.Join(metadataDir, "gridflow_cmip6_query_results.json")
	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	var persisted []*model.FileDescriptor
	require.NoError(t, json.Unmarshal(data, &persisted))
	require.Len(t, persisted, 2)
	require.Positive(t, node.Hits())
}

func TestDownload_DryRunTouchesNoFiles(t *testing.T) {
	tempDir := t.TempDir()
	downloadDir := filepath.Join(tempDir, "cmip6_data")
	metadataDir := filepath.Join(tempDir, "metadata")

	title := "tas_Amon_CESM2_ssp585_r1i1p1f1_201501-210012.nc"
	fileSrv := testutil.NewFileServer(t, map[string]string{title: "netcdf-bytes"})
	node := testutil.NewFakeNode(t, []*model.FileDescriptor{
		testutil.Descriptor(title, fileSrv.URL, "netcdf-bytes"),
	})
	settingsPath := testutil.WriteSettings(t, node.URL, downloadDir, metadataDir)

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--settings", settingsPath,
		"download",
		"--variable", "tas",
		"--dry-run",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	entries, err := os.ReadDir(downloadDir)
	require.NoError(t, err)
	require.Empty(t, entries, "dry run must not download anything")
}

func TestDownload_RetryFromFailureFile(t *testing.T) {
	tempDir := t.TempDir()
	downloadDir := filepath.Join(tempDir, "cmip6_data")
	metadataDir := filepath.Join(tempDir, "metadata")

	title := "tas_Amon_CESM2_ssp585_r1i1p1f1_201501-210012.nc"
	content := "netcdf-bytes"
	fileSrv := testutil.NewFileServer(t, map[string]string{title: content})
	node := testutil.NewFakeNode(t, []*model.FileDescriptor{
		testutil.Descriptor(title, fileSrv.URL, content),
	})
	settingsPath := testutil.WriteSettings(t, node.URL, downloadDir, metadataDir)

	// A failure document with a dead URL: the retry rounds must refresh it
	// from the index node before the file can come down.
	stale := testutil.Descriptor(title, fileSrv.URL, content)
	stale.URLs = []string{"http://127.0.0.1:1/" + title + "|application/netcdf|HTTPServer"}
	failureFile := filepath.Join(tempDir, "failed.json")
	data, err := json.Marshal([]*model.FileDescriptor{stale})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(failureFile, data, 0o600))

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--settings", settingsPath,
		"download",
		"--retry-failed", failureFile,
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	got, err := os.ReadFile(filepath.Join(downloadDir, "ScenarioMIP_100km_"+title))
	require.NoError(t, err)
	require.Equal(t, content, string(got))
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}
