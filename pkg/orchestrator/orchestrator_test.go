package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/model"
	mocks "github.com/shahbhuwan/gridflow/pkg/orchestrator/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func desc(title string) *model.FileDescriptor {
	return &model.FileDescriptor{
		Title: title,
		URLs:  []string{"http://data.example.org/" + title + "|application/netcdf|HTTPServer"},
	}
}

func facets() map[string]string {
	return map[string]string{"variable_id": "tas", "project": "CMIP6"}
}

func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The search returns a duplicate title; only unique records reach the
	// store and the engine.
	results := []*model.FileDescriptor{desc("a.nc"), desc("b.nc"), desc("a.nc")}

	search := mocks.NewMockSearcher(ctrl)
	search.EXPECT().FetchDatasets(gomock.Any(), facets()).Return(results, nil)

	store := mocks.NewMockMetadataStore(ctrl)
	store.EXPECT().SaveMetadata(gomock.Len(2), "query_results.json").Return(nil)

	dl := mocks.NewMockBulkDownloader(ctrl)
	dl.EXPECT().DownloadAll(gomock.Any(), gomock.Len(2), "initial").
		Return([]string{"/data/a.nc", "/data/b.nc"}, nil)
	dl.EXPECT().Shutdown()

	orch := &Orchestrator{Search: search, DL: dl, Store: store}
	report, err := orch.Run(context.Background(), facets(), Options{})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.FailureFile)
}

func TestRun_FailuresGoThroughRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	results := []*model.FileDescriptor{desc("a.nc"), desc("b.nc"), desc("c.nc")}

	search := mocks.NewMockSearcher(ctrl)
	search.EXPECT().FetchDatasets(gomock.Any(), gomock.Any()).Return(results, nil)

	store := mocks.NewMockMetadataStore(ctrl)
	store.EXPECT().SaveMetadata(gomock.Len(3), "query_results.json").Return(nil)
	store.EXPECT().SaveMetadata(gomock.Len(2), "failed_downloads.json").Return(nil)
	store.EXPECT().SaveMetadata(gomock.Len(1), "failed_downloads_final.json").Return(nil)
	store.EXPECT().MetadataPath("failed_downloads_final.json").
		Return("/meta/gridflow_cmip6_failed_downloads_final.json")

	dl := mocks.NewMockBulkDownloader(ctrl)
	dl.EXPECT().DownloadAll(gomock.Any(), gomock.Len(3), "initial").
		Return([]string{"/data/a.nc"}, []*model.FileDescriptor{desc("b.nc"), desc("c.nc")})
	dl.EXPECT().RetryFailed(gomock.Any(), gomock.Len(2)).
		Return([]string{"/data/b.nc"}, []*model.FileDescriptor{desc("c.nc")})
	dl.EXPECT().Shutdown()

	orch := &Orchestrator{Search: search, DL: dl, Store: store}
	report, err := orch.Run(context.Background(), facets(), Options{})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "/meta/gridflow_cmip6_failed_downloads_final.json", report.FailureFile)
}

func TestRun_SearchErrorShutsDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	search := mocks.NewMockSearcher(ctrl)
	search.EXPECT().FetchDatasets(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("boom: %w", errors.ErrAllNodesFailed))

	dl := mocks.NewMockBulkDownloader(ctrl)
	dl.EXPECT().Shutdown()

	orch := &Orchestrator{Search: search, DL: dl, Store: mocks.NewMockMetadataStore(ctrl)}
	_, err := orch.Run(context.Background(), facets(), Options{})

	assert.ErrorIs(t, err, errors.ErrAllNodesFailed)
}

func TestRun_FilterDropsEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	search := mocks.NewMockSearcher(ctrl)
	search.EXPECT().FetchDatasets(gomock.Any(), gomock.Any()).
		Return([]*model.FileDescriptor{desc("a.nc")}, nil)

	store := mocks.NewMockMetadataStore(ctrl)
	store.EXPECT().SaveMetadata(gomock.Any(), "query_results.json").Return(nil)

	filter := mocks.NewMockDescriptorFilter(ctrl)
	filter.EXPECT().Apply(gomock.Len(1)).Return(nil, nil)

	dl := mocks.NewMockBulkDownloader(ctrl)
	dl.EXPECT().Shutdown()

	orch := &Orchestrator{Search: search, DL: dl, Store: store, Filter: filter}
	_, err := orch.Run(context.Background(), facets(), Options{})

	assert.ErrorIs(t, err, errors.ErrNoFilesFound)
}

func TestRun_DryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	search := mocks.NewMockSearcher(ctrl)
	search.EXPECT().FetchDatasets(gomock.Any(), gomock.Any()).
		Return([]*model.FileDescriptor{desc("a.nc"), desc("b.nc")}, nil)

	store := mocks.NewMockMetadataStore(ctrl)
	store.EXPECT().SaveMetadata(gomock.Any(), "query_results.json").Return(nil)

	// No DownloadAll expectation: a dry run must not touch the engine
	// beyond shutdown.
	dl := mocks.NewMockBulkDownloader(ctrl)
	dl.EXPECT().Shutdown()

	orch := &Orchestrator{Search: search, DL: dl, Store: store}
	report, err := orch.Run(context.Background(), facets(), Options{DryRun: true})

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 0, report.Succeeded)
}

func writeRetryFile(t *testing.T, descs []*model.FileDescriptor) string {
	t.Helper()
	data, err := json.Marshal(descs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "failed_downloads.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunRetryFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	path := writeRetryFile(t, []*model.FileDescriptor{desc("a.nc"), desc("b.nc")})

	dl := mocks.NewMockBulkDownloader(ctrl)
	dl.EXPECT().DownloadAll(gomock.Any(), gomock.Len(2), "initial").
		Return([]string{"/data/a.nc", "/data/b.nc"}, nil)
	dl.EXPECT().Shutdown()

	orch := &Orchestrator{DL: dl, Store: mocks.NewMockMetadataStore(ctrl)}
	report, err := orch.RunRetryFile(context.Background(), path, Options{})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
}

func TestRunRetryFile_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("missing file", func(t *testing.T) {
		dl := mocks.NewMockBulkDownloader(ctrl)
		dl.EXPECT().Shutdown()
		orch := &Orchestrator{DL: dl, Store: mocks.NewMockMetadataStore(ctrl)}
		_, err := orch.RunRetryFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"), Options{})
		assert.ErrorIs(t, err, errors.ErrRetryFileRead)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeRetryFile(t, nil)
		dl := mocks.NewMockBulkDownloader(ctrl)
		dl.EXPECT().Shutdown()
		orch := &Orchestrator{DL: dl, Store: mocks.NewMockMetadataStore(ctrl)}
		_, err := orch.RunRetryFile(context.Background(), path, Options{})
		assert.ErrorIs(t, err, errors.ErrNothingToRetry)
	})
}
