package prism

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shahbhuwan/gridflow/pkg/download"
	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/files"
	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipPayload(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// fakeArchive serves a PRISM-shaped tree for a fixed set of dates.
func fakeArchive(t *testing.T, availableDates map[string][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for token, payload := range availableDates {
			if strings.HasSuffix(r.URL.Path, token+".zip") {
				if r.Method == http.MethodHead {
					w.WriteHeader(http.StatusOK)
					return
				}
				_, _ = w.Write(payload)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func newTestRunner(t *testing.T, extract bool) (*Runner, *files.Manager, string) {
	t.Helper()
	downloadDir := t.TempDir()
	fm, err := files.NewManager(downloadDir, t.TempDir(), files.SaveModeFlat, MetadataPrefix)
	require.NoError(t, err)
	dl := download.New(fm, download.Options{Workers: 2, Retries: 2, Timeout: 5 * time.Second})
	t.Cleanup(dl.Shutdown)
	return NewRunner(fm, dl, extract), fm, downloadDir
}

func TestRunner_Run(t *testing.T) {
	payload := zipPayload(t, "prism_tmean_us_25m_202001.bil", "raster")
	srv := fakeArchive(t, map[string][]byte{
		"202001": payload,
		"202002": payload,
		// 202003 is not published.
	})
	defer srv.Close()

	runner, fm, _ := newTestRunner(t, false)
	req := &Request{
		Variable:   "tmean",
		Resolution: "4km",
		TimeStep:   StepMonthly,
		StartDate:  "2020-01",
		EndDate:    "2020-03",
		BaseURL:    srv.URL,
	}

	downloaded, failed, err := runner.Run(context.Background(), req, 2)
	require.NoError(t, err)
	assert.Len(t, downloaded, 2)
	assert.Empty(t, failed)

	// All confirmed-available records are persisted, whether or not the
	// transfer itself succeeded.
	descs, err := files.LoadDescriptors(fm.MetadataPath("query_results.json"))
	require.NoError(t, err)
	assert.Len(t, descs, 2)
}

func TestRunner_Run_NothingAvailable(t *testing.T) {
	srv := fakeArchive(t, nil)
	defer srv.Close()

	runner, _, _ := newTestRunner(t, false)
	req := &Request{
		Variable:   "tmean",
		Resolution: "4km",
		TimeStep:   StepMonthly,
		StartDate:  "2020-01",
		EndDate:    "2020-02",
		BaseURL:    srv.URL,
	}

	_, _, err := runner.Run(context.Background(), req, 2)
	assert.ErrorIs(t, err, errors.ErrNoPrismFiles)
}

func TestRunner_Run_StoppedIsNotNoFiles(t *testing.T) {
	payload := zipPayload(t, "prism_tmean_us_25m_202001.bil", "raster")
	srv := fakeArchive(t, map[string][]byte{"202001": payload})
	defer srv.Close()

	runner, _, _ := newTestRunner(t, false)
	runner.dl.StopFlag().Stop()

	req := &Request{
		Variable:   "tmean",
		Resolution: "4km",
		TimeStep:   StepMonthly,
		StartDate:  "2020-01",
		EndDate:    "2020-03",
		BaseURL:    srv.URL,
	}

	_, _, err := runner.Run(context.Background(), req, 2)
	assert.ErrorIs(t, err, errors.ErrDownloadStopped)
	assert.NotErrorIs(t, err, errors.ErrNoPrismFiles)
}

func TestRunner_Run_InvalidRequest(t *testing.T) {
	runner, _, _ := newTestRunner(t, false)
	_, _, err := runner.Run(context.Background(), &Request{Variable: "bogus"}, 2)
	assert.ErrorIs(t, err, errors.ErrPrismVariable)
}

func TestRunner_Run_Extract(t *testing.T) {
	payload := zipPayload(t, "prism_tmean_us_25m_202001.bil", "raster bytes")
	srv := fakeArchive(t, map[string][]byte{"202001": payload})
	defer srv.Close()

	runner, _, _ := newTestRunner(t, true)
	req := &Request{
		Variable:   "tmean",
		Resolution: "4km",
		TimeStep:   StepMonthly,
		StartDate:  "2020-01",
		EndDate:    "2020-01",
		BaseURL:    srv.URL,
	}

	downloaded, _, err := runner.Run(context.Background(), req, 2)
	require.NoError(t, err)
	require.Len(t, downloaded, 1)

	extractedDir := strings.TrimSuffix(downloaded[0], ".zip")
	data, err := os.ReadFile(filepath.Join(extractedDir, "prism_tmean_us_25m_202001.bil"))
	require.NoError(t, err)
	assert.Equal(t, "raster bytes", string(data))
}

func TestProber_HeadRejectedFallsBackToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := NewProber(stopflag.New())
	desc := &model.FileDescriptor{
		Title: "x.zip",
		URLs:  []string{srv.URL + "/x.zip|application/zip|HTTPServer"},
	}
	assert.True(t, prober.Available(context.Background(), desc))
}

func TestProber_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	prober := NewProber(stopflag.New())
	desc := &model.FileDescriptor{
		Title: "x.zip",
		URLs:  []string{srv.URL + "/x.zip|application/zip|HTTPServer"},
	}
	assert.False(t, prober.Available(context.Background(), desc))
}
