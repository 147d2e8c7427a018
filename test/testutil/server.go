// Package testutil provides fake services for exercising the pipeline
// end to end without the network: an index node speaking the federated
// search wire format, and a data server handing out file bytes.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/stretchr/testify/require"
)

// FakeNode is an in-process index node serving a fixed record set with
// correct pagination.
type FakeNode struct {
	*httptest.Server
	hits atomic.Int64
	docs []*model.FileDescriptor
}

type solrPage struct {
	Response struct {
		NumFound int                     `json:"numFound"`
		Docs     []*model.FileDescriptor `json:"docs"`
	} `json:"response"`
}

// NewFakeNode starts a node serving the given records. Close it with
// t.Cleanup via httptest's usual mechanism or an explicit Close.
func NewFakeNode(t *testing.T, docs []*model.FileDescriptor) *FakeNode {
	t.Helper()
	node := &FakeNode{docs: docs}
	node.Server = httptest.NewServer(http.HandlerFunc(node.handle))
	t.Cleanup(node.Server.Close)
	return node
}

// Hits reports how many search requests the node has answered.
func (n *FakeNode) Hits() int64 {
	return n.hits.Load()
}

func (n *FakeNode) handle(w http.ResponseWriter, r *http.Request) {
	n.hits.Add(1)

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = len(n.docs)
	}

	matched := n.match(r)
	var page solrPage
	page.Response.NumFound = len(matched)
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		page.Response.Docs = matched[offset:end]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

// match applies the title facet when present, so the re-query path of the
// retry rounds resolves individual records.
func (n *FakeNode) match(r *http.Request) []*model.FileDescriptor {
	title := r.URL.Query().Get("title")
	if title == "" {
		return n.docs
	}
	var matched []*model.FileDescriptor
	for _, doc := range n.docs {
		if doc.Title == title {
			matched = append(matched, doc)
		}
	}
	return matched
}

// NewFileServer serves the given contents keyed by filename.
func NewFileServer(t *testing.T, contents map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := contents[path.Base(r.URL.Path)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(content))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Descriptor builds a record pointing at the file server, with a correct
// sha256 checksum for the content.
func Descriptor(title, fileServerURL, content string) *model.FileDescriptor {
	sum := sha256.Sum256([]byte(content))
	return &model.FileDescriptor{
		ID:           "test." + title,
		Title:        title,
		ActivityID:   []string{"ScenarioMIP"},
		VariableID:   []string{"tas"},
		SourceID:     []string{"CESM2"},
		VariantLabel: []string{"r1i1p1f1"},
		Checksum:     []string{hex.EncodeToString(sum[:])},
		ChecksumType: []string{"SHA256"},
		URLs:         []string{fileServerURL + "/" + title + "|application/netcdf|HTTPServer"},
	}
}

// WriteSettings writes a minimal settings file pointing the pipeline at the
// fake node and temporary directories, and returns its path.
func WriteSettings(t *testing.T, nodeURL, downloadDir, metadataDir string) string {
	t.Helper()
	settings := "nodes:\n" +
		"  - " + nodeURL + "\n" +
		"settings:\n" +
		"  download_dir: " + downloadDir + "\n" +
		"  metadata_dir: " + metadataDir + "\n" +
		"  save_mode: flat\n" +
		"  workers: 2\n" +
		"  retries: 2\n" +
		"  timeout: 5s\n" +
		"  page_limit: 1000\n" +
		"  verify_ssl: true\n"

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(settings), 0o600))
	return path
}
