// Package esgf resolves facet-based search requests against an ordered list
// of redundant federated ESGF index nodes. The wire format is the esg-search
// Solr JSON contract: GET with type=File, format=application/solr+json,
// pagination by limit/offset against the reported numFound.
package esgf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
)

// Client queries federated search nodes with failover. The node list is
// immutable after construction; tests inject fake endpoints.
type Client struct {
	nodes     []string
	client    *http.Client
	pageLimit int
	stop      *stopflag.Flag
	userAgent string
}

// NewClient creates a search client. Nodes are tried in the given priority
// order. A nil stop flag disables cooperative cancellation checks.
func NewClient(nodes []string, timeout time.Duration, pageLimit int, stop *stopflag.Flag) *Client {
	if pageLimit <= 0 {
		pageLimit = 1000
	}
	return &Client{
		nodes:     nodes,
		client:    &http.Client{Timeout: timeout},
		pageLimit: pageLimit,
		stop:      stop,
		userAgent: "gridflow/1.0",
	}
}

// solrResponse is the subset of the esg-search response driving pagination.
type solrResponse struct {
	Response struct {
		NumFound int                     `json:"numFound"`
		Docs     []*model.FileDescriptor `json:"docs"`
	} `json:"response"`
}

// FetchDatasets resolves a facet set into a deduplicated descriptor list.
// It stops at the first node returning at least one result: node redundancy
// is for failover, not cross-node merging, which would require reconciling
// differently formatted record IDs. If every node errors or comes back
// empty, the whole run has nothing to act on and the error is fatal.
//
// Cancellation is checked between node attempts and between pages; a fired
// stop flag returns the partial set collected so far.
func (c *Client) FetchDatasets(ctx context.Context, facets map[string]string) ([]*model.FileDescriptor, error) {
	var nodeErrs *multierror.Error

	for _, node := range c.nodes {
		if c.stop.Stopped() {
			logger.Info("stopping query, stop requested")
			return nil, errors.ErrDownloadStopped
		}

		logger.Info("querying search node", logger.Fields{"node": node})
		docs, err := c.fetchFromNode(ctx, node, facets)
		if err != nil {
			logger.Error("search node failed", logger.Fields{"node": node, "error": err.Error()})
			nodeErrs = multierror.Append(nodeErrs, errors.Wrapf(err, "node %s", node))
			continue
		}

		unique := model.Deduplicate(docs)
		if len(unique) > 0 {
			logger.Info("search node responded", logger.Fields{"node": node, "files": len(unique)})
			return unique, nil
		}
		logger.Warn("no files found at node, trying next", logger.Fields{"node": node})
	}

	if err := nodeErrs.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(errors.ErrAllNodesFailed, err.Error())
	}
	return nil, errors.ErrAllNodesFailed
}

// FetchSpecificFile re-resolves one descriptor's fresh metadata for the
// batch retry path. Download URLs captured at initial query time go stale;
// retries must never reuse a URL across rounds. Returns ErrFileNotFound if
// no node still serves the record.
func (c *Client) FetchSpecificFile(ctx context.Context, desc *model.FileDescriptor) (*model.FileDescriptor, error) {
	facets := map[string]string{
		"title":         desc.Title,
		"variable_id":   desc.Variable(),
		"source_id":     desc.Source(),
		"experiment_id": desc.Experiment(),
		"frequency":     desc.Freq(),
		"variant_label": desc.Variant(),
		"activity_id":   desc.Activity(),
	}
	for k, v := range facets {
		if v == "" {
			delete(facets, k)
		}
	}

	for _, node := range c.nodes {
		if c.stop.Stopped() {
			return nil, errors.ErrDownloadStopped
		}
		docs, err := c.fetchFromNode(ctx, node, facets)
		if err != nil {
			logger.Error("failed to re-query file", logger.Fields{"node": node, "title": desc.Title, "error": err.Error()})
			continue
		}
		for _, d := range docs {
			if d.Title == desc.Title {
				logger.Debug("refreshed file metadata", logger.Fields{"node": node, "title": desc.Title})
				return d, nil
			}
		}
		logger.Warn("file not found at node, trying next", logger.Fields{"node": node, "title": desc.Title})
	}
	return nil, errors.Wrapf(errors.ErrFileNotFound, "%s", desc.Title)
}

// fetchFromNode drains every result page from one node. The endpoint is not
// retried within a fetch cycle; any error fails over to the next node.
func (c *Client) fetchFromNode(ctx context.Context, node string, facets map[string]string) ([]*model.FileDescriptor, error) {
	var docs []*model.FileDescriptor
	offset := 0

	for {
		if c.stop.Stopped() {
			return docs, nil
		}

		page, numFound, err := c.fetchPage(ctx, node, facets, offset)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)
		logger.Debug("fetched result page", logger.Fields{"node": node, "page": len(page), "total": numFound})

		// An empty page before numFound is reached means the node is
		// misreporting its total; stop rather than loop forever.
		if len(page) == 0 || offset+len(page) >= numFound {
			return docs, nil
		}
		offset += len(page)
	}
}

func (c *Client) fetchPage(ctx context.Context, node string, facets map[string]string, offset int) ([]*model.FileDescriptor, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildQuery(node, facets, offset), http.NoBody)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to create search request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, "search request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to read search response")
	}

	var parsed solrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, errors.Wrap(err, "malformed search response")
	}
	return parsed.Response.Docs, parsed.Response.NumFound, nil
}

// buildQuery assembles the esg-search URL. The record-type, response-format
// and distributed-search parameters are fixed by the external contract.
func (c *Client) buildQuery(node string, facets map[string]string, offset int) string {
	params := url.Values{}
	params.Set("type", "File")
	params.Set("format", "application/solr+json")
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("distrib", "true")
	params.Set("offset", strconv.Itoa(offset))
	for k, v := range facets {
		params.Set(k, v)
	}
	return node + "?" + params.Encode()
}
