package prism

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shahbhuwan/gridflow/internal/logger"
	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 10 * time.Second

// Prober answers whether a planned archive URL actually exists. The archive
// publishes no index, so presence is established per URL: HEAD first, with a
// GET fallback for servers that reject HEAD.
type Prober struct {
	client *http.Client
	stop   *stopflag.Flag
}

// NewProber creates a Prober sharing the run's stop flag.
func NewProber(stop *stopflag.Flag) *Prober {
	if stop == nil {
		stop = stopflag.New()
	}
	return &Prober{
		client: &http.Client{Timeout: probeTimeout},
		stop:   stop,
	}
}

// Available reports whether the descriptor's URL answers 200.
func (p *Prober) Available(ctx context.Context, desc *model.FileDescriptor) bool {
	url, ok := desc.HTTPURL()
	if !ok {
		return false
	}

	if ok, err := p.probe(ctx, http.MethodHead, url); err == nil && ok {
		return true
	}
	logger.Debug("HEAD probe inconclusive, falling back to GET", logger.Fields{"url": url})

	ok, err := p.probe(ctx, http.MethodGet, url)
	if err != nil {
		logger.Warn("data unavailable, skipping", logger.Fields{"file": desc.Title, "error": err.Error()})
		return false
	}
	if !ok {
		logger.Debug("data unavailable, skipping", logger.Fields{"file": desc.Title})
	}
	return ok
}

func (p *Prober) probe(ctx context.Context, method, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return false, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}

// FilterAvailable probes the chunk in parallel and returns the descriptors
// the archive actually serves, in the input order. Probing stops early when
// the stop flag is raised; unprobed descriptors are treated as unavailable.
func (p *Prober) FilterAvailable(ctx context.Context, descs []*model.FileDescriptor, workers int) []*model.FileDescriptor {
	if workers <= 0 {
		workers = len(descs)
	}

	available := make([]bool, len(descs))
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, desc := range descs {
		if p.stop.Stopped() {
			break
		}
		g.Go(func() error {
			ok := p.Available(ctx, desc)
			mu.Lock()
			available[i] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var kept []*model.FileDescriptor
	for i, desc := range descs {
		if available[i] {
			kept = append(kept, desc)
		}
	}
	return kept
}
