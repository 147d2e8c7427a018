// Package download implements the concurrent, fault-tolerant bulk-download
// engine: a bounded worker pool fetching files with checksum verification,
// atomic temp-file-then-rename writes, exponential backoff retries and a
// cooperative stop signal observed at every blocking point.
package download

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shahbhuwan/gridflow/internal/logger"
	pkgerrors "github.com/shahbhuwan/gridflow/pkg/errors"
	"github.com/shahbhuwan/gridflow/pkg/files"
	"github.com/shahbhuwan/gridflow/pkg/fsutil"
	"github.com/shahbhuwan/gridflow/pkg/model"
	"github.com/shahbhuwan/gridflow/pkg/stopflag"
	"golang.org/x/sync/errgroup"
)

const (
	// tmpSuffix marks in-flight transfers. A partial .tmp file is never
	// promoted to its final name, so a crash mid-stream cannot leave a
	// truncated file at the target path.
	tmpSuffix = ".tmp"

	// chunkSize is the streaming copy buffer. The stop flag is checked
	// after every chunk.
	chunkSize = 8192

	defaultConnectTimeout = 5 * time.Second

	// chunkReadTimeout bounds a single chunk read. Kept short so a peer
	// that stalls mid-body releases its worker within one interval
	// instead of holding the connection open indefinitely.
	chunkReadTimeout = 30 * time.Second

	// stopPollInterval is how often an in-flight transfer re-checks the
	// stop flag while blocked inside a read.
	stopPollInterval = 200 * time.Millisecond
)

// Options control a Downloader.
type Options struct {
	// Workers sizes the worker pool. Defaults to half the CPUs, minimum 2.
	Workers int
	// Retries is the maximum number of download attempts per file, and
	// doubles as the bound on batch retry rounds in RetryFailed.
	Retries int
	// Timeout bounds the wait for response headers. Streaming reads carry
	// a per-chunk deadline instead of a whole-transfer limit, so large
	// files are not cut off but a stalled peer still surfaces.
	Timeout time.Duration
	// MaxDownloads caps how many files one DownloadAll call processes.
	// Zero means no cap.
	MaxDownloads int
	// Username and Password enable HTTP basic auth for restricted data.
	Username string
	Password string
	// VerifySSL toggles TLS certificate verification.
	VerifySSL bool
	// Requery, when set, lets RetryFailed re-resolve fresh metadata
	// before each round. Without it, rounds reuse the stale descriptors.
	Requery Requeryer
	// Stop shares a cancellation flag with other components. A nil value
	// gives the Downloader its own flag.
	Stop *stopflag.Flag
}

// Downloader owns one worker pool and one HTTP session.
type Downloader struct {
	fm           *files.Manager
	client       *http.Client
	workers      int
	retries      int
	maxDownloads int
	username     string
	password     string
	requery      Requeryer
	stop         *stopflag.Flag
	userAgent    string
	backoff      func(attempt int) time.Duration

	succeeded atomic.Int64
	closeOnce sync.Once
}

// New creates a Downloader writing through the given file manager.
func New(fm *files.Manager, opts Options) *Downloader {
	if opts.Workers <= 0 {
		opts.Workers = max(2, runtime.NumCPU()/2)
	}
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	stop := opts.Stop
	if stop == nil {
		stop = stopflag.New()
	}

	dialer := &net.Dialer{Timeout: defaultConnectTimeout}
	transport := &http.Transport{
		// Every read on the raw connection carries its own deadline,
		// distinct from the connect timeout, so a stalled body read
		// surfaces instead of blocking a worker forever.
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readDeadlineConn{Conn: conn, timeout: chunkReadTimeout}, nil
		},
		ResponseHeaderTimeout: opts.Timeout,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: !opts.VerifySSL}, //nolint:gosec // user-togglable
	}

	return &Downloader{
		fm:           fm,
		client:       &http.Client{Transport: transport},
		workers:      opts.Workers,
		retries:      opts.Retries,
		maxDownloads: opts.MaxDownloads,
		username:     opts.Username,
		password:     opts.Password,
		requery:      opts.Requery,
		stop:         stop,
		userAgent:    "gridflow/1.0",
		backoff:      Backoff,
	}
}

// StopFlag exposes the shared cancellation signal so callers can wire the
// same flag into the query layer or an external stop request.
func (d *Downloader) StopFlag() *stopflag.Flag {
	return d.stop
}

// Succeeded returns the number of files downloaded (or verified on disk)
// over the lifetime of this Downloader.
func (d *Downloader) Succeeded() int64 {
	return d.succeeded.Load()
}

// Shutdown sets the stop signal and releases the network session. Safe to
// call multiple times; the owning orchestration calls it on every exit path.
func (d *Downloader) Shutdown() {
	d.closeOnce.Do(func() {
		d.stop.Stop()
		d.client.CloseIdleConnections()
	})
}

// DownloadFile fetches and verifies one descriptor. The retry loop is
// bounded by the attempt budget; all failures inside the budget back off
// exponentially and reuse the same in-memory descriptor. Fresh-URL
// re-resolution happens one level up, in RetryFailed.
func (d *Downloader) DownloadFile(ctx context.Context, desc *model.FileDescriptor) model.Outcome {
	if d.stop.Stopped() || ctx.Err() != nil {
		logger.Debug("skipping download, stop requested", logger.Fields{"file": title(desc)})
		return model.Cancelled(desc)
	}

	if !desc.Downloadable() {
		logger.Error("invalid file descriptor: missing title or URLs", logger.Fields{"file": title(desc)})
		return model.Failed(desc, pkgerrors.ErrInvalidDescriptor)
	}

	target := d.fm.OutputPath(desc)

	// Idempotent short-circuit: an existing, verified file costs zero
	// network calls. A corrupt cached file is deleted, never served.
	if _, err := os.Stat(target); err == nil {
		if verr := verifyChecksum(target, desc); verr == nil {
			logger.Info("file already exists", logger.Fields{"file": desc.Title})
			d.succeeded.Add(1)
			return model.Downloaded(desc, target)
		}
		logger.Warn("existing file failed verification, re-downloading", logger.Fields{"file": desc.Title})
		if rmErr := os.Remove(target); rmErr != nil {
			logger.Error("failed to remove stale file", logger.Fields{"file": desc.Title, "error": rmErr.Error()})
		}
	}

	downloadURL, ok := desc.HTTPURL()
	if !ok {
		logger.Error("no HTTP transport URL on record", logger.Fields{"file": desc.Title})
		return model.Failed(desc, pkgerrors.ErrNoHTTPURL)
	}

	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		if d.stop.Stopped() {
			return model.Cancelled(desc)
		}

		logger.Debug("downloading file", logger.Fields{
			"file":    desc.Title,
			"url":     downloadURL,
			"attempt": fmt.Sprintf("%d/%d", attempt, d.retries),
		})

		err := d.fetchOnce(ctx, downloadURL, desc, target)
		if err == nil {
			logger.Info("downloaded file", logger.Fields{"file": desc.Title, "path": target})
			d.succeeded.Add(1)
			return model.Downloaded(desc, target)
		}
		if errors.Is(err, pkgerrors.ErrDownloadStopped) {
			return model.Cancelled(desc)
		}

		lastErr = err
		logger.Warn("download attempt failed", logger.Fields{
			"file":    desc.Title,
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < d.retries {
			d.sleep(ctx, d.backoff(attempt))
		}
	}

	logger.Error("failed to download file, attempt budget exhausted", logger.Fields{
		"file":     desc.Title,
		"attempts": d.retries,
	})
	return model.Failed(desc, fmt.Errorf("%d attempts exhausted, last error: %v: %w", d.retries, lastErr, pkgerrors.ErrDownloadFailed))
}

// fetchOnce performs a single streamed transfer into <target>.tmp and
// promotes it with an atomic rename after verification. The request runs
// under a derived context that the stop flag cancels, so Shutdown reaches
// a transfer blocked mid-read.
func (d *Downloader) fetchOnce(ctx context.Context, downloadURL string, desc *model.FileDescriptor, target string) error {
	if err := fsutil.EnsureDir(filepath.Dir(target)); err != nil {
		return pkgerrors.Wrap(err, "could not create target directory")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go d.cancelOnStop(ctx, cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, http.NoBody)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", d.userAgent)
	if d.username != "" && d.password != "" {
		req.SetBasicAuth(d.username, d.password)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, pkgerrors.ErrDownloadFailed)
	}

	tmpPath := target + tmpSuffix
	written, err := d.streamToTemp(resp, tmpPath)
	if err != nil {
		return err
	}

	if err := verifyChecksum(tmpPath, desc); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := fsutil.Move(tmpPath, target); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	logger.Debug("transfer complete", logger.Fields{"file": desc.Title, "size": humanize.Bytes(uint64(written))})
	return nil
}

// streamToTemp copies the response body chunk by chunk, polling the stop
// flag after every chunk. On stop the partial temp file is abandoned; it is
// never promoted, so the final path stays clean.
func (d *Downloader) streamToTemp(resp *http.Response, tmpPath string) (int64, error) {
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "could not create temp file")
	}

	var written int64
	buf := make([]byte, chunkSize)
	for {
		if d.stop.Stopped() {
			_ = out.Close()
			return written, pkgerrors.ErrDownloadStopped
		}
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				_ = out.Close()
				return written, pkgerrors.Wrap(werr, "could not write temp file")
			}
			written += int64(n)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			_ = out.Close()
			if d.stop.Stopped() {
				return written, pkgerrors.ErrDownloadStopped
			}
			return written, pkgerrors.Wrap(rerr, "read failed")
		}
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		return written, pkgerrors.Wrap(err, "could not sync temp file")
	}
	return written, out.Close()
}

// DownloadAll fans the descriptors out over the worker pool and collects
// outcomes in completion order. Every submitted descriptor ends in exactly
// one of the returned lists unless cancellation cuts the batch short, in
// which case the sum may be smaller but no descriptor appears twice.
func (d *Downloader) DownloadAll(ctx context.Context, descs []*model.FileDescriptor, phase string) ([]string, []*model.FileDescriptor) {
	total := len(descs)
	if d.maxDownloads > 0 && d.maxDownloads < total {
		total = d.maxDownloads
	}
	if total == 0 {
		logger.Info("no files to download")
		return nil, nil
	}
	if d.stop.Stopped() {
		logger.Info("batch skipped, stop requested", logger.Fields{"phase": phase})
		return nil, nil
	}

	results := make(chan model.Outcome, total)
	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	submitted := 0
	for _, desc := range descs[:total] {
		if d.stop.Stopped() {
			break
		}
		submitted++
		g.Go(func() error {
			results <- d.DownloadFile(ctx, desc)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	var downloaded []string
	var failed []*model.FileDescriptor
	progress := newProgress(submitted, phase)

	for outcome := range results {
		switch outcome.Status {
		case model.StatusDownloaded:
			downloaded = append(downloaded, outcome.Path)
		case model.StatusFailed:
			failed = append(failed, outcome.Descriptor)
		case model.StatusCancelled:
			// Deliberately in neither list: a user stop is not a failure.
		}
		progress.step(len(downloaded), len(failed))

		if d.stop.Stopped() {
			logger.Info("download batch stopped", logger.Fields{"phase": phase})
			break
		}
	}

	return downloaded, failed
}

// RetryFailed drives bounded batch-level retry rounds over still-failed
// descriptors. Each round first re-resolves fresh metadata per descriptor;
// records the catalog no longer serves are dropped from further automatic
// retry and carried straight into the final failure list.
func (d *Downloader) RetryFailed(ctx context.Context, failed []*model.FileDescriptor) ([]string, []*model.FileDescriptor) {
	if len(failed) == 0 {
		logger.Info("no failed files to retry")
		return nil, nil
	}

	var downloaded []string
	var permanent []*model.FileDescriptor
	remaining := failed

	for round := 1; round <= d.retries && len(remaining) > 0; round++ {
		if d.stop.Stopped() {
			logger.Info("retry stopped by user", logger.Fields{"round": round})
			break
		}
		logger.Info("retry round", logger.Fields{"round": round, "files": len(remaining)})

		toAttempt := make([]*model.FileDescriptor, 0, len(remaining))
		for _, desc := range remaining {
			if d.stop.Stopped() {
				// Not re-resolved this round; keep for the final report.
				permanent = append(permanent, desc)
				continue
			}
			fresh := desc
			if d.requery != nil {
				refreshed, err := d.requery.FetchSpecificFile(ctx, desc)
				if err != nil {
					logger.Error("could not refresh metadata, dropping from retry", logger.Fields{
						"file":  desc.Title,
						"error": err.Error(),
					})
					permanent = append(permanent, desc)
					continue
				}
				fresh = refreshed
			}
			toAttempt = append(toAttempt, fresh)
		}

		roundDownloaded, roundFailed := d.DownloadAll(ctx, toAttempt, fmt.Sprintf("retry-%d", round))
		downloaded = append(downloaded, roundDownloaded...)
		remaining = roundFailed
	}

	return downloaded, append(remaining, permanent...)
}

// cancelOnStop polls the stop flag for the lifetime of one request and
// cancels the request context when it fires, releasing any read the
// transfer is blocked in.
func (d *Downloader) cancelOnStop(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.stop.Stopped() {
				cancel()
				return
			}
		}
	}
}

// readDeadlineConn arms a fresh read deadline before every Read so the
// transport's streaming reads are individually bounded.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

// sleep blocks for the backoff interval, waking early if the request
// context is cancelled. The stop flag is re-read at the next loop boundary.
func (d *Downloader) sleep(ctx context.Context, interval time.Duration) {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func title(desc *model.FileDescriptor) string {
	if desc == nil {
		return ""
	}
	return desc.Title
}
