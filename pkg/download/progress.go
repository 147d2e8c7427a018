package download

import "github.com/shahbhuwan/gridflow/internal/logger"

// progressTracker reports batch completion at roughly ten percent steps so
// large batches stay quiet between milestones.
type progressTracker struct {
	total    int
	phase    string
	interval int
	next     int
}

func newProgress(total int, phase string) *progressTracker {
	interval := total / 10
	if interval < 1 {
		interval = 1
	}
	return &progressTracker{total: total, phase: phase, interval: interval, next: interval}
}

func (p *progressTracker) step(downloaded, failed int) {
	done := downloaded + failed
	if done < p.next && done != p.total {
		return
	}
	logger.Info("download progress", logger.Fields{
		"phase":      p.phase,
		"done":       done,
		"total":      p.total,
		"downloaded": downloaded,
		"failed":     failed,
	})
	for p.next <= done {
		p.next += p.interval
	}
}
