// Package reaper periodically sweeps the metadata store for expired
// files and removes them (spec §4.10).
package reaper

import (
	"context"
	"time"

	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/logger"
	"github.com/scotow/dropit/internal/metastore"
)

// DefaultInterval is used when Config.Interval is zero.
const DefaultInterval = 60 * time.Second

// Recorder observes sweep outcomes. Metrics implements it; nil is fine.
type Recorder interface {
	ReaperDeletion()
	FileRemoved(size int64)
}

// Config configures the sweep cadence and optional metrics recorder.
type Config struct {
	Interval time.Duration
	Metrics  Recorder
}

// Reaper deletes expired files on a timer, independent of the HTTP
// request scheduler.
type Reaper struct {
	meta     metastore.Store
	blobs    *blobstore.Store
	interval time.Duration
	metrics  Recorder
}

// New builds a Reaper.
func New(meta metastore.Store, blobs *blobstore.Store, cfg Config) *Reaper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{meta: meta, blobs: blobs, interval: interval, metrics: cfg.Metrics}
}

// Run loops until ctx is cancelled, sweeping every interval. Each id's
// removal is independent: one failure is logged and does not stop the
// scan or the loop.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	expired, err := r.meta.SelectExpired(ctx, time.Now())
	if err != nil {
		logger.ErrorCtx(ctx, "reaper: select expired failed", "error", err)
		return
	}
	for _, f := range expired {
		if err := r.blobs.Delete(f.ID); err != nil {
			logger.ErrorCtx(ctx, "reaper: blob delete failed", "id", f.ID, "error", err)
			continue
		}
		if err := r.meta.Delete(ctx, f.ID); err != nil {
			logger.ErrorCtx(ctx, "reaper: row delete failed", "id", f.ID, "error", err)
			continue
		}
		if r.metrics != nil {
			r.metrics.ReaperDeletion()
			r.metrics.FileRemoved(f.Size)
		}
	}
}
