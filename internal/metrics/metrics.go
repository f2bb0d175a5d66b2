// Package metrics exposes dropit's Prometheus counters and gauges:
// upload/download activity, quota rejections, reaper deletions and
// live blob bytes, grounded on the teacher's prometheus.With(reg)
// construction style (pkg/metrics/prometheus). dropit has no import-cycle
// pressure the teacher's indirection works around, so the registry and
// the metric set live in one package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector dropit registers. A nil *Metrics is
// valid and every method is a no-op on it, so callers that build
// without metrics enabled can pass nil through unconditionally.
type Metrics struct {
	uploadsTotal       *prometheus.CounterVec
	uploadBytesTotal   prometheus.Counter
	downloadsTotal     *prometheus.CounterVec
	downloadBytesTotal prometheus.Counter
	quotaRejections    *prometheus.CounterVec
	reaperDeletions    prometheus.Counter
	activeFiles        prometheus.Gauge
	activeBytes        prometheus.Gauge
}

// New registers dropit's collectors against reg and returns the handle.
// Pass prometheus.NewRegistry() or prometheus.DefaultRegisterer wrapped
// accordingly; reg must not be nil.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropit_uploads_total",
				Help: "Total number of upload attempts by outcome.",
			},
			[]string{"outcome"}, // "accepted", "rejected"
		),
		uploadBytesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dropit_upload_bytes_total",
				Help: "Total bytes accepted through successful uploads.",
			},
		),
		downloadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropit_downloads_total",
				Help: "Total number of files served by download kind.",
			},
			[]string{"kind"}, // "single", "archive"
		),
		downloadBytesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dropit_download_bytes_total",
				Help: "Total bytes streamed to clients.",
			},
		),
		quotaRejections: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dropit_quota_rejections_total",
				Help: "Total uploads rejected by quota predicate.",
			},
			[]string{"predicate"}, // the upload handler records "chain"; it does not tell origin and global apart
		),
		reaperDeletions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dropit_reaper_deletions_total",
				Help: "Total files removed by the background reaper.",
			},
		),
		activeFiles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dropit_active_files",
				Help: "Current number of live files.",
			},
		),
		activeBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dropit_active_bytes",
				Help: "Current number of bytes held in the blob store.",
			},
		),
	}
}

func (m *Metrics) UploadAccepted(size int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues("accepted").Inc()
	m.uploadBytesTotal.Add(float64(size))
	m.activeFiles.Inc()
	m.activeBytes.Add(float64(size))
}

func (m *Metrics) UploadRejected() {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues("rejected").Inc()
}

func (m *Metrics) QuotaRejected(predicate string) {
	if m == nil {
		return
	}
	m.quotaRejections.WithLabelValues(predicate).Inc()
}

func (m *Metrics) DownloadServed(kind string, bytes int64) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(kind).Inc()
	m.downloadBytesTotal.Add(float64(bytes))
}

// FileRemoved accounts for a file leaving the store, whether via
// download exhaustion, revocation or reaping.
func (m *Metrics) FileRemoved(size int64) {
	if m == nil {
		return
	}
	m.activeFiles.Dec()
	m.activeBytes.Sub(float64(size))
}

func (m *Metrics) ReaperDeletion() {
	if m == nil {
		return
	}
	m.reaperDeletions.Inc()
}
