// Package metrics contains prometheus collectors of the content store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/monadsocial/agora/internal/storage"
)

// nolint:gochecknoglobals
var (
	// SnapshotWrites counts snapshot writes by collection and result.
	SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_snapshot_writes_total",
		Help: "Total number of snapshot writes by collection and result",
	}, []string{"collection", "result"})

	// FlushLatency records duration of a full flush of all collections.
	FlushLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agora_flush_latency_seconds",
		Help:    "Full flush latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// CollectionSize is the number of records in a collection at the last flush.
	CollectionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agora_collection_size",
		Help: "Number of records in a collection",
	}, []string{"collection"})
)

// ObserveWrite records result of a single snapshot write.
func ObserveWrite(c storage.Collection, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SnapshotWrites.WithLabelValues(string(c), result).Inc()
}

// TrackFlush returns a function that records flush latency when called (e.g. defer).
func TrackFlush() func() {
	start := time.Now()
	return func() {
		FlushLatency.Observe(time.Since(start).Seconds())
	}
}
