// Package metrics exposes resolution and provider counters to Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "booksearch",
		Name:      "resolutions_total",
		Help:      "Total ISBN resolutions by outcome and answering source",
	}, []string{"outcome", "source"})
	sourceFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "booksearch",
		Name:      "source_fetches_total",
		Help:      "Total provider lookups by source and status",
	}, []string{"source", "status"})
	resolutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "booksearch",
		Name:      "resolution_duration_seconds",
		Help:      "Histogram of resolution durations in seconds by outcome",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms up to ~10s
	}, []string{"outcome"})

	storedBooksDesc = prometheus.NewDesc(
		"booksearch_books_stored",
		"Number of book records in the store",
		nil, nil,
	)
)

// Resolution outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
)

// Counter reports the current number of stored books.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// StoreCollector reads the book count from the store on each scrape.
type StoreCollector struct {
	store Counter
}

func NewStoreCollector(store Counter) *StoreCollector {
	return &StoreCollector{store: store}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- storedBooksDesc
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := c.store.Count(ctx)
	if err != nil {
		slog.Error("failed to collect stored book count", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(storedBooksDesc, prometheus.GaugeValue, float64(n))
}

// Register adds the package collectors to reg. Only the first call has effect.
// A nil store skips the stored book gauge.
func Register(reg prometheus.Registerer, store Counter) {
	registerOnce.Do(func() {
		reg.MustRegister(resolutions, sourceFetches, resolutionDuration)
		if store != nil {
			reg.MustRegister(NewStoreCollector(store))
		}
	})
}

func ObserveResolution(outcome, source string, elapsed time.Duration) {
	resolutions.WithLabelValues(outcome, source).Inc()
	resolutionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func IncSourceFetch(source, status string) {
	sourceFetches.WithLabelValues(source, status).Inc()
}
