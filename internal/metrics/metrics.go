package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WordsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "words_ingested_total",
		Help: "The total number of stemmed words added to the sketch",
	}, []string{"source"}) // source: file, cdc, api

	SketchTotalCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sketch_total_count",
		Help: "The number of add operations the sketch has absorbed",
	})

	DistinctWordsEstimate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sketch_distinct_words_estimate",
		Help: "HyperLogLog estimate of distinct words seen",
	})

	SaturatedCounters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sketch_saturated_counters",
		Help: "Counters pinned at their maximum value",
	})

	EstimateOverCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sketch_estimate_overcount",
		Help:    "Sketch estimate minus exact count, per word, from the last accuracy check",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
