package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusdesk_queries_total",
		Help: "Queries handled, labelled by how they were answered.",
	}, []string{"outcome"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campusdesk_query_duration_seconds",
		Help:    "End-to-end latency of the query pipeline.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusdesk_response_cache_hits_total",
		Help: "Answers served straight from the response cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusdesk_response_cache_misses_total",
		Help: "Queries that had to run generation.",
	})

	ProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusdesk_provider_failures_total",
		Help: "External provider failures, labelled by capability.",
	}, []string{"capability"})

	CorpusChunks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campusdesk_corpus_chunks",
		Help: "Chunks in the active corpus snapshot.",
	})
)

// Query outcome label values.
const (
	OutcomeGreeting  = "greeting"
	OutcomeKnowledge = "knowledge"
	OutcomeCached    = "cached"
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
	OutcomeNoDocs    = "no_documents"
	OutcomeError     = "error"
)
