package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackmirror_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "slackmirror_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Archive metrics
	ConversationsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackmirror_conversations_merged_total",
			Help: "Total number of conversation merge-and-write operations",
		},
		[]string{"kind", "status"},
	)

	MessagesArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackmirror_messages_archived_total",
			Help: "Total number of newly fetched messages merged into the archive",
		},
	)

	DuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackmirror_merge_duplicates_dropped_total",
			Help: "Total number of boundary-duplicate messages dropped during merges",
		},
	)

	ArchiveRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackmirror_archive_runs_total",
			Help: "Total number of archive runs",
		},
		[]string{"status"},
	)

	ArchiveRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "slackmirror_archive_run_duration_seconds",
			Help: "Duration of archive runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Corpus metrics
	CorpusLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slackmirror_corpus_loads_total",
			Help: "Total number of corpus loads from disk",
		},
	)

	CorpusMessages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slackmirror_corpus_messages",
			Help: "Number of messages in the most recently loaded corpus",
		},
	)

	// Search metrics
	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackmirror_search_queries_total",
			Help: "Total number of search queries",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "slackmirror_search_duration_seconds",
			Help: "Duration of search queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Analytics metrics
	AnalyticsRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackmirror_analytics_runs_total",
			Help: "Total number of analytics derivations",
		},
		[]string{"kind", "status"},
	)

	AnalyticsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "slackmirror_analytics_duration_seconds",
			Help: "Duration of analytics derivations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Slack API metrics
	SlackAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slackmirror_slack_api_calls_total",
			Help: "Total number of Slack API calls",
		},
		[]string{"method", "status"},
	)
)
