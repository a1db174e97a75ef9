package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of a single ScoringEngine.Rank call
	RankLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_rank_latency_seconds",
		Help:    "Latency of ranking one candidate set",
		Buckets: prometheus.DefBuckets,
	})

	// Items returned to clients, by algorithm
	RecommendationsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_recommendations_served_total",
		Help: "Total number of recommended items returned",
	}, []string{"algorithm"})

	// Variant resolutions by source (user, session, token, hashed)
	AssignmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "experiment_assignments_total",
		Help: "Experiment assignments by resolution source",
	}, []string{"source"})

	TelemetryEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_events_total",
		Help: "Telemetry rows stored by event name",
	}, []string{"event_name"})

	DuplicateClicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_duplicate_clicks_total",
		Help: "Clicks suppressed by the duplicate window",
	})

	// Writes that failed and were dropped (assignment upserts, telemetry inserts)
	StorageWriteFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_write_failures_total",
		Help: "Best-effort writes that failed",
	}, []string{"target"})
)

func Init() {
	prometheus.MustRegister(
		RankLatency,
		RecommendationsServed,
		AssignmentsTotal,
		TelemetryEventsTotal,
		DuplicateClicksTotal,
		StorageWriteFailures,
	)
}
