package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the MLB data pipeline

var (
	// Load metrics
	FilesLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_files_loaded_total",
			Help: "Total number of payload files processed by the loader",
		},
		[]string{"kind", "status"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlb_load_duration_seconds",
			Help:    "Duration of single-file loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RowsUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_rows_upserted_total",
			Help: "Total number of rows written by the loader",
		},
		[]string{"table"},
	)

	// Enrichment metrics
	EnrichmentLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_enrichment_lookups_total",
			Help: "Total number of schedule metadata lookups",
		},
		[]string{"outcome"},
	)

	// API call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_api_calls_total",
			Help: "Total number of MLB Stats API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mlb_api_call_duration_seconds",
			Help:    "Duration of API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Extraction metrics
	GamesExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_games_extracted_total",
			Help: "Total number of games written as combined payload files",
		},
		[]string{"status"},
	)

	// Ingestion totals
	TeamsIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlb_teams_ingested_total",
			Help: "Total number of teams in database",
		},
	)

	PlayersIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlb_players_ingested_total",
			Help: "Total number of players in database",
		},
	)

	GamesIngested = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlb_games_ingested_total",
			Help: "Total number of games in database",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mlb_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mlb_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordFileLoaded records the outcome and duration of one file load
func RecordFileLoaded(kind, status string, duration float64) {
	FilesLoadedTotal.WithLabelValues(kind, status).Inc()
	LoadDuration.WithLabelValues(kind).Observe(duration)
}

// RecordRowUpserted records one row written to the given table
func RecordRowUpserted(table string) {
	RowsUpsertedTotal.WithLabelValues(table).Inc()
}

// RecordEnrichment records the outcome of a metadata lookup
func RecordEnrichment(outcome string) {
	EnrichmentLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordAPICall records an API call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateIngestionStats updates ingestion statistics
func UpdateIngestionStats(teams, players, games int64) {
	TeamsIngested.Set(float64(teams))
	PlayersIngested.Set(float64(players))
	GamesIngested.Set(float64(games))
}
