package metrics

import (
	"fmt"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every squadify metric. It is separate from the default registry so a textfile
// only carries squadify's own series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Compile metrics
var (
	CompilesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "squadify_compiles_total",
			Help: "Total number of squad compiles",
		},
		[]string{"status"}, // "ok", "error"
	)

	CompileDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "squadify_compile_duration_seconds",
			Help:    "Time to load a squad and build its collab",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	SquadMembers = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "squadify_squad_members",
			Help:    "Members per compiled squad",
			Buckets: []float64{2, 3, 4, 5, 8, 12, 20, 50},
		},
	)
)

// Collab metrics
var (
	TracksPlacedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "squadify_tracks_placed_total",
			Help: "Collab tracks placed, by allocation phase",
		},
		[]string{"phase"},
	)

	CollabFill = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "squadify_collab_fill_ratio",
			Help:    "Collab length relative to the maximum collab size",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)
)

// Archive metrics
var (
	RunsRecordedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "squadify_runs_recorded_total",
			Help: "Runs written to the history database",
		},
		[]string{"status"}, // "ok", "error"
	)

	ReplaysTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "squadify_replays_total",
			Help: "Replayed runs, by whether the collab drifted",
		},
		[]string{"drifted"}, // "true", "false"
	)
)

// Batch metrics
var (
	BatchWorkers = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "squadify_batch_workers",
			Help: "Squads compiled concurrently by the last batch",
		},
	)

	BatchLastTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "squadify_batch_last_timestamp",
			Help: "Timestamp of the last finished batch",
		},
	)
)

// Status maps an error to the "status" label value.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveCollab records the shape of a built collab.
func ObserveCollab(result *collab.Result, cfg collab.Config) {
	SquadMembers.Observe(float64(len(result.Members)))
	for _, e := range result.Entries {
		TracksPlacedTotal.WithLabelValues(e.Phase.String()).Inc()
	}
	if cfg.MaxCollabSize > 0 {
		CollabFill.Observe(float64(len(result.Entries)) / float64(cfg.MaxCollabSize))
	}
}

// WriteTextfile writes the registry in the Prometheus text format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
