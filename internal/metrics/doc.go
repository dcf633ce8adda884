// Package metrics provides Prometheus instrumentation for squadify.
//
// squadify runs as a short-lived CLI, so nothing is scraped. The metrics live in their own
// [Registry] and are written with [WriteTextfile] when a command is given --metrics-file,
// which node_exporter's textfile collector picks up. All metrics are prefixed with "squadify_".
//
// # Metric Categories
//
//   - Compile: CompilesTotal by status, CompileDuration, SquadMembers
//   - Collab: TracksPlacedTotal by allocation phase, CollabFill
//   - Archive: RunsRecordedTotal by status, ReplaysTotal by drift
//   - Batch: BatchWorkers, BatchLastTimestamp
package metrics
