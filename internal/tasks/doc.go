// Package tasks compiles squads into collabs with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.Compile] : squad manifest → collab
//     - Loads the squad and each member's playlist
//     - Builds the collab with the given tunables and seed (a fresh seed when none is given)
//     - Archives the run when asked, so it can be replayed later
//
//  2. [Engine.Replay] : archived run → collab
//     - Looks the run up by ID or sequence number
//     - Rebuilds it from a squad manifest with the archived seed and tunables
//     - Reports whether the rebuilt collab drifted from the archived one
//
// [CompileEngine.CompileBatch] runs Compile for several manifests on a worker pool and writes every
// collab to an output directory along with a batch manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
package tasks
