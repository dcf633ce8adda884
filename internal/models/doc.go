// Package models defines the persisted entities of squadify.
//
// squadify does not store squads or playlists. It archives compiles:
//   - [Run] : one compile with its squad name, seed, tunables, and member count
//   - [RunTrack] : one ordered entry of the collab a run produced
//
// A run's seed and tunables are enough to rebuild its collab from the same squad manifest.
//
// All persistent entities implement the Model interface providing ID, timestamps, and validation.
// The Repository[T] interface defines the data access operations.
package models
