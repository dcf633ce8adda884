// Package collab merges the playlists of a squad into one bounded "collab" playlist.
//
// # Pipeline
//
// [Builder.Build] runs three stages over private, per-call state:
//
//  1. Registry: tracks are deduplicated by identity (title plus the set of artist names, see [Track.Key]).
//     Each logical track records the members that contributed it; its frequency is the number of those members.
//     Tracks under [Config.MinFrequency] are dropped, the rest are shuffled and stable-sorted by descending
//     frequency, so ties come out in a different order on every unseeded run.
//  2. Ownership index: every member sees their own tracks in that global order through a doubly-linked list
//     threaded through the shared track records. A synthetic all-members list gives the global order.
//     Removing a track unlinks it from every list it belongs to in O(owners).
//  3. Allocator: three greedy phases fill the collab.
//     [PhaseMinimumShare] gives every member up to floor(MaxCollabSize / members * MinShareFactor) tracks.
//     [PhaseTierSweep] takes whole frequency tiers, highest first, while the whole tier still fits.
//     [PhaseRemainder] fills what is left from the next tier, one track at a time, always serving the
//     member with the fewest tracks in the collab.
//
// # Frequency floor
//
// By default the floor is applied in the registry, so no output track has fewer than MinFrequency members.
// With [Config.ShareBelowFloor] set, members keep their sub-floor tracks and the minimum share phase may
// place them; the later phases still never go below the floor. [Entry.Phase] tells the cases apart.
//
// # Randomness
//
// The shuffle source is injected with [WithSeed] or [WithRand]. The same seed and input always produce the same collab.
//
// # Errors
//
// Only precondition violations are errors: no playlists ([ErrNoPlaylists]), a blank member ([ErrInvalidMember])
// or a track without a title or artists ([ErrInvalidTrack]). All of them wrap [shared.ErrInvalidInput].
package collab
