package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/shared"
)

// RunTrack is one archived collab entry.
type RunTrack struct {
	Position   int      `json:"position"`
	ExternalID string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Frequency  int      `json:"frequency"`
	Members    []string `json:"members"`
	Phase      string   `json:"phase"`
}

// Run is an archived compile: the tunables and seed it ran with and the collab it produced.
type Run struct {
	id          string
	sequence    int
	squad       string
	seed        uint64
	config      collab.Config
	memberCount int
	tracks      []RunTrack
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewRun archives result, compiled for squad with cfg and seed.
func NewRun(sequence int, squad string, seed uint64, cfg collab.Config, result *collab.Result) *Run {
	now := time.Now()
	run := &Run{
		sequence:  sequence,
		squad:     squad,
		seed:      seed,
		config:    cfg,
		createdAt: now,
		updatedAt: now,
	}

	if result == nil {
		return run
	}

	run.memberCount = len(result.Members)
	run.tracks = make([]RunTrack, len(result.Entries))
	for i, e := range result.Entries {
		run.tracks[i] = RunTrack{
			Position:   i + 1,
			ExternalID: e.Track.ID,
			Title:      e.Track.Title,
			Artists:    e.Track.Artists,
			Frequency:  e.Frequency,
			Members:    e.Members,
			Phase:      e.Phase.String(),
		}
	}

	return run
}

func (r *Run) ID() string { return r.id }
func (r *Run) Sequence() int { return r.sequence }
func (r *Run) Squad() string { return r.squad }
func (r *Run) Seed() uint64 { return r.seed }
func (r *Run) Config() collab.Config { return r.config }
func (r *Run) MemberCount() int { return r.memberCount }
func (r *Run) Tracks() []RunTrack { return r.tracks }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

// SeedString is the seed as stored: sqlite integers are signed, seeds are not.
func (r *Run) SeedString() string {
	return strconv.FormatUint(r.seed, 10)
}

func (r *Run) SetID(id string) { r.id = id }
func (r *Run) SetSequence(sequence int) { r.sequence = sequence }
func (r *Run) SetMemberCount(n int) { r.memberCount = n }
func (r *Run) SetTracks(tracks []RunTrack) { r.tracks = tracks }
func (r *Run) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// SetSeedString parses a stored seed.
func (r *Run) SetSeedString(s string) error {
	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: seed %q: %v", shared.ErrInvalidInput, s, err)
	}
	r.seed = seed
	return nil
}

// Entries rebuilds the archived collab entries.
func (r *Run) Entries() ([]collab.Entry, error) {
	entries := make([]collab.Entry, len(r.tracks))
	for i, t := range r.tracks {
		phase, err := collab.ParsePhase(t.Phase)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", t.Position, err)
		}
		entries[i] = collab.Entry{
			Track:     collab.Track{ID: t.ExternalID, Title: t.Title, Artists: t.Artists},
			Frequency: t.Frequency,
			Members:   t.Members,
			Phase:     phase,
		}
	}
	return entries, nil
}

// Result rebuilds the archived collab. Member shares are not archived.
func (r *Run) Result() (*collab.Result, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	return &collab.Result{
		Entries:  entries,
		MinShare: r.config.MinTracksPerMember(r.memberCount),
	}, nil
}

// Validate checks the run has a squad, valid tunables, and tracks within the collab bound.
func (r *Run) Validate() error {
	if strings.TrimSpace(r.squad) == "" {
		return fmt.Errorf("%w: run has no squad", shared.ErrInvalidInput)
	}
	if err := r.config.Validate(); err != nil {
		return err
	}
	if len(r.tracks) > r.config.MaxCollabSize {
		return fmt.Errorf("%w: %d tracks exceed max collab size %d", shared.ErrInvalidInput, len(r.tracks), r.config.MaxCollabSize)
	}
	return nil
}
