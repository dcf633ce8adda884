package collab

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/squadify/internal/shared"
)

// Entry is one track of a compiled collab.
type Entry struct {
	Track     Track    `json:"track"`
	Frequency int      `json:"frequency"`
	Members   []string `json:"members"`
	Phase     Phase    `json:"phase"`
}

// MemberShare reports how a member fared.
type MemberShare struct {
	Member string `json:"member"`
	Added  int    `json:"added"` // collab tracks the member contributed
	Pool   int    `json:"pool"`  // eligible tracks the member had before allocation
}

// Result is a compiled collab.
type Result struct {
	Entries  []Entry       `json:"entries"`
	MinShare int           `json:"min_share"` // per-member target of the minimum share phase
	Members  []MemberShare `json:"members"`
}

// Tracks returns the collab as plain tracks, in order.
func (r *Result) Tracks() []Track {
	tracks := make([]Track, len(r.Entries))
	for i, e := range r.Entries {
		tracks[i] = e.Track
	}
	return tracks
}

// Option configures a [Builder].
type Option func(*Builder)

// WithSeed makes the builder shuffle with a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return func(b *Builder) {
		b.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand makes the builder shuffle with r.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) {
		if r != nil {
			b.rng = r
		}
	}
}

// WithLogger sets the logger phase summaries are written to at debug level.
func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// Builder compiles collabs. A Builder is not safe for concurrent use.
type Builder struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger
}

// NewBuilder returns a Builder for cfg. Without [WithSeed] or [WithRand] it
// shuffles with a randomly seeded source.
func NewBuilder(cfg Config, opts ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if b.logger == nil {
		b.logger = shared.DiscardLogger()
	}

	return b, nil
}

// Config returns the tunables the builder was created with.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build merges playlists into a collab.
func (b *Builder) Build(playlists []Playlist) (*Result, error) {
	reg, err := buildRegistry(playlists, b.cfg, b.rng)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("registry built", "members", len(reg.members), "tracks", len(reg.tracks), "tiers", len(reg.tiers))

	alloc := newAllocator(b.cfg, reg, b.logger)
	alloc.run()

	result := &Result{
		Entries:  make([]Entry, len(alloc.out)),
		MinShare: b.cfg.MinTracksPerMember(len(reg.members)),
		Members:  make([]MemberShare, len(reg.members)),
	}

	for i, p := range alloc.out {
		rec := reg.tracks[p.track]
		result.Entries[i] = Entry{
			Track:     rec.track,
			Frequency: rec.frequency(),
			Members:   reg.memberNames(rec.owners),
			Phase:     p.phase,
		}
	}

	for m, name := range reg.members {
		result.Members[m] = MemberShare{Member: name, Added: alloc.added[m], Pool: reg.pools[m]}
	}

	return result, nil
}

// Build compiles playlists with the default tunables and an unseeded source.
func Build(playlists []Playlist) ([]Track, error) {
	b, err := NewBuilder(DefaultConfig())
	if err != nil {
		return nil, err
	}

	result, err := b.Build(playlists)
	if err != nil {
		return nil, err
	}

	return result.Tracks(), nil
}
