package collab

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/squadify/internal/shared"
)

func build(t *testing.T, cfg Config, seed uint64, playlists []Playlist) *Result {
	t.Helper()

	builder, err := NewBuilder(cfg, WithSeed(seed))
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	result, err := builder.Build(playlists)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return result
}

func numbered(prefix string, n int, artist string) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = tr(fmt.Sprintf("%s%d", prefix, i+1), artist)
	}
	return tracks
}

func TestDisjointPlaylists(t *testing.T) {
	playlists := []Playlist{
		{Member: "nick", Tracks: numbered("n", 3, "a")},
		{Member: "thomas", Tracks: numbered("t", 3, "b")},
	}

	t.Run("floor applied before allocation", func(t *testing.T) {
		result := build(t, DefaultConfig(), 1, playlists)

		if len(result.Entries) != 0 {
			t.Errorf("expected an empty collab, got %d tracks", len(result.Entries))
		}
		if result.MinShare != 12 {
			t.Errorf("expected min share 12, got %d", result.MinShare)
		}
		for _, share := range result.Members {
			if share.Added != 0 || share.Pool != 0 {
				t.Errorf("unexpected share %+v", share)
			}
		}
	})

	t.Run("share below floor", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ShareBelowFloor = true
		result := build(t, cfg, 1, playlists)

		if len(result.Entries) != 6 {
			t.Fatalf("expected 6 tracks, got %d", len(result.Entries))
		}
		for _, e := range result.Entries {
			if e.Phase != PhaseMinimumShare {
				t.Errorf("%s placed by %v, want minimum share", e.Track.Title, e.Phase)
			}
		}
		for _, share := range result.Members {
			if share.Added != 3 || share.Pool != 3 {
				t.Errorf("expected %s to contribute all 3 tracks, got %+v", share.Member, share)
			}
		}
	})
}

func TestIdenticalTrackAppearsOnce(t *testing.T) {
	playlists := []Playlist{
		{Member: "a", Tracks: []Track{tr("A", "x", "y")}},
		{Member: "b", Tracks: []Track{tr("A", "y", "x")}},
		{Member: "c", Tracks: []Track{tr("A", "x", "y", "x")}},
	}

	result := build(t, DefaultConfig(), 1, playlists)

	if len(result.Entries) != 1 {
		t.Fatalf("expected one track, got %d", len(result.Entries))
	}
	entry := result.Entries[0]
	if entry.Frequency != 3 {
		t.Errorf("expected frequency 3, got %d", entry.Frequency)
	}
	if !slices.Equal(entry.Members, []string{"a", "b", "c"}) {
		t.Errorf("unexpected members %v", entry.Members)
	}
	for _, share := range result.Members {
		if share.Added != 1 {
			t.Errorf("expected the shared track to count for %s, got %+v", share.Member, share)
		}
	}
}

func TestHugeMaxCollabSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCollabSize = math.MaxInt

	playlists := []Playlist{
		{Member: "a", Tracks: []Track{tr("Kids", "MGMT")}},
		{Member: "b", Tracks: []Track{tr("Kids", "MGMT")}},
	}

	result := build(t, cfg, 1, playlists)

	if len(result.Entries) != 1 {
		t.Fatalf("expected the one shared track, got %d", len(result.Entries))
	}
	if result.Entries[0].Track.Title != "Kids" {
		t.Errorf("unexpected entry %+v", result.Entries[0])
	}
}

func TestOverflowingTierDefersToRemainder(t *testing.T) {
	common := numbered("s", 8, "x")
	playlists := []Playlist{
		{Member: "a", Tracks: append(slices.Clone(common), tr("Y", "y"))},
		{Member: "b", Tracks: common},
		{Member: "c", Tracks: common},
		{Member: "d", Tracks: []Track{tr("Y", "y")}},
	}

	cfg := Config{MaxCollabSize: 5, MinFrequency: 2, MinShareFactor: 1}
	result := build(t, cfg, 3, playlists)

	if result.MinShare != 1 {
		t.Fatalf("expected min share 1, got %d", result.MinShare)
	}

	wantPhases := []Phase{PhaseMinimumShare, PhaseMinimumShare, PhaseRemainder, PhaseRemainder, PhaseRemainder}
	if len(result.Entries) != len(wantPhases) {
		t.Fatalf("expected %d tracks, got %d", len(wantPhases), len(result.Entries))
	}
	for i, e := range result.Entries {
		if e.Phase != wantPhases[i] {
			t.Errorf("entry %d (%s) placed by %v, want %v", i, e.Track.Title, e.Phase, wantPhases[i])
		}
	}
	if got := result.Entries[1].Track.Title; got != "Y" {
		t.Errorf("expected d's only track second, got %q", got)
	}

	counts := phases(result)
	if counts[PhaseTierSweep] != 0 || counts[PhaseRemainder] != 3 {
		t.Errorf("unexpected phase counts %v", counts)
	}

	wantAdded := map[string]int{"a": 5, "b": 4, "c": 4, "d": 1}
	for _, share := range result.Members {
		if share.Added != wantAdded[share.Member] {
			t.Errorf("%s added %d, want %d", share.Member, share.Added, wantAdded[share.Member])
		}
	}
}

func TestMinimumShareIsEvenForEqualPools(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinFrequency = 1

	for _, size := range []int{5, 12, 20} {
		t.Run(fmt.Sprintf("pool of %d", size), func(t *testing.T) {
			result := build(t, cfg, 2, []Playlist{
				{Member: "a", Tracks: numbered("a", size, "x")},
				{Member: "b", Tracks: numbered("b", size, "y")},
			})

			perMember := map[string]int{}
			for _, e := range result.Entries {
				if e.Phase == PhaseMinimumShare {
					perMember[e.Members[0]]++
				}
			}

			want := min(size, result.MinShare)
			if perMember["a"] != want || perMember["b"] != want {
				t.Errorf("minimum share placed %v, want %d each", perMember, want)
			}
		})
	}
}

func TestSameSeedSameCollab(t *testing.T) {
	playlists := []Playlist{
		{Member: "a", Tracks: numbered("t", 30, "x")},
		{Member: "b", Tracks: numbered("t", 30, "x")},
	}
	cfg := Config{MaxCollabSize: 10, MinFrequency: 2, MinShareFactor: 0.5}

	titles := func(r *Result) []string {
		var out []string
		for _, track := range r.Tracks() {
			out = append(out, track.Title)
		}
		return out
	}

	first := titles(build(t, cfg, 42, playlists))
	second := titles(build(t, cfg, 42, playlists))
	if !slices.Equal(first, second) {
		t.Fatalf("same seed gave %v and %v", first, second)
	}

	differs := false
	for seed := uint64(1); seed <= 10 && !differs; seed++ {
		differs = !slices.Equal(first, titles(build(t, cfg, seed, playlists)))
	}
	if !differs {
		t.Error("expected ties to be broken differently under other seeds")
	}
}

func TestCollabProperties(t *testing.T) {
	gen := rand.New(rand.NewPCG(99, 99))
	pool := numbered("song", 40, "band")

	for trial := range 200 {
		members := 1 + gen.IntN(6)
		playlists := make([]Playlist, members)
		for m := range playlists {
			playlists[m].Member = fmt.Sprintf("m%d", m)
			for range gen.IntN(25) {
				playlists[m].Tracks = append(playlists[m].Tracks, pool[gen.IntN(len(pool))])
			}
		}

		cfg := Config{
			MaxCollabSize:   1 + gen.IntN(20),
			MinFrequency:    1 + gen.IntN(3),
			MinShareFactor:  gen.Float64(),
			ShareBelowFloor: gen.IntN(2) == 0,
		}

		result := build(t, cfg, uint64(trial), playlists)

		if len(result.Entries) > cfg.MaxCollabSize {
			t.Fatalf("trial %d: %d tracks exceed max %d", trial, len(result.Entries), cfg.MaxCollabSize)
		}

		seen := map[Key]bool{}
		added := map[string]int{}
		for _, e := range result.Entries {
			if seen[e.Track.Key()] {
				t.Fatalf("trial %d: %s placed twice", trial, e.Track.Title)
			}
			seen[e.Track.Key()] = true

			if e.Frequency < cfg.MinFrequency && (!cfg.ShareBelowFloor || e.Phase != PhaseMinimumShare) {
				t.Fatalf("trial %d: %s has frequency %d below floor %d (phase %v, share below floor %v)",
					trial, e.Track.Title, e.Frequency, cfg.MinFrequency, e.Phase, cfg.ShareBelowFloor)
			}
			if e.Frequency != len(e.Members) {
				t.Fatalf("trial %d: frequency %d but members %v", trial, e.Frequency, e.Members)
			}
			for _, m := range e.Members {
				added[m]++
			}
		}

		for _, share := range result.Members {
			if share.Added != added[share.Member] {
				t.Fatalf("trial %d: %s reported %d added, counted %d", trial, share.Member, share.Added, added[share.Member])
			}
			if share.Added > share.Pool {
				t.Fatalf("trial %d: %s added %d from a pool of %d", trial, share.Member, share.Added, share.Pool)
			}
		}
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("no playlists", func(t *testing.T) {
		_, err := Build(nil)
		if !errors.Is(err, ErrNoPlaylists) || !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrNoPlaylists, got %v", err)
		}
	})

	t.Run("invalid track names its member", func(t *testing.T) {
		_, err := Build([]Playlist{{Member: "nick", Tracks: []Track{tr("ok", "x"), {Title: "missing artists"}}}})
		if !errors.Is(err, ErrInvalidTrack) {
			t.Fatalf("expected ErrInvalidTrack, got %v", err)
		}
		if want := `member "nick" track 1`; !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	})

	t.Run("degenerate input is not an error", func(t *testing.T) {
		tracks, err := Build([]Playlist{{Member: "a"}, {Member: "b", Tracks: []Track{tr("x", "y")}}})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if len(tracks) != 0 {
			t.Errorf("expected no tracks, got %v", tracks)
		}
	})
}

func TestBuilderOptions(t *testing.T) {
	t.Run("WithRand", func(t *testing.T) {
		playlists := []Playlist{
			{Member: "a", Tracks: numbered("t", 10, "x")},
			{Member: "b", Tracks: numbered("t", 10, "x")},
		}

		b1, _ := NewBuilder(DefaultConfig(), WithRand(rand.New(rand.NewPCG(4, 4))))
		b2, _ := NewBuilder(DefaultConfig(), WithSeed(4))

		r1, _ := b1.Build(playlists)
		r2, _ := b2.Build(playlists)
		if !slices.EqualFunc(r1.Tracks(), r2.Tracks(), Track.Same) {
			t.Error("expected WithRand and WithSeed with the same PCG seed to agree")
		}
	})

	t.Run("nil options fall back to defaults", func(t *testing.T) {
		b, err := NewBuilder(DefaultConfig(), WithRand(nil), WithLogger(nil))
		if err != nil {
			t.Fatalf("NewBuilder() error = %v", err)
		}
		if b.rng == nil || b.logger == nil {
			t.Error("expected default rng and logger")
		}
		if b.Config() != DefaultConfig() {
			t.Errorf("Config() = %+v", b.Config())
		}
	})
}
