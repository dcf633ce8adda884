package tasks

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/models"
	"github.com/desertthunder/squadify/internal/repositories"
	"github.com/desertthunder/squadify/internal/shared"
	tu "github.com/desertthunder/squadify/internal/testing"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func writeRoadTrip(t *testing.T, dir string) string {
	t.Helper()
	return tu.WriteSquad(t, dir, "road trip",
		tu.SquadMember{Name: "nick", Tracks: [][]string{{"Kids", "MGMT"}, {"Dear Maria", "All Time Low"}, {"Fever Dream", "Palaye Royale"}, {"Solo", "Nobody"}}},
		tu.SquadMember{Name: "thomas", Tracks: [][]string{{"Kids", "MGMT"}, {"Dear Maria", "All Time Low"}, {"High Hopes", "Panic! at the Disco"}}},
		tu.SquadMember{Name: "hershal", Tracks: [][]string{{"Kids", "MGMT"}, {"High Hopes", "Panic! at the Disco"}, {"Fever Dream", "Palaye Royale"}}},
	)
}

func seed(v uint64) *uint64 { return &v }

// failingStore is a RunStore whose writes always fail
type failingStore struct{}

func (failingStore) Create(*models.Run) error { return errors.New("disk full") }
func (failingStore) Get(string) (*models.Run, error) { return nil, shared.ErrRunNotFound }
func (failingStore) GetBySequence(int) (*models.Run, error) { return nil, shared.ErrRunNotFound }

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	return updates
}

func TestCompile(t *testing.T) {
	t.Run("builds and archives", func(t *testing.T) {
		repo := repositories.NewRunRepository(setupTestDB(t))
		engine := NewCompileEngine(nil, repo, nil)
		path := writeRoadTrip(t, t.TempDir())

		progress := make(chan ProgressUpdate, 32)
		out, err := engine.Compile(context.Background(), progress, path, CompileOpts{
			Config: collab.DefaultConfig(),
			Seed:   seed(7),
			Save:   true,
		})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		if out.Squad.Name != "road trip" || out.Seed != 7 {
			t.Errorf("unexpected compile result %+v", out)
		}
		// Solo is below the floor; the other four tracks are shared
		if len(out.Result.Entries) != 4 {
			t.Errorf("expected 4 tracks, got %d", len(out.Result.Entries))
		}
		if out.Run == nil || out.Run.ID() == "" {
			t.Fatal("expected an archived run")
		}

		stored, err := repo.Get(out.Run.ID())
		if err != nil {
			t.Fatalf("failed to read archived run: %v", err)
		}
		if stored.Seed() != 7 || len(stored.Tracks()) != 4 {
			t.Errorf("unexpected archived run: seed %d, %d tracks", stored.Seed(), len(stored.Tracks()))
		}

		phases := map[Phase]bool{}
		for _, u := range drain(progress) {
			phases[u.Phase] = true
		}
		for _, p := range []Phase{LoadSquad, BuildCollab, RecordRun} {
			if !phases[p] {
				t.Errorf("missing %s progress", p)
			}
		}
	})

	t.Run("fresh seed is reported", func(t *testing.T) {
		engine := NewCompileEngine(nil, nil, nil)
		path := writeRoadTrip(t, t.TempDir())

		first, err := engine.Compile(context.Background(), nil, path, CompileOpts{Config: collab.DefaultConfig()})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		again, err := engine.Compile(context.Background(), nil, path, CompileOpts{Config: collab.DefaultConfig(), Seed: seed(first.Seed)})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		for i, e := range first.Result.Entries {
			if !e.Track.Same(again.Result.Entries[i].Track) {
				t.Fatalf("compiling with the reported seed gave a different collab at %d", i)
			}
		}
	})

	t.Run("progress never blocks", func(t *testing.T) {
		engine := NewCompileEngine(nil, nil, nil)
		path := writeRoadTrip(t, t.TempDir())

		progress := make(chan ProgressUpdate)
		if _, err := engine.Compile(context.Background(), progress, path, CompileOpts{Config: collab.DefaultConfig()}); err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
	})

	errorCases := []struct {
		name  string
		store RunStore
		opts  CompileOpts
		path  func(t *testing.T) string
		want  error
	}{
		{
			name: "save without archive",
			opts: CompileOpts{Config: collab.DefaultConfig(), Save: true},
			path: func(t *testing.T) string { return writeRoadTrip(t, t.TempDir()) },
			want: shared.ErrMissingConfig,
		},
		{
			name: "invalid config",
			opts: CompileOpts{Config: collab.Config{}},
			path: func(t *testing.T) string { return writeRoadTrip(t, t.TempDir()) },
			want: shared.ErrInvalidConfig,
		},
		{
			name: "missing manifest",
			opts: CompileOpts{Config: collab.DefaultConfig()},
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.toml") },
			want: shared.ErrSquadNotFound,
		},
		{
			name: "no readable playlists",
			opts: CompileOpts{Config: collab.DefaultConfig()},
			path: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "squad.toml")
				tu.MustWriteFile(t, path, "[[members]]\nname = \"a\"\nplaylist = \"gone.csv\"\n")
				return path
			},
			want: collab.ErrNoPlaylists,
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewCompileEngine(nil, tc.store, nil)
			if _, err := engine.Compile(context.Background(), nil, tc.path(t), tc.opts); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("archive failure keeps the collab", func(t *testing.T) {
		engine := NewCompileEngine(nil, failingStore{}, nil)
		out, err := engine.Compile(context.Background(), nil, writeRoadTrip(t, t.TempDir()), CompileOpts{Config: collab.DefaultConfig(), Save: true})
		if err == nil || !strings.Contains(err.Error(), "disk full") {
			t.Fatalf("expected archive error, got %v", err)
		}
		if out == nil || out.Result == nil {
			t.Error("expected the built collab to be returned alongside the error")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		engine := NewCompileEngine(nil, nil, nil)
		if _, err := engine.Compile(ctx, nil, writeRoadTrip(t, t.TempDir()), CompileOpts{Config: collab.DefaultConfig()}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestReplay(t *testing.T) {
	setup := func(t *testing.T) (*CompileEngine, string, *CompileResult) {
		t.Helper()
		repo := repositories.NewRunRepository(setupTestDB(t))
		engine := NewCompileEngine(nil, repo, nil)
		path := writeRoadTrip(t, t.TempDir())

		cfg := collab.Config{MaxCollabSize: 3, MinFrequency: 2, MinShareFactor: 0.5}
		out, err := engine.Compile(context.Background(), nil, path, CompileOpts{Config: cfg, Seed: seed(99), Save: true})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		return engine, path, out
	}

	t.Run("by id", func(t *testing.T) {
		engine, path, original := setup(t)

		replayed, err := engine.Replay(context.Background(), nil, original.Run.ID(), path)
		if err != nil {
			t.Fatalf("Replay() error = %v", err)
		}
		if replayed.Drifted {
			t.Error("expected an unchanged squad to replay identically")
		}
		if replayed.Seed != 99 || replayed.Config != original.Config {
			t.Errorf("expected archived seed and config, got %d %+v", replayed.Seed, replayed.Config)
		}
		if len(replayed.Result.Entries) != 3 {
			t.Errorf("expected 3 tracks, got %d", len(replayed.Result.Entries))
		}
	})

	t.Run("by sequence with drift", func(t *testing.T) {
		engine, path, _ := setup(t)

		// the squad changes after the run was archived
		dir := filepath.Dir(path)
		tu.WriteSquad(t, dir, "road trip",
			tu.SquadMember{Name: "nick", Tracks: [][]string{{"Other", "Band"}, {"Another", "Band"}}},
			tu.SquadMember{Name: "thomas", Tracks: [][]string{{"Other", "Band"}, {"Another", "Band"}}},
		)

		progress := make(chan ProgressUpdate, 32)
		replayed, err := engine.Replay(context.Background(), progress, "1", path)
		if err != nil {
			t.Fatalf("Replay() error = %v", err)
		}
		if !replayed.Drifted {
			t.Error("expected drift after the playlists changed")
		}
		if len(replayed.Archived.Entries) != 3 {
			t.Errorf("expected the archived collab alongside, got %d tracks", len(replayed.Archived.Entries))
		}

		var sawLoadRun bool
		for _, u := range drain(progress) {
			sawLoadRun = sawLoadRun || u.Phase == LoadRun
		}
		if !sawLoadRun {
			t.Error("expected load_run progress")
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		engine, path, _ := setup(t)
		if _, err := engine.Replay(context.Background(), nil, "missing", path); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("no archive", func(t *testing.T) {
		engine := NewCompileEngine(nil, nil, nil)
		if _, err := engine.Replay(context.Background(), nil, "1", "squad.toml"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tt := map[Phase]string{
		LoadSquad:   "load_squad",
		BuildCollab: "build_collab",
		RecordRun:   "record_run",
		LoadRun:     "load_run",
		WriteOutput: "write_output",
		Phase(99):   "",
	}
	for p, want := range tt {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}
