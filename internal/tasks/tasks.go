// package tasks compiles squads into collabs and archives the runs.
//
// The core abstraction is CompileEngine, which orchestrates loading, building, and recording.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/metrics"
	"github.com/desertthunder/squadify/internal/models"
	"github.com/desertthunder/squadify/internal/shared"
	"github.com/desertthunder/squadify/internal/squad"
)

// RunStore archives runs. Implemented by repositories.RunRepository.
type RunStore interface {
	Create(run *models.Run) error
	Get(id string) (*models.Run, error)
	GetBySequence(sequence int) (*models.Run, error)
}

// CompileOpts controls a single compile.
type CompileOpts struct {
	Config collab.Config
	Seed   *uint64 // nil draws a fresh seed, which is reported and archived
	Save   bool    // archive the run
}

// CompileResult contains everything a compile produced.
type CompileResult struct {
	Squad  *squad.Squad
	Seed   uint64
	Config collab.Config
	Result *collab.Result
	Run    *models.Run // set when the run was archived, or the run being replayed
}

// ReplayResult is a rebuilt run next to its archived collab.
type ReplayResult struct {
	*CompileResult
	Archived *collab.Result
	Drifted  bool // the rebuilt collab differs from the archived one, so the squad's playlists changed
}

// Engine defines the compile operations.
type Engine interface {
	// Compile loads the squad at manifestPath, builds its collab, and optionally archives the run.
	Compile(ctx context.Context, progress chan<- ProgressUpdate, manifestPath string, opts CompileOpts) (*CompileResult, error)

	// Replay rebuilds an archived run from the squad at manifestPath with the run's seed and tunables.
	Replay(ctx context.Context, progress chan<- ProgressUpdate, ref, manifestPath string) (*ReplayResult, error)
}

// CompileEngine implements Engine.
// Contains dependencies on the squad loader and, optionally, the run archive.
type CompileEngine struct {
	loader *squad.Loader
	runs   RunStore
	logger *log.Logger
	mu     sync.Mutex // serializes archive writes
}

// NewCompileEngine creates a new CompileEngine. runs may be nil when nothing is archived.
func NewCompileEngine(loader *squad.Loader, runs RunStore, logger *log.Logger) *CompileEngine {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if loader == nil {
		loader = squad.NewLoader(logger)
	}
	return &CompileEngine{loader: loader, runs: runs, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *CompileEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Compile loads a squad, builds its collab, and archives the run when opts.Save is set.
func (e *CompileEngine) Compile(ctx context.Context, progress chan<- ProgressUpdate, manifestPath string, opts CompileOpts) (*CompileResult, error) {
	if opts.Save && e.runs == nil {
		return nil, fmt.Errorf("%w: no run archive configured", shared.ErrMissingConfig)
	}

	start := time.Now()
	e.sendProgress(progress, loadingSquadUpdate(manifestPath))

	s, err := e.loader.Load(ctx, manifestPath)
	if err != nil {
		metrics.CompilesTotal.WithLabelValues(metrics.Status(err)).Inc()
		return nil, err
	}
	e.sendProgress(progress, loadedSquadUpdate(s))

	seed := rand.Uint64()
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	result, err := e.build(ctx, progress, s, seed, opts.Config)
	metrics.CompilesTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.CompileDuration.Observe(time.Since(start).Seconds())
	metrics.ObserveCollab(result, opts.Config)

	out := &CompileResult{Squad: s, Seed: seed, Config: opts.Config, Result: result}

	if opts.Save {
		run, err := e.record(progress, s.Name, seed, opts.Config, result)
		if err != nil {
			return out, err
		}
		out.Run = run
	}

	return out, nil
}

func (e *CompileEngine) build(ctx context.Context, progress chan<- ProgressUpdate, s *squad.Squad, seed uint64, cfg collab.Config) (*collab.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	builder, err := collab.NewBuilder(cfg, collab.WithSeed(seed), collab.WithLogger(shared.WithLogger(e.logger, "squad", s.Name)))
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, buildingCollabUpdate(seed))

	result, err := builder.Build(s.Playlists)
	if err != nil {
		return nil, fmt.Errorf("failed to build collab for %s: %w", s.Name, err)
	}

	e.sendProgress(progress, builtCollabUpdate(result))
	e.logger.Info("compiled collab", "squad", s.Name, "seed", seed, "tracks", len(result.Entries))

	return result, nil
}

func (e *CompileEngine) record(progress chan<- ProgressUpdate, name string, seed uint64, cfg collab.Config, result *collab.Result) (*models.Run, error) {
	e.sendProgress(progress, recordingRunUpdate())

	run := models.NewRun(0, name, seed, cfg, result)

	e.mu.Lock()
	err := e.runs.Create(run)
	e.mu.Unlock()
	metrics.RunsRecordedTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	e.sendProgress(progress, recordedRunUpdate(run))
	return run, nil
}

// Replay rebuilds an archived run. ref is a run ID or a sequence number.
func (e *CompileEngine) Replay(ctx context.Context, progress chan<- ProgressUpdate, ref, manifestPath string) (*ReplayResult, error) {
	if e.runs == nil {
		return nil, fmt.Errorf("%w: no run archive configured", shared.ErrMissingConfig)
	}

	run, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, loadedRunUpdate(run))

	archived, err := run.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read archived run: %w", err)
	}

	seed := run.Seed()
	compiled, err := e.Compile(ctx, progress, manifestPath, CompileOpts{Config: run.Config(), Seed: &seed})
	if err != nil {
		return nil, err
	}
	compiled.Run = run

	if compiled.Squad.Name != run.Squad() {
		e.logger.Warn("replaying a run against a different squad", "run_squad", run.Squad(), "squad", compiled.Squad.Name)
	}

	drifted := !slices.EqualFunc(compiled.Result.Tracks(), archived.Tracks(), func(a, b collab.Track) bool {
		return a.Same(b) && a.ID == b.ID
	})

	metrics.ReplaysTotal.WithLabelValues(strconv.FormatBool(drifted)).Inc()

	return &ReplayResult{CompileResult: compiled, Archived: archived, Drifted: drifted}, nil
}

// lookup resolves a run by ID, or by sequence number when ref is numeric.
func (e *CompileEngine) lookup(ref string) (*models.Run, error) {
	if sequence, err := strconv.Atoi(ref); err == nil {
		return e.runs.GetBySequence(sequence)
	}
	return e.runs.Get(ref)
}
