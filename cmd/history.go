package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/squadify/internal/formatter"
	"github.com/desertthunder/squadify/internal/models"
	"github.com/desertthunder/squadify/internal/shared"
	"github.com/desertthunder/squadify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runSummary is the listing view of a run.
type runSummary struct {
	ID              string    `json:"id"`
	Sequence        int       `json:"sequence"`
	Squad           string    `json:"squad"`
	Seed            string    `json:"seed"`
	Members         int       `json:"members"`
	Tracks          int       `json:"tracks"`
	MaxCollabSize   int       `json:"max_collab_size"`
	MinFrequency    int       `json:"min_frequency"`
	MinShareFactor  float64   `json:"min_share_factor"`
	ShareBelowFloor bool      `json:"share_below_floor"`
	CreatedAt       time.Time `json:"created_at"`
}

func summarizeRun(run *models.Run) runSummary {
	cfg := run.Config()
	return runSummary{
		ID:              run.ID(),
		Sequence:        run.Sequence(),
		Squad:           run.Squad(),
		Seed:            run.SeedString(),
		Members:         run.MemberCount(),
		Tracks:          len(run.Tracks()),
		MaxCollabSize:   cfg.MaxCollabSize,
		MinFrequency:    cfg.MinFrequency,
		MinShareFactor:  cfg.MinShareFactor,
		ShareBelowFloor: cfg.ShareBelowFloor,
		CreatedAt:       run.CreatedAt(),
	}
}

// HistoryList lists recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	runs, err := r.archive()
	if err != nil {
		return err
	}

	list, err := runs.List(map[string]any{
		"squad": cmd.String("squad"),
		"limit": int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	summaries := make([]runSummary, 0, len(list))
	for _, run := range list {
		summaries = append(summaries, summarizeRun(run))
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		r.writePlain("No runs recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Runs (%d)", len(summaries)))
	for _, s := range summaries {
		r.writePlain("#%-4d %s  %-20s %2d/%-3d tracks  %d members  seed %s  %s\n",
			s.Sequence, s.ID, s.Squad, s.Tracks, s.MaxCollabSize, s.Members, s.Seed,
			r.styles.Help(s.CreatedAt.Local().Format(time.DateTime)))
	}

	return nil
}

// HistoryShow prints the collab of a recorded run.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	run, err := r.lookupRun(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	result, err := run.Result()
	if err != nil {
		return fmt.Errorf("failed to read run %s: %w", run.ID(), err)
	}

	data, err := formatter.Render(&formatter.Export{Squad: run.Squad(), Seed: run.Seed(), Result: result}, format)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// HistoryReplay rebuilds a recorded run from the squad's current playlists and reports drift.
func (r *Runner) HistoryReplay(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ref := cmd.StringArg("id")
	if ref == "" {
		return fmt.Errorf("%w: run id or sequence number", shared.ErrMissingArgument)
	}

	engine, err := r.engine(true)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 20)
	done := r.watch(progressCh, false)

	replay, err := engine.Replay(ctx, progressCh, ref, cmd.String("squad"))
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("Replay of run #%d", replay.Run.Sequence()))
	r.writePlain("Squad: %s\n", replay.Squad.Name)
	r.writePlain("Seed: %d\n", replay.Seed)
	r.writePlain("Tracks: %d (archived %d)\n", len(replay.Result.Entries), len(replay.Archived.Entries))

	if replay.Drifted {
		r.writePlain("%s\n", r.styles.Warn("The collab changed: the squad's playlists differ from the recorded run"))
	} else {
		r.writePlain("%s Identical to the recorded collab\n", r.styles.OK("✓"))
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		export := &formatter.Export{Squad: replay.Squad.Name, Seed: replay.Seed, Result: replay.Result}
		path, err := formatter.Write(export, format, outputPath)
		if err != nil {
			return err
		}
		r.writePlain("%s Wrote %s\n", r.styles.OK("✓"), path)
	}

	return nil
}

// HistoryDelete removes a run from the history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	run, err := r.lookupRun(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.runs.Delete(run.ID()); err != nil {
		return err
	}

	r.logger.Info("deleted run", "id", run.ID(), "sequence", run.Sequence())
	r.writePlain("%s Deleted run #%d (%s)\n", r.styles.OK("✓"), run.Sequence(), run.ID())
	return nil
}
