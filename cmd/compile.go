package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/formatter"
	"github.com/desertthunder/squadify/internal/shared"
	"github.com/desertthunder/squadify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Compile builds the collab of one squad and prints or writes it.
func (r *Runner) Compile(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	opts, err := r.compileOpts(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, err := r.engine(opts.Save)
	if err != nil {
		return err
	}

	outputPath := cmd.String("output")
	// the collab itself goes to stdout without --output, so progress stays out of it
	quiet := outputPath == ""

	progressCh := make(chan tasks.ProgressUpdate, 20)
	done := r.watch(progressCh, quiet)

	result, err := engine.Compile(ctx, progressCh, cmd.String("squad"), opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	export := &formatter.Export{Squad: result.Squad.Name, Seed: result.Seed, Result: result.Result}

	if quiet {
		data, err := formatter.Render(export, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		path, err := formatter.Write(export, format, outputPath)
		if err != nil {
			return err
		}
		r.writeSummary(result)
		r.writePlain("%s Wrote %s\n", r.styles.OK("✓"), path)
	}

	if cmd.Bool("ids") {
		r.writeIDs(result.Result, int(cmd.Int("chunk")))
	}

	return r.writeMetrics(cmd)
}

// Batch builds the collabs of every squad manifest given as an argument.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	manifests := cmd.Args().Slice()
	if len(manifests) == 0 {
		return fmt.Errorf("%w: at least one squad manifest", shared.ErrMissingArgument)
	}

	opts, err := r.compileOpts(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, err := r.engine(opts.Save)
	if err != nil {
		return err
	}

	useJSON := cmd.Bool("json")

	r.logger.Info("compiling squads", "count", len(manifests), "format", format)
	if !useJSON {
		r.writePlain("Compiling %d squads...\n", len(manifests))
	}

	progressCh := make(chan tasks.ProgressUpdate, len(manifests)*2)
	done := r.watch(progressCh, useJSON)

	result, err := engine.CompileBatch(ctx, progressCh, manifests, tasks.BatchOpts{
		Compile:    opts,
		Format:     format,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	if merr := r.writeMetrics(cmd); merr != nil {
		r.logger.Warn("failed to write metrics", "error", merr)
	}

	if useJSON {
		if werr := r.writeJSON(result, true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Batch Complete!")
	r.writePlain("Output directory: %s\n", result.OutputDirectory)
	r.writePlain("Succeeded: %d/%d\n", result.Succeeded, len(result.Items))
	if result.Failed > 0 {
		r.writePlain("%s\n", r.styles.Err(fmt.Sprintf("Failed: %d", result.Failed)))
		for _, item := range result.Items {
			if item.Error != "" {
				r.writePlain("  - %s: %s\n", item.Manifest, item.Error)
			}
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	return err
}

// compileOpts resolves the tunables, seed and save flag of a compile.
//
// The [collab] config section is the base; flags that were set override it.
func (r *Runner) compileOpts(cmd *cli.Command) (tasks.CompileOpts, error) {
	cfg := collab.Config{
		MaxCollabSize:   r.config.Collab.MaxCollabSize,
		MinFrequency:    r.config.Collab.MinFrequency,
		MinShareFactor:  r.config.Collab.MinShareFactor,
		ShareBelowFloor: r.config.Collab.ShareBelowFloor,
	}

	if cmd.IsSet("max") {
		cfg.MaxCollabSize = int(cmd.Int("max"))
	}
	if cmd.IsSet("min-frequency") {
		cfg.MinFrequency = int(cmd.Int("min-frequency"))
	}
	if cmd.IsSet("min-share") {
		cfg.MinShareFactor = float64(cmd.Float("min-share"))
	}
	if cmd.IsSet("share-below-floor") {
		cfg.ShareBelowFloor = cmd.Bool("share-below-floor")
	}

	if err := cfg.Validate(); err != nil {
		return tasks.CompileOpts{}, err
	}

	seed, err := parseSeed(cmd.String("seed"))
	if err != nil {
		return tasks.CompileOpts{}, err
	}

	return tasks.CompileOpts{Config: cfg, Seed: seed, Save: cmd.Bool("save")}, nil
}

// parseSeed reads a seed flag. Seeds span the full uint64 range, so the flag is a string.
func parseSeed(s string) (*uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: --seed must be an unsigned integer, got %q", shared.ErrInvalidFlag, s)
	}
	return &seed, nil
}

func (r *Runner) writeSummary(result *tasks.CompileResult) {
	res := result.Result

	r.writePlain("\n")
	r.writePlainHeader("Collab Complete!")
	r.writePlain("Squad: %s (%d members)\n", result.Squad.Name, len(res.Members))
	r.writePlain("Tracks: %d/%d\n", len(res.Entries), result.Config.MaxCollabSize)
	r.writePlain("Seed: %d\n", result.Seed)
	r.writePlain("Minimum share: %d\n", res.MinShare)

	if len(res.Members) > 0 {
		r.writePlainln("Members:")
		for _, share := range res.Members {
			r.writePlain("  %-16s %d added from %d eligible\n", share.Member, share.Added, share.Pool)
		}
	}

	if len(result.Squad.Skipped) > 0 {
		r.writePlain("%s\n", r.styles.Warn("Skipped unreadable playlists of: "+strings.Join(result.Squad.Skipped, ", ")))
	}

	if result.Run != nil {
		r.writePlain("Recorded as run #%d (%s)\n", result.Run.Sequence(), result.Run.ID())
	}
}

func (r *Runner) writeIDs(result *collab.Result, size int) {
	chunks := formatter.Chunk(formatter.TrackIDs(result), size)
	if len(chunks) == 0 {
		r.writePlain("%s\n", r.styles.Help("no track ids"))
		return
	}

	for i, chunk := range chunks {
		r.writePlain("%s %s\n", r.styles.Help(fmt.Sprintf("[%d/%d]", i+1, len(chunks))), strings.Join(chunk, ","))
	}
}
