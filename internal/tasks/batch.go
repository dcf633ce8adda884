package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/squadify/internal/formatter"
	"github.com/desertthunder/squadify/internal/metrics"
	"github.com/desertthunder/squadify/internal/shared"
	"golang.org/x/sync/errgroup"
)

// BatchOpts contains configuration for compiling several squads at once.
type BatchOpts struct {
	Compile    CompileOpts      // applied to every squad
	Format     formatter.Format // output format of each collab
	OutputDir  string           // base output directory (default: collabs_{epoch})
	NumWorkers int              // concurrent workers (default: 4)
}

// BatchItem is the outcome for one squad manifest.
type BatchItem struct {
	Manifest string `json:"manifest"`
	Squad    string `json:"squad,omitempty"`
	Seed     uint64 `json:"seed"`
	Tracks   int    `json:"tracks"`
	File     string `json:"file,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchResult summarizes a batch compile.
type BatchResult struct {
	OutputDirectory string      `json:"output_directory"`
	Succeeded       int         `json:"succeeded"`
	Failed          int         `json:"failed"`
	Items           []BatchItem `json:"items"`
	ManifestPath    string      `json:"-"`
}

type batchJob struct {
	index    int
	manifest string
}

// CompileBatch compiles up to opts.NumWorkers manifests at a time and writes every collab to opts.OutputDir.
//
// A failing squad does not stop the batch. Items are reported in manifest order and summarized
// in batch_manifest.json inside the output directory. Archive writes are serialized.
func (e *CompileEngine) CompileBatch(ctx context.Context, prog chan<- ProgressUpdate, manifests []string, opts BatchOpts) (*BatchResult, error) {
	if len(manifests) == 0 {
		return nil, fmt.Errorf("%w: no squad manifests", shared.ErrMissingArgument)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("collabs_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, len(manifests))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		OutputDirectory: opts.OutputDir,
		Items:           make([]BatchItem, len(manifests)),
	}

	var (
		mu        sync.Mutex
		completed int
	)

	var g errgroup.Group
	g.SetLimit(opts.NumWorkers)
	metrics.BatchWorkers.Set(float64(opts.NumWorkers))

	for i, manifest := range manifests {
		g.Go(func() error {
			// squads still queued when ctx is done never run
			if err := ctx.Err(); err != nil {
				result.Items[i] = BatchItem{Manifest: manifest, Error: err.Error()}
				return nil
			}

			item := e.compileOne(ctx, batchJob{index: i, manifest: manifest}, opts)
			result.Items[i] = item

			mu.Lock()
			completed++
			step := completed
			mu.Unlock()

			if item.Error == "" {
				e.sendProgress(prog, writeCompletedUpdate(step, len(manifests), item.Squad, item.File))
			} else {
				e.sendProgress(prog, writeFailedUpdate(step, len(manifests), item.Manifest, errors.New(item.Error)))
			}
			return nil
		})
	}
	_ = g.Wait()
	metrics.BatchLastTimestamp.SetToCurrentTime()

	for _, item := range result.Items {
		if item.Error == "" {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "batch_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("batch completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	return result, ctx.Err()
}

// compileOne compiles one manifest and writes its collab to {position}_{squad}_collab.{format}.
func (e *CompileEngine) compileOne(ctx context.Context, job batchJob, opts BatchOpts) BatchItem {
	item := BatchItem{Manifest: job.manifest}

	compiled, err := e.Compile(ctx, nil, job.manifest, opts.Compile)
	if compiled != nil {
		item.Squad = compiled.Squad.Name
		item.Seed = compiled.Seed
		item.Tracks = len(compiled.Result.Entries)
		if compiled.Run != nil {
			item.RunID = compiled.Run.ID()
		}
	}
	if err != nil {
		e.logger.Warn("squad failed", "manifest", job.manifest, "error", err)
		item.Error = err.Error()
		return item
	}

	export := &formatter.Export{Squad: compiled.Squad.Name, Seed: compiled.Seed, Result: compiled.Result}
	name := fmt.Sprintf("%02d_%s", job.index+1, formatter.DefaultFilename(compiled.Squad.Name, opts.Format))
	path := filepath.Join(opts.OutputDir, name)

	written, err := formatter.Write(export, opts.Format, path)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.File = written

	return item
}
