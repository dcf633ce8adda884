package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/squadify/internal/metrics"
	"github.com/desertthunder/squadify/internal/models"
	"github.com/desertthunder/squadify/internal/repositories"
	"github.com/desertthunder/squadify/internal/shared"
	"github.com/desertthunder/squadify/internal/squad"
	"github.com/desertthunder/squadify/internal/tasks"
	"github.com/desertthunder/squadify/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
	styles *ui.Palette
	loader *squad.Loader
	db     *sql.DB
	ownsDB bool
	runs   *repositories.RunRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
	DB     *sql.DB // migrated run archive; opened from Config.Database on first use when nil
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		styles: ui.Styles,
		loader: squad.NewLoader(opts.Logger),
		db:     opts.DB,
	}
	if opts.DB != nil {
		r.runs = repositories.NewRunRepository(opts.DB)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, compileCommand, batchCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before runs ahead of every command and applies the root flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// Close releases the run archive when the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.runs, r.ownsDB = nil, nil, false
	return err
}

// reloadConfig replaces the startup config when a command's --config flag was set.
func (r *Runner) reloadConfig(cmd *cli.Command) error {
	if !cmd.IsSet("config") {
		return nil
	}

	config, err := shared.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}

	r.config = config
	return nil
}

// archive opens the run archive on first use.
func (r *Runner) archive() (*repositories.RunRepository, error) {
	if r.runs != nil {
		return r.runs, nil
	}

	r.logger.Debug("opening run archive", "path", r.config.Database.Path)
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}

	r.db, r.ownsDB = db, true
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

// engine builds a compile engine, wired to the run archive when archived is set.
func (r *Runner) engine(archived bool) (*tasks.CompileEngine, error) {
	if !archived {
		return tasks.NewCompileEngine(r.loader, nil, r.logger), nil
	}

	runs, err := r.archive()
	if err != nil {
		return nil, err
	}
	return tasks.NewCompileEngine(r.loader, runs, r.logger), nil
}

// writeMetrics writes the metrics textfile when --metrics-file was given.
func (r *Runner) writeMetrics(cmd *cli.Command) error {
	path := cmd.String("metrics-file")
	if path == "" {
		return nil
	}

	if err := metrics.WriteTextfile(path); err != nil {
		return err
	}
	r.logger.Debug("wrote metrics", "path", path)
	return nil
}

// lookupRun resolves a run by ID, or by sequence number when ref is numeric.
func (r *Runner) lookupRun(ref string) (*models.Run, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: run id or sequence number", shared.ErrMissingArgument)
	}

	runs, err := r.archive()
	if err != nil {
		return nil, err
	}

	if sequence, err := strconv.Atoi(ref); err == nil {
		return runs.GetBySequence(sequence)
	}
	return runs.Get(ref)
}

// watch prints progress updates until progressCh is closed. The returned channel closes once
// every update has been handled. When quiet, updates go to the debug log instead of the output.
func (r *Runner) watch(progressCh <-chan tasks.ProgressUpdate, quiet bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				r.logger.Debug(update.Message, "phase", update.Phase)
				continue
			}

			switch update.Phase {
			case tasks.LoadSquad, tasks.LoadRun:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.BuildCollab:
				r.writePlain("🎛  %s\n", update.Message)
			case tasks.RecordRun:
				r.writePlain("💾 %s\n", update.Message)
			case tasks.WriteOutput:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", r.styles.Header(title))
}
