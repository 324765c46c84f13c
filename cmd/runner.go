package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kwdl/internal/automation"
	"github.com/desertthunder/kwdl/internal/repositories"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/desertthunder/kwdl/internal/tasks"
	"github.com/urfave/cli/v3"
)

const (
	storeSQLite = "sqlite"
	storeJSON   = "json"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	performer  tasks.Performer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	// DB replaces the database at Config.Database.Path. Migrations still run on first use.
	DB *sql.DB
	// Performer replaces the configured work unit.
	Performer tasks.Performer
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
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		performer:  opts.Performer,
	}
	if opts.DB != nil {
		if err := shared.RunMigrations(opts.DB); err != nil {
			r.logger.Warn("failed to migrate provided database", "error", err)
		}
		r.db = opts.DB
	}
	return r
}

// SetLogger swaps the logger, e.g. to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) { r.logger = l }

// Close releases the database connection, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, dedupeCommand, runCommand, progressCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens the configured database on first use and brings its schema up to date.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

// storeKind resolves a --store flag value against the configured default.
func (r *Runner) storeKind(flag string) (string, error) {
	kind := flag
	if kind == "" {
		kind = r.config.Progress.Store
	}
	switch kind {
	case storeSQLite, storeJSON:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: --store must be %s or %s, got %q", shared.ErrInvalidFlag, storeSQLite, storeJSON, kind)
	}
}

func (r *Runner) progressStore(kind string) (tasks.ProgressManager, error) {
	kind, err := r.storeKind(kind)
	if err != nil {
		return nil, err
	}

	if kind == storeJSON {
		return repositories.NewFileProgressStore(r.config.Progress.JSONPath, r.logger), nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewProgressRepository(db), nil
}

// runRecorder returns the run history for a sqlite-backed run. JSON-backed runs keep no history.
func (r *Runner) runRecorder(kind string) (tasks.RunRecorder, error) {
	kind, err := r.storeKind(kind)
	if err != nil {
		return nil, err
	}
	if kind != storeSQLite {
		return nil, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewRunRepository(db), nil
}

func (r *Runner) newPerformer(kind string) (tasks.Performer, error) {
	if r.performer != nil {
		return r.performer, nil
	}

	cfg := r.config.Performer
	if kind != "" {
		cfg.Kind = kind
	}
	return automation.New(cfg, r.logger)
}

// dryRunPerformer reports whether performerFlag, or performer.kind when the flag is empty, resolves to
// the dryrun performer. An injected performer is never a dry run.
func (r *Runner) dryRunPerformer(performerFlag string) bool {
	if r.performer != nil {
		return false
	}
	kind := performerFlag
	if kind == "" {
		kind = r.config.Performer.Kind
	}
	return kind == automation.KindDryRun || kind == ""
}

// newProcessor wires a [tasks.BatchProcessor] from the --store and --performer flag values.
func (r *Runner) newProcessor(storeFlag, performerFlag string) (*tasks.BatchProcessor, error) {
	store, err := r.progressStore(storeFlag)
	if err != nil {
		return nil, err
	}
	runs, err := r.runRecorder(storeFlag)
	if err != nil {
		return nil, err
	}
	performer, err := r.newPerformer(performerFlag)
	if err != nil {
		return nil, err
	}

	return tasks.NewBatchProcessor(tasks.BatchOpts{
		Store:     store,
		Performer: performer,
		Runs:      runs,
		Logger:    r.logger,
	}), nil
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
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
