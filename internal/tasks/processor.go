package tasks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kwdl/internal/models"
	"github.com/desertthunder/kwdl/internal/shared"
)

// Performer is the external work unit invoked once per non-blank title.
//
// A nil error is success. Implementations may block for as long as they need.
type Performer interface {
	Perform(ctx context.Context, title string) error
}

// PerformerFunc adapts a function to [Performer].
type PerformerFunc func(ctx context.Context, title string) error

func (f PerformerFunc) Perform(ctx context.Context, title string) error { return f(ctx, title) }

// ProgressStore persists the next unprocessed line index per file path.
//
// Load returns 0 and a nil error for a path that was never saved.
type ProgressStore interface {
	Load(ctx context.Context, path string) (int, error)
	Save(ctx context.Context, path string, cursor int) error
}

// ProgressManager is the operator-facing side of a [ProgressStore].
type ProgressManager interface {
	ProgressStore
	Reset(ctx context.Context, path string) error
	List(ctx context.Context) ([]models.Cursor, error)
}

// RunRecorder persists run history. Failures are logged and never interrupt a run.
type RunRecorder interface {
	Create(run *models.Run) error
	Update(run *models.Run) error
}

// Outcome is what happened to one line.
type Outcome int

const (
	Skipped Outcome = iota
	Succeeded
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Line is one entry of a title file.
type Line struct {
	Index int    // 0-based line index
	Title string // Raw line text, without the line terminator
}

// LineOutcome records the result for a line at or past the starting cursor.
type LineOutcome struct {
	Line
	Outcome Outcome
	Err     error // Set when Outcome is Failed
}

// RunResult contains everything observed during one [BatchProcessor.Process] call.
type RunResult struct {
	RunID       string
	Path        string
	Status      models.RunStatus
	TotalLines  int           // Line count, computed once up front and used only for reporting
	StartCursor int           // Cursor loaded before the first line
	EndCursor   int           // Cursor persisted after the last attempted line
	Outcomes    []LineOutcome // One entry per attempted or skipped line, in file order
	Attempted   int           // Lines handed to the performer
	Succeeded   int
	Skipped     int
	Failed      *LineOutcome // The line that halted the run, if any
}

// Stats converts the counters into a [models.RunStats].
func (r *RunResult) Stats() models.RunStats {
	return models.RunStats{
		TotalLines:  r.TotalLines,
		StartCursor: r.StartCursor,
		EndCursor:   r.EndCursor,
		Attempted:   r.Attempted,
		Succeeded:   r.Succeeded,
		Skipped:     r.Skipped,
	}
}

// BatchOpts contains the dependencies of a [BatchProcessor].
type BatchOpts struct {
	Store     ProgressStore
	Performer Performer
	Runs      RunRecorder // optional
	Logger    *log.Logger // optional
}

// BatchProcessor runs a title file through a [Performer], one line at a time, resuming from the stored cursor.
//
// It assumes one run per path at a time; callers must serialize runs on the same file.
type BatchProcessor struct {
	store     ProgressStore
	performer Performer
	runs      RunRecorder
	logger    *log.Logger
}

// NewBatchProcessor creates a new BatchProcessor with the provided dependencies.
func NewBatchProcessor(opts BatchOpts) *BatchProcessor {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &BatchProcessor{
		store:     opts.Store,
		performer: opts.Performer,
		runs:      opts.Runs,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (p *BatchProcessor) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// ReadLines reads path as UTF-8 and splits it into indexed lines.
//
// "\n" and "\r\n" both terminate a line; a final terminator does not add an empty line.
func ReadLines(path string) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInputFile, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", shared.ErrInputFile, path)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	if len(data) == 0 {
		return []Line{}, nil
	}

	raw := strings.Split(string(data), "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]Line, len(raw))
	for i, text := range raw {
		lines[i] = Line{Index: i, Title: strings.TrimSuffix(text, "\r")}
	}
	return lines, nil
}

// Pending returns the non-blank lines a run over path would hand to the performer, plus the stored cursor.
//
// Nothing is invoked or persisted.
func (p *BatchProcessor) Pending(ctx context.Context, path string) ([]Line, int, error) {
	if p.store == nil {
		return nil, 0, fmt.Errorf("%w: progress store not initialized", shared.ErrMissingArgument)
	}
	lines, err := ReadLines(path)
	if err != nil {
		return nil, 0, err
	}
	cursor := p.loadCursor(ctx, path)

	var pending []Line
	for _, line := range lines {
		if line.Index >= cursor && strings.TrimSpace(line.Title) != "" {
			pending = append(pending, line)
		}
	}
	return pending, cursor, nil
}

// Process walks path from its stored cursor and performs every non-blank line in order.
//
// The cursor is saved as index+1 after each line, blank or not, and only once the performer has
// returned. The first failure halts the run; it is reported in [RunResult.Failed] with a nil error.
// The returned error is non-nil only when the file cannot be read, a cursor cannot be saved,
// or ctx is cancelled between lines.
func (p *BatchProcessor) Process(ctx context.Context, path string, progress chan<- ProgressUpdate) (*RunResult, error) {
	if p.store == nil {
		return nil, fmt.Errorf("%w: progress store not initialized", shared.ErrMissingArgument)
	}
	if p.performer == nil {
		return nil, fmt.Errorf("%w: performer not initialized", shared.ErrMissingArgument)
	}

	p.sendProgress(progress, loadFileUpdate(path))

	lines, err := ReadLines(path)
	if err != nil {
		p.logger.Error("cannot read title file", "path", path, "step", "load", "error", err)
		return nil, err
	}

	total := len(lines)
	cursor := p.loadCursor(ctx, path)

	result := &RunResult{
		Path:        path,
		Status:      models.RunRunning,
		TotalLines:  total,
		StartCursor: cursor,
		EndCursor:   cursor,
	}

	run := p.startRun(result)
	logger := shared.WithLogger(p.logger, "run", result.RunID, "path", path)
	logger.Info("processing title file", "total", total, "start_line", cursor+1)
	p.sendProgress(progress, resumeUpdate(cursor, total))

	var runErr error
	for i := cursor; i < total; i++ {
		if err := ctx.Err(); err != nil {
			result.Status = models.RunInterrupted
			runErr = err
			logger.Warn("run interrupted", "next_line", i+1)
			break
		}

		line := lines[i]
		outcome := LineOutcome{Line: line}

		if strings.TrimSpace(line.Title) == "" {
			outcome.Outcome = Skipped
			p.sendProgress(progress, skipUpdate(line.Index, total))
		} else {
			p.sendProgress(progress, performUpdate(line, total))
			logger.Info("processing line", "line", line.Index+1, "title", line.Title)

			result.Attempted++
			if err := p.perform(ctx, line.Title); err != nil {
				outcome.Outcome = Failed
				outcome.Err = err
			} else {
				outcome.Outcome = Succeeded
			}
		}

		// The line has already run, so its cursor is persisted even if ctx was cancelled meanwhile.
		if err := p.store.Save(context.WithoutCancel(ctx), path, line.Index+1); err != nil {
			result.Outcomes = append(result.Outcomes, outcome)
			result.Status = models.RunErrored
			runErr = fmt.Errorf("%w: save cursor %d for %s: %v", shared.ErrProgressStore, line.Index+1, path, err)
			logger.Error("cannot save progress", "line", line.Index+1, "title", line.Title, "step", "save", "error", err)
			break
		}
		result.EndCursor = line.Index + 1
		result.Outcomes = append(result.Outcomes, outcome)

		switch outcome.Outcome {
		case Skipped:
			result.Skipped++
		case Succeeded:
			result.Succeeded++
			logger.Info("line done", "line", line.Index+1, "title", line.Title)
			p.sendProgress(progress, lineDoneUpdate(outcome, total))
		case Failed:
			failed := outcome
			result.Failed = &failed
			result.Status = models.RunFailed
			logger.Error("line failed, halting run", "line", line.Index+1, "title", line.Title, "step", "perform", "error", outcome.Err)
			p.sendProgress(progress, lineFailedUpdate(outcome, total))
		}

		if result.Failed != nil {
			break
		}
	}

	if result.Status == models.RunRunning {
		result.Status = models.RunCompleted
		logger.Info("file processing complete", "succeeded", result.Succeeded, "skipped", result.Skipped)
	}

	p.finishRun(run, result, runErr)
	p.sendProgress(progress, finishedUpdate(result))

	return result, runErr
}

// perform invokes the performer and turns an error or panic into a failure, so the cursor step always runs.
func (p *BatchProcessor) perform(ctx context.Context, title string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", shared.ErrWorkUnit, r)
		}
	}()

	if err := p.performer.Perform(ctx, title); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrWorkUnit, err)
	}
	return nil
}

// loadCursor reads the stored cursor, treating a missing, unreadable or negative value as 0.
func (p *BatchProcessor) loadCursor(ctx context.Context, path string) int {
	cursor, err := p.store.Load(ctx, path)
	if err != nil {
		p.logger.Warn("cannot load progress, starting from the first line", "path", path, "step", "load", "error", err)
		return 0
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func (p *BatchProcessor) startRun(result *RunResult) *models.Run {
	if p.runs == nil {
		result.RunID = shared.GenerateID()
		return nil
	}

	run := models.NewRun(0, result.Path, result.TotalLines, result.StartCursor)
	if err := p.runs.Create(run); err != nil {
		p.logger.Warn("cannot record run", "path", result.Path, "error", err)
		result.RunID = shared.GenerateID()
		return nil
	}
	result.RunID = run.ID()
	return run
}

func (p *BatchProcessor) finishRun(run *models.Run, result *RunResult, runErr error) {
	if run == nil {
		return
	}

	if result.Failed != nil {
		run.SetFailure(result.Failed.Index, result.Failed.Title)
		run.SetErrorMessage(result.Failed.Err.Error())
	} else if runErr != nil {
		run.SetErrorMessage(runErr.Error())
	}
	run.Finish(result.Status, result.Stats())

	if err := p.runs.Update(run); err != nil {
		p.logger.Warn("cannot update run record", "run", run.ID(), "error", err)
	}
}
